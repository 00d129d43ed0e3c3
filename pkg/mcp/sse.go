package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// sseSession is one long-lived event-stream connection. Requests arrive
// via POST /messages and responses are pushed down the stream.
type sseSession struct {
	id     string
	events chan []byte
}

// SSEHandler returns the HTTP handler for the SSE transport:
// GET /sse opens the event stream, POST /messages dispatches requests.
// The discovery/invocation semantics are identical to stdio.
func (s *Server) SSEHandler() http.Handler {
	h := &sseState{server: s, sessions: make(map[string]*sseSession)}

	mux := http.NewServeMux()
	mux.HandleFunc("/sse", h.handleStream)
	mux.HandleFunc("/messages", h.handleMessage)
	return mux
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	httpServer := &http.Server{Addr: addr, Handler: s.SSEHandler()}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("MCP server listening on SSE")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

type sseState struct {
	server   *Server
	mu       sync.Mutex
	sessions map[string]*sseSession
}

func (h *sseState) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	session := &sseSession{
		id:     uuid.NewString(),
		events: make(chan []byte, 16),
	}

	h.mu.Lock()
	h.sessions[session.id] = session
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.sessions, session.id)
		h.mu.Unlock()
		log.Debug().Str("session", session.id).Msg("SSE session closed")
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The endpoint event tells the peer where to POST its requests.
	fmt.Fprintf(w, "event: endpoint\ndata: /messages?session=%s\n\n", session.id)
	flusher.Flush()

	log.Debug().Str("session", session.id).Msg("SSE session opened")

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-session.events:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (h *sseState) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session")
	h.mu.Lock()
	session, ok := h.sessions[sessionID]
	h.mu.Unlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp := h.server.handle(r.Context(), req)
	if resp != nil {
		data, err := json.Marshal(resp)
		if err == nil {
			select {
			case session.events <- data:
			case <-r.Context().Done():
				return
			}
		}
	}

	w.WriteHeader(http.StatusAccepted)
}
