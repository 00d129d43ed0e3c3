package toolkit

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/extend"
	"github.com/paywithextend/extend-ai-toolkit-go/pkg/permissions"
)

// Toolkit is the authorization-filtered, invocable view of the tool
// catalog for one session. Every adapter funnels invocation through
// Invoke so the scope check cannot be bypassed.
type Toolkit struct {
	tools   map[string]*Tool
	schemas map[string]*gojsonschema.Schema
	ordered []Tool

	// Full catalog names, to distinguish unauthorized from unknown.
	catalog map[string]bool
}

// New builds a Toolkit holding exactly the catalog tools whose required
// product/action pair is covered by the configuration. Catalog order is
// preserved.
func New(api extend.API, cfg permissions.Configuration) (*Toolkit, error) {
	tk := &Toolkit{
		tools:   make(map[string]*Tool),
		schemas: make(map[string]*gojsonschema.Schema),
		catalog: make(map[string]bool),
	}

	for _, tool := range Catalog(api) {
		tk.catalog[tool.Name] = true
		if !cfg.Permits(tool.Product, tool.Action) {
			continue
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.InputSchema()))
		if err != nil {
			return nil, NewError(CodeInvalidArgument, "failed to compile schema for %s: %v", tool.Name, err)
		}

		tool := tool
		tk.tools[tool.Name] = &tool
		tk.schemas[tool.Name] = schema
		tk.ordered = append(tk.ordered, tool)
	}

	log.Info().
		Int("authorized", len(tk.ordered)).
		Int("catalog", len(tk.catalog)).
		Msg("Toolkit built")

	return tk, nil
}

// List returns the authorized tools in catalog order.
func (tk *Toolkit) List() []Tool {
	out := make([]Tool, len(tk.ordered))
	copy(out, tk.ordered)
	return out
}

// Tool returns an authorized tool by name.
func (tk *Toolkit) Tool(name string) (Tool, bool) {
	tool, ok := tk.tools[name]
	if !ok {
		return Tool{}, false
	}
	return *tool, true
}

// Invoke validates the arguments and dispatches to the tool handler.
// Authorization is checked before validation and execution; an
// unauthorized or unknown name never reaches a handler.
func (tk *Toolkit) Invoke(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	tool, ok := tk.tools[name]
	if !ok {
		if tk.catalog[name] {
			log.Warn().Str("tool", name).Msg("Tool invocation blocked by scope")
			return nil, NewError(CodeNotAuthorized, "tool %q is not permitted by the configured scopes", name)
		}
		return nil, NewError(CodeNotFound, "unknown tool: %q", name)
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	if err := tk.validateArgs(name, args); err != nil {
		log.Warn().Str("tool", name).Err(err).Msg("Tool argument validation failed")
		return nil, err
	}

	log.Debug().Str("tool", name).Msg("Invoking tool")

	result, err := tool.Handler(ctx, args)
	if err != nil {
		toolErr := translateError(ctx, err)
		log.Warn().
			Str("tool", name).
			Str("code", string(toolErr.Code)).
			Msg("Tool invocation failed")
		return nil, toolErr
	}
	return result, nil
}

func (tk *Toolkit) validateArgs(name string, args map[string]interface{}) error {
	schema := tk.schemas[name]
	if schema == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return NewError(CodeInvalidArgument, "argument validation failed: %v", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			msgs = append(msgs, resultErr.String())
		}
		return NewError(CodeInvalidArgument, "invalid arguments: %v", msgs)
	}
	return nil
}
