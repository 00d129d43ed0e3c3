package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// rotatingFile is an io.WriteCloser that renames the log aside once it
// grows past the size limit. Rotated logs carry a timestamp suffix, are
// gzipped when compression is on, and are pruned once older than maxAge
// days. Writes are serialized; zerolog may call Write from any
// goroutine.
type rotatingFile struct {
	path     string
	limit    int64
	maxAge   int
	compress bool

	mu   sync.Mutex
	file *os.File
	size int64
}

func newRotatingFile(path string, maxSizeMB, maxAgeDays int, compress bool) (*rotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	f := &rotatingFile{
		path:     path,
		limit:    int64(maxSizeMB) * 1024 * 1024,
		maxAge:   maxAgeDays,
		compress: compress,
		file:     file,
		size:     info.Size(),
	}
	f.prune()
	return f, nil
}

func (f *rotatingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.size+int64(len(p)) > f.limit {
		if err := f.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := f.file.Write(p)
	f.size += int64(n)
	return n, err
}

func (f *rotatingFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

// rotate renames the live log aside and reopens a fresh one. Caller
// holds the lock.
func (f *rotatingFile) rotate() error {
	if err := f.file.Close(); err != nil {
		return err
	}

	rotated := f.path + "." + time.Now().Format("20060102-150405")
	if err := os.Rename(f.path, rotated); err != nil {
		return err
	}
	if f.compress {
		go gzipFile(rotated)
	}

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	f.file = file
	f.size = 0

	f.prune()
	return nil
}

// prune removes rotated logs whose modification time is older than
// maxAge days. The live log is never touched.
func (f *rotatingFile) prune() {
	if f.maxAge <= 0 {
		return
	}
	matches, err := filepath.Glob(f.path + ".*")
	if err != nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -f.maxAge)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		os.Remove(path)
	}
}

// gzipFile compresses a rotated log in place, replacing it with a .gz
// file. Failures leave the uncompressed file behind.
func gzipFile(path string) {
	src, err := os.Open(path)
	if err != nil {
		return
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return
	}
	defer dst.Close()

	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		return
	}
	if err := zw.Close(); err != nil {
		return
	}
	os.Remove(path)
}
