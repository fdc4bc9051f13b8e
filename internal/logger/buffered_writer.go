package logger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultBufferSize is the write buffer for log files
const DefaultBufferSize = 32 * 1024

// LogFilePermissions are applied to newly created log files
const LogFilePermissions = 0o644

// BufferedFileWriter is a mutex guarded, buffered append-only log file.
// Records are buffered until Flush or Close; CentralLogger flushes on
// shutdown and after every error level record.
type BufferedFileWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
	closed bool
}

// NewBufferedFileWriter opens path for appending, creating parent directories.
func NewBufferedFileWriter(path string) (*BufferedFileWriter, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions) //nolint:gosec // path comes from config
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return &BufferedFileWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, DefaultBufferSize),
		path:   path,
	}, nil
}

// Write buffers p. Thread-safe.
func (w *BufferedFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, errors.New("log writer is closed")
	}
	return w.writer.Write(p)
}

// Flush pushes buffered bytes to the OS.
func (w *BufferedFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.writer.Flush()
}

// Close flushes, syncs and closes the file. Safe to call more than once.
func (w *BufferedFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.writer.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.file.Sync(); err != nil {
		errs = append(errs, err)
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Path returns the file path
func (w *BufferedFileWriter) Path() string {
	return w.path
}
