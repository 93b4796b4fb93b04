// Package audit appends every served command and its JSON reply to a
// per-process log file.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/benbjohnson/clock"
)

const (
	fileLayout  = "2006-01-02-15-04-05"
	entryLayout = "2006-01-02T15:04:05"
)

type Recorder interface {
	// Record appends one entry. line is the command exactly as received,
	// including its trailing newline when it had one.
	Record(line string, result []byte) error
	Close() error
}

// FileRecorder writes entries straight to the file, unbuffered, so that
// entries survive an abrupt exit.
type FileRecorder struct {
	mu    sync.Mutex
	file  *os.File
	clock clock.Clock
}

// Open creates dir when needed and opens <dir>/<start time>.log.
func Open(dir string, clk clock.Clock) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	path := filepath.Join(dir, clk.Now().Format(fileLayout)+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &FileRecorder{file: file, clock: clk}, nil
}

func (r *FileRecorder) Path() string {
	return r.file.Name()
}

func (r *FileRecorder) Record(line string, result []byte) error {
	entry := make([]byte, 0, len(line)+len(result)+len(entryLayout)+4)
	entry = append(entry, '\n')
	entry = r.clock.Now().AppendFormat(entry, entryLayout)
	entry = append(entry, ": "...)
	entry = append(entry, line...)
	entry = append(entry, result...)
	entry = append(entry, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.file.Write(entry); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// Discard is the recorder used when auditing is switched off.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(string, []byte) error { return nil }
func (discard) Close() error                { return nil }
