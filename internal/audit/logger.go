package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Logger appends hash-chained entries to a JSONL file. It is safe for
// concurrent use.
type Logger struct {
	fs   afero.Fs
	path string

	mu    sync.Mutex
	chain chain
	now   func() time.Time
}

// NewLogger opens the log at path on fsys, creating its directory, and
// resumes the chain from the last entry.
func NewLogger(fsys afero.Fs, path string) (*Logger, error) {
	if err := fsys.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	l := &Logger{fs: fsys, path: path, chain: newChain(), now: time.Now}

	data, err := afero.ReadFile(fsys, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	if lines := records(data); len(lines) > 0 {
		var last Entry
		if err := json.Unmarshal(lines[len(lines)-1], &last); err != nil {
			return nil, fmt.Errorf("resume audit log %s: %w", path, err)
		}
		l.chain.advance(last)
	}
	return l, nil
}

// Log appends r. The chain only advances once the entry is on disk.
func (l *Logger) Log(r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.chain.link(newEntry(r, l.now()))
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	l.chain.advance(entry)
	return nil
}

// Path returns the audit log file path.
func (l *Logger) Path() string {
	return l.path
}
