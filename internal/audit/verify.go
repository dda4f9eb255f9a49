package audit

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// ChainError reports the first broken link in an audit log.
type ChainError struct {
	Line   int
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Verify walks the log at path and returns a *ChainError for the first
// entry that does not follow its predecessor. An empty log is intact.
func Verify(fsys afero.Fs, path string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}

	c := newChain()
	for i, line := range records(data) {
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return &ChainError{Line: i + 1, Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
		if reason := c.check(e); reason != "" {
			return &ChainError{Line: i + 1, Reason: reason}
		}
		c.advance(e)
	}
	return nil
}

// Tail returns the last n decodable entries; n <= 0 returns all of them.
func Tail(fsys afero.Fs, path string, n int) ([]Entry, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	var entries []Entry
	for _, line := range records(data) {
		var e Entry
		if json.Unmarshal(line, &e) == nil {
			entries = append(entries, e)
		}
	}
	if n > 0 && n < len(entries) {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
