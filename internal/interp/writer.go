package interp

import (
	"bytes"
	"io"
	"sync"
)

// lockedWriter serialises writes from concurrently running stages that
// share one capture buffer.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func newLockedWriter(w io.Writer) *lockedWriter {
	return &lockedWriter{mu: &sync.Mutex{}, w: w}
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// drainTo copies the buffered bytes to dst and empties the buffer. The
// wrapped writer must be a *bytes.Buffer.
func (lw *lockedWriter) drainTo(dst io.Writer) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	buf := lw.w.(*bytes.Buffer)
	dst.Write(buf.Bytes())
	buf.Reset()
}
