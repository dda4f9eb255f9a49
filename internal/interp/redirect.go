package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/marcelocantos/crsh/internal/ast"
)

// redirection holds the files a command's redirects opened. Only the last
// redirect of each direction is opened.
type redirection struct {
	stdin  io.Reader
	stdout io.Writer
	files  []io.Closer
}

func (r *redirection) Close() {
	for _, f := range r.files {
		f.Close()
	}
	r.files = nil
}

func (in *Interpreter) openRedirects(c *ast.Command) (*redirection, error) {
	for _, r := range c.Redirects {
		switch r.Kind {
		case ast.ReadFrom, ast.WriteTo, ast.AppendTo:
		default:
			return nil, &RuntimeError{Op: "redirect", Err: fmt.Errorf("malformed redirect %v to %q", r.Kind, r.Path)}
		}
	}

	rd := &redirection{}
	if r, ok := c.Input(); ok {
		f, err := in.fs.Open(r.Path)
		if err != nil {
			return nil, &RuntimeError{Op: "redirect " + r.String(), Err: err}
		}
		in.logger.Debug("redirect", "kind", r.Kind.String(), "path", r.Path)
		rd.stdin = f
		rd.files = append(rd.files, f)
	}
	if r, ok := c.Output(); ok {
		flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if r.Kind == ast.AppendTo {
			flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		f, err := in.fs.OpenFile(r.Path, flag, 0644)
		if err != nil {
			rd.Close()
			return nil, &RuntimeError{Op: "redirect " + r.String(), Err: err}
		}
		in.logger.Debug("redirect", "kind", r.Kind.String(), "path", r.Path)
		rd.stdout = f
		rd.files = append(rd.files, f)
	}
	return rd, nil
}
