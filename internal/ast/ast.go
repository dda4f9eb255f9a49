// Package ast defines the command tree shared by the parser and the
// interpreter.
package ast

import (
	"fmt"
	"strings"

	"github.com/marcelocantos/crsh/internal/scanner"
)

// Node is a top-level program: a *Pipeline or a *Sequence.
type Node interface {
	node()
	String() string
}

// Sequence is two or more pipelines run one after another.
type Sequence struct {
	Pipelines []*Pipeline
}

// Pipeline is a chain of commands, stdout to stdin, left to right.
type Pipeline struct {
	Commands []*Command
}

// Command is a program name plus arguments and its redirections.
type Command struct {
	Words     []string
	Redirects []Redirect
}

// RedirectKind says which stream a redirect replaces and how the file is opened.
type RedirectKind int

const (
	ReadFrom RedirectKind = iota // < path
	WriteTo                      // > path, create/truncate
	AppendTo                     // >> path, create/append
)

func (k RedirectKind) String() string {
	switch k {
	case ReadFrom:
		return "<"
	case WriteTo:
		return ">"
	case AppendTo:
		return ">>"
	default:
		return fmt.Sprintf("redirect(%d)", int(k))
	}
}

// Redirect overrides a command's stdin or stdout with a file.
type Redirect struct {
	Kind RedirectKind
	Path string
}

func (*Sequence) node() {}
func (*Pipeline) node() {}

// NewCommand builds a command from words and optional redirects.
func NewCommand(words []string, redirects ...Redirect) *Command {
	return &Command{Words: words, Redirects: redirects}
}

// NewPipeline builds a pipeline from commands.
func NewPipeline(cmds ...*Command) *Pipeline {
	return &Pipeline{Commands: cmds}
}

// NewSequence builds a sequence from pipelines.
func NewSequence(pipelines ...*Pipeline) *Sequence {
	return &Sequence{Pipelines: pipelines}
}

// Name returns the program name, or "" for a malformed empty command.
func (c *Command) Name() string {
	if len(c.Words) == 0 {
		return ""
	}
	return c.Words[0]
}

// Args returns the words after the program name.
func (c *Command) Args() []string {
	if len(c.Words) == 0 {
		return nil
	}
	return c.Words[1:]
}

// Input returns the effective stdin redirect. Later redirects win.
func (c *Command) Input() (Redirect, bool) {
	var in Redirect
	found := false
	for _, r := range c.Redirects {
		if r.Kind == ReadFrom {
			in, found = r, true
		}
	}
	return in, found
}

// Output returns the effective stdout redirect. Later redirects win.
func (c *Command) Output() (Redirect, bool) {
	var out Redirect
	found := false
	for _, r := range c.Redirects {
		if r.Kind == WriteTo || r.Kind == AppendTo {
			out, found = r, true
		}
	}
	return out, found
}

func (r Redirect) String() string {
	return r.Kind.String() + " " + quote(r.Path)
}

func (c *Command) String() string {
	parts := make([]string, 0, len(c.Words)+len(c.Redirects))
	for _, w := range c.Words {
		parts = append(parts, quote(w))
	}
	for _, r := range c.Redirects {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " ")
}

func (p *Pipeline) String() string {
	parts := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		parts[i] = c.String()
	}
	return strings.Join(parts, " | ")
}

func (s *Sequence) String() string {
	parts := make([]string, len(s.Pipelines))
	for i, p := range s.Pipelines {
		parts[i] = p.String()
	}
	return strings.Join(parts, "; ")
}

// quote wraps a word in single quotes when it would not survive rescanning
// as a bareword. There is no escape syntax, so a word holding both quote
// characters comes out readable but not re-parseable; the scanner itself
// never produces one.
func quote(w string) string {
	if w == "" {
		return "''"
	}
	if strings.ContainsAny(w, scanner.Reserved+" \t\r\n") {
		if strings.Contains(w, "'") {
			return `"` + w + `"`
		}
		return "'" + w + "'"
	}
	return w
}
