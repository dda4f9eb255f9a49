// Package prompt renders the interactive prompt from a template or a
// Starlark script.
package prompt

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Vars are the values a prompt may show.
type Vars struct {
	User   string
	Host   string
	Cwd    string
	Home   string
	Root   bool
	Status int
}

// CurrentVars reads the prompt variables from the running process.
func CurrentVars(status int) Vars {
	v := Vars{Status: status, Root: os.Geteuid() == 0}
	if u, err := user.Current(); err == nil {
		v.User = u.Username
	}
	v.Host, _ = os.Hostname()
	v.Cwd, _ = os.Getwd()
	v.Home, _ = os.UserHomeDir()
	return v
}

// Expand substitutes \u, \h, \w and \$ in tmpl. \w abbreviates the home
// directory to ~.
func Expand(tmpl string, v Vars) string {
	cwd := v.Cwd
	if v.Home != "" && (cwd == v.Home || strings.HasPrefix(cwd, v.Home+"/")) {
		cwd = "~" + strings.TrimPrefix(cwd, v.Home)
	}
	dollar := "$"
	if v.Root {
		dollar = "#"
	}
	return strings.NewReplacer(
		`\u`, v.User,
		`\h`, v.Host,
		`\w`, cwd,
		`\$`, dollar,
	).Replace(tmpl)
}

// Script is a loaded Starlark prompt program exposing prompt(cwd, status).
type Script struct {
	path string
	fn   starlark.Callable
}

// LoadScript executes the Starlark file at path and looks up its prompt
// function. user and host are predeclared as strings.
func LoadScript(path string) (*Script, error) {
	v := CurrentVars(0)
	predeclared := starlark.StringDict{
		"user": starlark.String(v.User),
		"host": starlark.String(v.Host),
	}
	thread := &starlark.Thread{Name: "prompt-load"}
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, path, nil, predeclared)
	if err != nil {
		return nil, fmt.Errorf("load prompt script: %w", err)
	}
	fn, ok := globals["prompt"].(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("load prompt script %s: no prompt function defined", path)
	}
	return &Script{path: path, fn: fn}, nil
}

// Render calls prompt(cwd, status); it must return a string.
func (s *Script) Render(v Vars) (string, error) {
	thread := &starlark.Thread{Name: "prompt"}
	out, err := starlark.Call(thread, s.fn, starlark.Tuple{starlark.String(v.Cwd), starlark.MakeInt(v.Status)}, nil)
	if err != nil {
		return "", fmt.Errorf("prompt script %s: %w", s.path, err)
	}
	str, ok := starlark.AsString(out)
	if !ok {
		return "", fmt.Errorf("prompt script %s: prompt returned %s, want string", s.path, out.Type())
	}
	return str, nil
}

// Prompter chooses between a script and a template.
type Prompter struct {
	template string
	script   *Script
}

// New returns a Prompter. script may be nil.
func New(template string, script *Script) *Prompter {
	return &Prompter{template: template, script: script}
}

// Render produces the prompt for v. A failing script falls back to the
// template and reports the error.
func (p *Prompter) Render(v Vars) (string, error) {
	if p.script != nil {
		out, err := p.script.Render(v)
		if err == nil {
			return out, nil
		}
		return Expand(p.template, v), err
	}
	return Expand(p.template, v), nil
}
