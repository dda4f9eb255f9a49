package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/marcelocantos/crsh/internal/ast"
	"github.com/marcelocantos/crsh/internal/audit"
	"github.com/marcelocantos/crsh/internal/interp"
	"github.com/marcelocantos/crsh/internal/parser"
	"github.com/marcelocantos/crsh/internal/scanner"
)

// ExitFailure is the status used for scan, parse and runtime errors.
const ExitFailure = 2

// Runner takes one line of text through scanning, parsing and execution.
type Runner struct {
	Interp *interp.Interpreter
	Audit  *audit.Logger // nil disables auditing

	// Stdout and Stderr receive captured output and error reports.
	Stdout io.Writer
	Stderr io.Writer

	ErrColor *color.Color
	Logger   *slog.Logger
}

// NewRunner returns a Runner writing to the process's standard streams.
func NewRunner(in *interp.Interpreter, logger *audit.Logger) *Runner {
	return &Runner{
		Interp:   in,
		Audit:    logger,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		ErrColor: color.New(color.FgRed),
		Logger:   slog.New(slog.DiscardHandler),
	}
}

// RunLine executes line. A blank line returns a nil Result and no error.
// Output captured by the interpreter is copied to r.Stdout and r.Stderr.
func (r *Runner) RunLine(ctx context.Context, line string) (*interp.Result, error) {
	cwd, _ := os.Getwd()
	start := time.Now()

	tokens, err := scanner.Scan(line)
	if err != nil {
		r.logAudit(line, nil, nil, err, time.Since(start), cwd)
		return nil, err
	}
	if parser.IsEmpty(tokens) {
		return nil, nil
	}
	node, err := parser.Parse(tokens)
	if err != nil {
		r.logAudit(line, nil, nil, err, time.Since(start), cwd)
		return nil, err
	}
	r.Logger.Debug("parsed", "line", line, "ast", ast.Dump(node))

	res, err := r.Interp.Execute(ctx, node)
	if res != nil {
		r.Stdout.Write(res.Stdout)
		r.Stderr.Write(res.Stderr)
	}
	r.logAudit(line, commandNames(node), res, err, time.Since(start), cwd)
	return res, err
}

// Status maps the outcome of RunLine to a process exit status. Interpreter
// results and declined exits carry their own code; everything else is 2.
func Status(res *interp.Result, err error) int {
	if err == nil {
		if res == nil {
			return 0
		}
		return res.ExitCode
	}
	var exitErr *interp.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Report prints err with the crsh: prefix. A declined exit is not reported
// since the builtin already printed "exit".
func (r *Runner) Report(err error) {
	var exitErr *interp.ExitError
	if err == nil || errors.As(err, &exitErr) {
		return
	}
	r.ErrColor.Fprintf(r.Stderr, "crsh: %v\n", err)
}

// logAudit records line exactly as typed.
func (r *Runner) logAudit(line string, commands []string, res *interp.Result, err error, duration time.Duration, cwd string) {
	if r.Audit == nil {
		return
	}
	rec := audit.Record{
		Line:     line,
		Commands: commands,
		Outcome:  outcome(res, err),
		ExitCode: Status(res, err),
		Err:      err,
		Duration: duration,
		Cwd:      cwd,
	}
	// Auditing is best-effort and never fails the line.
	if lerr := r.Audit.Log(rec); lerr != nil {
		r.Logger.Debug("audit log failed", "err", lerr)
	}
}

func outcome(res *interp.Result, err error) audit.Outcome {
	var exitErr *interp.ExitError
	switch {
	case errors.As(err, &exitErr):
		return audit.OutcomeExit
	case err != nil:
		return audit.OutcomeError
	case res == nil || res.ExitCode == 0:
		return audit.OutcomeOK
	case res.ExitCode == interp.ExitInterrupt:
		return audit.OutcomeInterrupted
	default:
		return audit.OutcomeFailed
	}
}

func commandNames(node ast.Node) []string {
	var pipelines []*ast.Pipeline
	switch n := node.(type) {
	case *ast.Pipeline:
		pipelines = []*ast.Pipeline{n}
	case *ast.Sequence:
		pipelines = n.Pipelines
	}
	var names []string
	for _, p := range pipelines {
		for _, c := range p.Commands {
			names = append(names, c.Name())
		}
	}
	return names
}
