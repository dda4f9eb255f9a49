// Package interp executes parsed command trees as chains of operating-system
// processes.
package interp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/spf13/afero"

	"github.com/marcelocantos/crsh/internal/ast"
	"github.com/marcelocantos/crsh/internal/signals"
)

// Result is the outcome of executing one line. Stdout and Stderr are only
// populated when capturing.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Interpreter runs pipelines and command sequences. It drives one line at
// a time; Interrupt may be called concurrently.
type Interpreter struct {
	interrupts *signals.Interrupts
	builtins   *Registry
	fs         afero.Fs
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	capture    bool
	flushOut   io.Writer
	flushErr   io.Writer
	exit       func(code int)
	logger     *slog.Logger

	mu         sync.Mutex
	foreground []*exec.Cmd
}

// New returns an Interpreter that treats deliveries on interrupts as Ctrl-C.
// interrupts may be nil.
func New(interrupts *signals.Interrupts, opts ...Option) *Interpreter {
	in := &Interpreter{
		interrupts: interrupts,
		builtins:   DefaultRegistry(),
		fs:         afero.NewOsFs(),
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		exit:       os.Exit,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Builtins returns the interpreter's builtin registry.
func (in *Interpreter) Builtins() *Registry {
	return in.builtins
}

// Execute runs a *ast.Pipeline or *ast.Sequence. Builtin usage errors and
// interrupts are folded into the exit code (1 and 130); any other failure
// aborts the rest of the line and is returned alongside the output captured
// before it.
func (in *Interpreter) Execute(ctx context.Context, node ast.Node) (*Result, error) {
	if n := in.interrupts.Drain(); n > 0 {
		in.logger.Debug("dropped stale interrupts", "count", n)
	}

	var pipelines []*ast.Pipeline
	switch n := node.(type) {
	case *ast.Pipeline:
		if n == nil {
			return nil, &RuntimeError{Op: "execute", Err: errEmptyPipeline}
		}
		pipelines = []*ast.Pipeline{n}
	case *ast.Sequence:
		if n == nil {
			return nil, &RuntimeError{Op: "execute", Err: errors.New("nil sequence")}
		}
		pipelines = n.Pipelines
	default:
		return nil, &RuntimeError{Op: "execute", Err: fmt.Errorf("unexpected root node %T", node)}
	}

	s := in.newStreams()
	code, err := in.runSequence(ctx, s, pipelines)
	return s.result(code), err
}

func (in *Interpreter) runSequence(ctx context.Context, s *streams, pipelines []*ast.Pipeline) (int, error) {
	code := 0
	for _, p := range pipelines {
		c, err := in.runPipeline(ctx, s, p)

		var usageErr *ExitStatusError
		var intr *InterruptError
		switch {
		case err == nil:
			code = c
		case errors.As(err, &usageErr):
			in.logger.Debug("builtin failed", "err", err)
			code = ExitUsage
		case errors.As(err, &intr):
			in.logger.Debug("pipeline interrupted", "err", err)
			code = ExitInterrupt
		default:
			return 0, err
		}
	}
	return code, nil
}

func (in *Interpreter) runPipeline(ctx context.Context, s *streams, p *ast.Pipeline) (int, error) {
	if p == nil || len(p.Commands) == 0 {
		return 0, &RuntimeError{Op: "pipeline", Err: errEmptyPipeline}
	}
	in.logger.Debug("pipeline", "commands", p.String())

	var (
		spawned []*exec.Cmd
		opened  []*redirection
		prevOut *os.File
	)
	defer func() {
		if prevOut != nil {
			prevOut.Close()
		}
		for _, rd := range opened {
			rd.Close()
		}
	}()
	fail := func(err error) (int, error) {
		in.reap(spawned)
		return 0, err
	}

	last := len(p.Commands) - 1
	for i, c := range p.Commands {
		if c == nil || len(c.Words) == 0 {
			return fail(&RuntimeError{Op: "command", Err: errEmptyCommand})
		}

		var stdin io.Reader = in.stdin
		if prevOut != nil {
			stdin = prevOut
		}
		_, builtin := in.builtins.Lookup(c.Name())
		stdout := s.stdout
		var pipeR, pipeW *os.File
		// A builtin produces no stream, so the stage after it reads the
		// shell's own stdin.
		if i < last && !builtin {
			r, w, err := os.Pipe()
			if err != nil {
				return fail(&RuntimeError{Op: "pipe", Err: err})
			}
			pipeR, pipeW = r, w
			stdout = w
		}

		cmd, rd, err := in.startStage(s, c, stdin, stdout)
		if rd != nil {
			opened = append(opened, rd)
		}
		if cmd != nil {
			spawned = append(spawned, cmd)
		}

		// The child holds its own copies of both pipe ends now.
		if pipeW != nil {
			pipeW.Close()
		}
		if prevOut != nil {
			prevOut.Close()
		}
		prevOut = pipeR

		if err != nil {
			return fail(err)
		}
	}

	for i, cmd := range spawned {
		if err := in.wait(ctx, cmd); err != nil {
			in.reap(spawned[i+1:])
			return 0, err
		}
	}

	if len(spawned) == 0 {
		return 0, nil
	}
	return exitCode(spawned[len(spawned)-1].ProcessState), nil
}

// startStage applies c's redirects and either runs it as a builtin or
// spawns it. Builtins ignore stdin and stdout.
func (in *Interpreter) startStage(s *streams, c *ast.Command, stdin io.Reader, stdout io.Writer) (*exec.Cmd, *redirection, error) {
	rd, err := in.openRedirects(c)
	if err != nil {
		return nil, nil, err
	}
	if rd.stdin != nil {
		stdin = rd.stdin
	}
	if rd.stdout != nil {
		stdout = rd.stdout
	}

	if b, ok := in.builtins.Lookup(c.Name()); ok {
		in.logger.Debug("builtin", "name", c.Name(), "args", c.Args())
		env := &Env{Stderr: s.stderr, Exit: in.exit}
		if in.flushOut != nil || in.flushErr != nil {
			env.Exit = func(code int) {
				s.flush(in.flushOut, in.flushErr)
				in.exit(code)
			}
		}
		return nil, rd, b.Run(env, c.Args())
	}

	cmd := exec.Command(c.Name(), c.Args()...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = s.stderr
	// Non-file streams are copied by goroutines that would otherwise wait
	// for every process still holding the pipe, including ones the child
	// left in the background.
	cmd.WaitDelay = pipeDrainDelay
	if err := cmd.Start(); err != nil {
		return nil, rd, &RuntimeError{Op: "spawn " + c.Name(), Err: err}
	}
	in.track(cmd)
	in.logger.Debug("spawn", "name", c.Name(), "pid", cmd.Process.Pid)
	return cmd, rd, nil
}

// streams are the per-line destinations for final-stage stdout and every
// stage's stderr.
type streams struct {
	stdout io.Writer
	stderr io.Writer
	outBuf *bytes.Buffer
	errBuf *bytes.Buffer
}

func (in *Interpreter) newStreams() *streams {
	if !in.capture {
		return &streams{stdout: in.stdout, stderr: in.stderr}
	}
	s := &streams{outBuf: &bytes.Buffer{}, errBuf: &bytes.Buffer{}}
	s.stdout = newLockedWriter(s.outBuf)
	s.stderr = newLockedWriter(s.errBuf)
	return s
}

// flush moves everything captured so far to stdout and stderr. Either may
// be nil to leave that buffer alone.
func (s *streams) flush(stdout, stderr io.Writer) {
	if s.outBuf == nil {
		return
	}
	if stdout != nil {
		s.stdout.(*lockedWriter).drainTo(stdout)
	}
	if stderr != nil {
		s.stderr.(*lockedWriter).drainTo(stderr)
	}
}

func (s *streams) result(code int) *Result {
	r := &Result{ExitCode: code}
	if s.outBuf != nil {
		r.Stdout = s.outBuf.Bytes()
		r.Stderr = s.errBuf.Bytes()
	}
	return r
}
