package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abiosoft/readline"
	"golang.org/x/term"

	"github.com/marcelocantos/crsh/internal/interp"
	"github.com/marcelocantos/crsh/internal/prompt"
)

// eofLine is what end of input means at the prompt.
const eofLine = "exit"

// REPL reads lines, runs them, and loops until exit.
type REPL struct {
	Runner       *Runner
	Prompt       *prompt.Prompter
	HistoryFile  string
	HistoryLimit int

	// In is read line by line when stdin is not a terminal.
	In io.Reader

	status       int
	promptFailed bool
}

// Run starts the loop and returns the exit status. With a terminal on
// stdin it uses readline; otherwise it reads In without prompting.
func (r *REPL) Run(ctx context.Context) int {
	if f, ok := r.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		code, err := r.runReadline(ctx, f)
		if err == nil {
			return code
		}
		r.Runner.Report(fmt.Errorf("readline: %w", err))
	}
	return r.runPlain(ctx)
}

func (r *REPL) runReadline(ctx context.Context, stdin *os.File) (int, error) {
	cfg := &readline.Config{
		Prompt:          r.prompt(),
		HistoryFile:     r.HistoryFile,
		HistoryLimit:    r.HistoryLimit,
		InterruptPrompt: "^C",
		Stdin:           readline.NewCancelableStdin(stdin),
		Stdout:          r.Runner.Stdout,
		Stderr:          r.Runner.Stderr,
	}
	if err := cfg.Init(); err != nil {
		return 0, err
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return 0, err
	}
	defer rl.Close()

	for {
		rl.SetPrompt(r.prompt())
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			// Ctrl-C at the prompt clears the line.
			continue
		case errors.Is(err, io.EOF):
			line = eofLine
		case err != nil:
			return 0, err
		}
		if code, done := r.handle(ctx, line); done {
			return code, nil
		}
	}
}

func (r *REPL) runPlain(ctx context.Context) int {
	sc := bufio.NewScanner(r.In)
	for sc.Scan() {
		if code, done := r.handle(ctx, sc.Text()); done {
			return code
		}
	}
	if err := sc.Err(); err != nil {
		r.Runner.Report(fmt.Errorf("read input: %w", err))
		return ExitFailure
	}
	code, _ := r.handle(ctx, eofLine)
	return code
}

// handle runs one line and reports whether the loop should stop.
func (r *REPL) handle(ctx context.Context, line string) (int, bool) {
	res, err := r.Runner.RunLine(ctx, line)
	r.Runner.Report(err)

	var exitErr *interp.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	if res != nil || err != nil {
		r.status = Status(res, err)
	}
	return r.status, false
}

func (r *REPL) prompt() string {
	if r.Prompt == nil {
		return "> "
	}
	out, err := r.Prompt.Render(prompt.CurrentVars(r.status))
	if err != nil && !r.promptFailed {
		r.promptFailed = true
		r.Runner.Report(err)
	}
	return out
}
