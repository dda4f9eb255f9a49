package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/crsh/internal/ast"
	"github.com/marcelocantos/crsh/internal/audit"
	"github.com/marcelocantos/crsh/internal/interp"
	"github.com/marcelocantos/crsh/internal/parser"
	"github.com/marcelocantos/crsh/internal/scanner"
	"github.com/marcelocantos/crsh/internal/signals"
)

type harness struct {
	runner *Runner
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	exits  []int
}

func newHarness(t *testing.T, logger *audit.Logger, opts ...interp.Option) *harness {
	t.Helper()
	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	opts = append([]interp.Option{
		interp.WithStdio(nil, nil, nil),
		interp.WithCapture(true),
		interp.WithExitFunc(func(code int) { h.exits = append(h.exits, code) }),
	}, opts...)
	in := interp.New(signals.New(), opts...)
	errColor := color.New(color.FgRed)
	errColor.DisableColor()

	h.runner = NewRunner(in, logger)
	h.runner.Stdout = h.stdout
	h.runner.Stderr = h.stderr
	h.runner.ErrColor = errColor
	return h
}

func TestRunLineCopiesCapturedOutput(t *testing.T) {
	h := newHarness(t, nil)
	res, err := h.runner.RunLine(context.Background(), "echo hello | tr a-z A-Z; sh -c 'echo warn >&2'")
	require.NoError(t, err)
	assert.Equal(t, 0, Status(res, err))
	assert.Equal(t, "HELLO\n", h.stdout.String())
	assert.Equal(t, "warn\n", h.stderr.String())
}

func TestRunLineBlank(t *testing.T) {
	h := newHarness(t, nil)
	for _, line := range []string{"", "   ", "\t\n"} {
		res, err := h.runner.RunLine(context.Background(), line)
		assert.NoError(t, err)
		assert.Nil(t, res)
	}
}

func TestRunLineErrors(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.runner.RunLine(ctx, "echo $HOME")
	var scanErr *scanner.ScanError
	assert.True(t, errors.As(err, &scanErr), "got %v", err)
	assert.Equal(t, ExitFailure, Status(nil, err))

	_, err = h.runner.RunLine(ctx, "ls |")
	var parseErr *parser.ParseError
	assert.True(t, errors.As(err, &parseErr), "got %v", err)

	_, err = h.runner.RunLine(ctx, "crsh-no-such-command-xyz")
	var rtErr *interp.RuntimeError
	assert.True(t, errors.As(err, &rtErr), "got %v", err)
	assert.Equal(t, ExitFailure, Status(nil, err))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, 0, Status(nil, nil))
	assert.Equal(t, 7, Status(&interp.Result{ExitCode: 7}, nil))
	assert.Equal(t, 3, Status(nil, &interp.ExitError{Code: 3}))
	assert.Equal(t, ExitFailure, Status(nil, errors.New("boom")))
}

func TestReport(t *testing.T) {
	h := newHarness(t, nil)

	h.runner.Report(nil)
	h.runner.Report(&interp.ExitError{Code: 1})
	assert.Empty(t, h.stderr.String())

	h.runner.Report(errors.New("boom"))
	assert.Equal(t, "crsh: boom\n", h.stderr.String())
}

func TestRunLineAudits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := audit.NewLogger(afero.NewOsFs(), path)
	require.NoError(t, err)
	h := newHarness(t, logger)
	ctx := context.Background()

	h.runner.RunLine(ctx, "echo  a   |  cat")
	h.runner.RunLine(ctx, "sh -c 'exit 5'")
	h.runner.RunLine(ctx, "")
	h.runner.RunLine(ctx, "ls |")
	h.runner.RunLine(ctx, "exit 2")

	require.NoError(t, audit.Verify(afero.NewOsFs(), path))
	entries, err := audit.Tail(afero.NewOsFs(), path, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "echo  a   |  cat", entries[0].Line, "line is logged as typed")
	assert.Equal(t, []string{"echo", "cat"}, entries[0].Commands)
	assert.Equal(t, 0, entries[0].ExitCode)
	assert.Equal(t, audit.OutcomeOK, entries[0].Outcome)

	assert.Equal(t, 5, entries[1].ExitCode)
	assert.Equal(t, audit.OutcomeFailed, entries[1].Outcome)

	assert.Equal(t, "ls |", entries[2].Line)
	assert.Equal(t, ExitFailure, entries[2].ExitCode)
	assert.Equal(t, audit.OutcomeError, entries[2].Outcome)
	assert.NotEmpty(t, entries[2].Error)

	assert.Equal(t, 2, entries[3].ExitCode)
	assert.Equal(t, audit.OutcomeExit, entries[3].Outcome)
}

func TestRunLineAuditsMixedQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := audit.NewLogger(afero.NewOsFs(), path)
	require.NoError(t, err)
	h := newHarness(t, logger)

	line := `echo "it's"   '"x"'`
	_, err = h.runner.RunLine(context.Background(), line)
	require.NoError(t, err)
	assert.Equal(t, "it's \"x\"\n", h.stdout.String())

	entries, err := audit.Tail(afero.NewOsFs(), path, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, line, entries[0].Line)

	node, err := parser.ParseLine(entries[0].Line)
	require.NoError(t, err, "logged line re-parses")
	assert.Equal(t, []string{"echo", "it's", `"x"`}, node.(*ast.Pipeline).Commands[0].Words)
}

func TestExitFlushesCapturedOutput(t *testing.T) {
	var terminal, terminalErr bytes.Buffer
	var atExit string
	var exits []int
	h := newHarness(t, nil,
		interp.WithFlushOnExit(&terminal, &terminalErr),
		interp.WithExitFunc(func(code int) {
			atExit = terminal.String()
			exits = append(exits, code)
		}),
	)

	_, err := h.runner.RunLine(context.Background(), "echo hi; exit 3")
	var exitErr *interp.ExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	assert.Equal(t, []int{3}, exits)
	assert.Equal(t, "hi\n", atExit, "output reaches stdout before the process exits")
	assert.Equal(t, "exit\n", terminalErr.String())
	assert.Empty(t, h.stdout.String(), "nothing is written twice")
	assert.Empty(t, h.stderr.String())
}

func TestREPLPlainInput(t *testing.T) {
	h := newHarness(t, nil)
	repl := &REPL{
		Runner: h.runner,
		In:     strings.NewReader("echo one\n\ncd a b\necho two\n"),
	}

	code := repl.Run(context.Background())
	assert.Equal(t, 0, code)
	assert.Equal(t, []int{0}, h.exits, "end of input runs exit")
	assert.Equal(t, "one\ntwo\n", h.stdout.String())
	assert.Contains(t, h.stderr.String(), "cd: ")
	assert.True(t, strings.HasSuffix(h.stderr.String(), "exit\n"))
}

func TestREPLExitBuiltin(t *testing.T) {
	h := newHarness(t, nil)
	repl := &REPL{
		Runner: h.runner,
		In:     strings.NewReader("echo one\nexit 3\necho unreachable\n"),
	}

	assert.Equal(t, 3, repl.Run(context.Background()))
	assert.Equal(t, []int{3}, h.exits)
	assert.Equal(t, "one\n", h.stdout.String())
}

func TestREPLContinuesAfterErrors(t *testing.T) {
	h := newHarness(t, nil)
	repl := &REPL{
		Runner: h.runner,
		In:     strings.NewReader("ls |\necho (x)\ncrsh-no-such-command-xyz\necho survived\n"),
	}

	repl.Run(context.Background())
	assert.Equal(t, "survived\n", h.stdout.String())
	assert.Equal(t, 3, strings.Count(h.stderr.String(), "crsh: "))
}

func TestREPLKeepsStatusAcrossBlankLines(t *testing.T) {
	h := newHarness(t, nil)
	repl := &REPL{Runner: h.runner}

	_, done := repl.handle(context.Background(), "sh -c 'exit 4'")
	require.False(t, done)
	code, _ := repl.handle(context.Background(), "   ")
	assert.Equal(t, 4, code)
	assert.Equal(t, "> ", repl.prompt())
}

func TestAuditSubcommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := audit.NewLogger(afero.NewOsFs(), path)
	require.NoError(t, err)
	h := newHarness(t, logger)
	h.runner.RunLine(context.Background(), "echo a")
	h.runner.RunLine(context.Background(), "echo b")

	var out bytes.Buffer
	assert.Equal(t, 0, AuditVerify(&out, path))
	assert.Contains(t, out.String(), "integrity verified")

	out.Reset()
	assert.Equal(t, 0, AuditTail(&out, path, 1))
	assert.Contains(t, out.String(), `"line": "echo b"`)
	assert.NotContains(t, out.String(), `"line": "echo a"`)

	out.Reset()
	assert.Equal(t, 1, AuditTail(&out, filepath.Join(t.TempDir(), "missing"), 5))
}
