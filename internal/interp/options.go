package interp

import (
	"io"
	"log/slog"

	"github.com/spf13/afero"
)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdio sets the streams inherited by spawned commands. A nil stream
// is connected to the null device.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(in *Interpreter) {
		in.stdin = stdin
		in.stdout = stdout
		in.stderr = stderr
	}
}

// WithCapture collects everything a line writes to stdout and stderr into
// the Result instead of the inherited streams.
func WithCapture(capture bool) Option {
	return func(in *Interpreter) {
		in.capture = capture
	}
}

// WithFs sets the filesystem redirect targets are opened on.
func WithFs(fs afero.Fs) Option {
	return func(in *Interpreter) {
		in.fs = fs
	}
}

// WithExitFunc replaces os.Exit for the exit builtin.
func WithExitFunc(exit func(code int)) Option {
	return func(in *Interpreter) {
		in.exit = exit
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// WithBuiltins replaces the default builtin registry.
func WithBuiltins(reg *Registry) Option {
	return func(in *Interpreter) {
		in.builtins = reg
	}
}

// WithFlushOnExit makes the exit builtin write the line's captured output
// to stdout and stderr before calling the exit function, so a terminating
// exit does not lose it. Only meaningful with WithCapture(true).
func WithFlushOnExit(stdout, stderr io.Writer) Option {
	return func(in *Interpreter) {
		in.flushOut = stdout
		in.flushErr = stderr
	}
}
