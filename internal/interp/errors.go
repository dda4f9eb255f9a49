package interp

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes substituted when a pipeline fails recoverably.
const (
	ExitUsage     = 1
	ExitInterrupt = 130
)

var (
	errEmptyPipeline = errors.New("empty pipeline")
	errEmptyCommand  = errors.New("empty command")
)

// RuntimeError is fatal to the current command sequence.
type RuntimeError struct {
	Op  string
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// InterruptError means the foreground pipeline was killed by an interrupt.
type InterruptError struct {
	Signal os.Signal
}

func (e *InterruptError) Error() string {
	if e.Signal == nil {
		return "interrupt"
	}
	return fmt.Sprintf("interrupt: %v", e.Signal)
}

// ExitStatusError is a builtin's own usage or validation failure.
type ExitStatusError struct {
	Builtin string
	Msg     string
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Builtin, e.Msg)
}

// ExitError is returned when the exit builtin ran but the configured exit
// function returned instead of terminating the process.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}
