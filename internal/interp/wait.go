package interp

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// pipeDrainDelay bounds how long Wait keeps copying a dead child's output.
const pipeDrainDelay = 200 * time.Millisecond

// wait blocks until cmd exits, an interrupt arrives, or ctx is done. On an
// interrupt every foreground child is killed and an *InterruptError is
// returned.
func (in *Interpreter) wait(ctx context.Context, cmd *exec.Cmd) error {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	return in.await(ctx, cmd, done)
}

func (in *Interpreter) await(ctx context.Context, cmd *exec.Cmd, done <-chan error) error {
	select {
	case err := <-done:
		in.untrack(cmd)
		return waitError(err)

	case sig := <-in.interrupts.C():
		// An exit that raced the interrupt wins; the interrupt is kept for
		// whatever is still running.
		select {
		case err := <-done:
			in.untrack(cmd)
			in.interrupts.Send(sig)
			return waitError(err)
		default:
		}
		in.logger.Debug("interrupt", "signal", sig, "pid", cmd.Process.Pid)
		in.Interrupt()
		<-done
		in.untrack(cmd)
		return &InterruptError{Signal: sig}

	case <-ctx.Done():
		in.logger.Debug("cancelled", "pid", cmd.Process.Pid, "err", ctx.Err())
		in.Interrupt()
		<-done
		in.untrack(cmd)
		return &RuntimeError{Op: "wait", Err: ctx.Err()}
	}
}

// waitError keeps only the failures of waiting itself; a non-zero exit is a
// result, not an error, and neither is output abandoned after WaitDelay.
func waitError(err error) error {
	var exitErr *exec.ExitError
	if err == nil || errors.As(err, &exitErr) || errors.Is(err, exec.ErrWaitDelay) {
		return nil
	}
	return &RuntimeError{Op: "wait", Err: err}
}

// reap kills and waits for children that will not be waited on normally.
func (in *Interpreter) reap(cmds []*exec.Cmd) {
	for _, cmd := range cmds {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		in.untrack(cmd)
	}
}

func (in *Interpreter) track(cmd *exec.Cmd) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.foreground = append(in.foreground, cmd)
}

func (in *Interpreter) untrack(cmd *exec.Cmd) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i, c := range in.foreground {
		if c == cmd {
			in.foreground = append(in.foreground[:i], in.foreground[i+1:]...)
			return
		}
	}
}

// Interrupt kills every foreground child. It is safe to call from any
// goroutine and returns the number of children signalled.
func (in *Interpreter) Interrupt() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, cmd := range in.foreground {
		_ = cmd.Process.Kill()
	}
	return len(in.foreground)
}

// exitCode maps a process state to a shell status; signal deaths become
// 128+signo.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
