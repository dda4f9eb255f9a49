// Package signals provides the interrupt notification handle injected into
// the interpreter.
package signals

import (
	"os"
	"os/signal"
)

// Interrupts is a single-slot notification channel. The OS handler only
// records that an interrupt arrived; the interpreter decides what to kill.
// A nil *Interrupts never delivers.
type Interrupts struct {
	ch   chan os.Signal
	stop func()
}

// Notify catches sigs (SIGINT when none are given) for the lifetime of the
// returned handle.
func Notify(sigs ...os.Signal) *Interrupts {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	return &Interrupts{
		ch:   ch,
		stop: func() { signal.Stop(ch) },
	}
}

// New returns a handle with no OS handler attached. Deliver with Send.
func New() *Interrupts {
	return &Interrupts{ch: make(chan os.Signal, 1), stop: func() {}}
}

// C returns the receive side of the channel.
func (i *Interrupts) C() <-chan os.Signal {
	if i == nil {
		return nil
	}
	return i.ch
}

// Send delivers sig without blocking. It reports false when an interrupt is
// already pending.
func (i *Interrupts) Send(sig os.Signal) bool {
	if i == nil {
		return false
	}
	select {
	case i.ch <- sig:
		return true
	default:
		return false
	}
}

// Drain discards pending interrupts and returns how many were dropped.
func (i *Interrupts) Drain() int {
	if i == nil {
		return 0
	}
	n := 0
	for {
		select {
		case <-i.ch:
			n++
		default:
			return n
		}
	}
}

// Stop detaches the OS handler. Pending interrupts stay readable.
func (i *Interrupts) Stop() {
	if i == nil {
		return
	}
	i.stop()
}
