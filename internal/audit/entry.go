package audit

import "time"

// Outcome classifies how a line ended.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeFailed      Outcome = "failed" // last process exited non-zero
	OutcomeInterrupted Outcome = "interrupted"
	OutcomeExit        Outcome = "exit"  // the exit builtin ran
	OutcomeError       Outcome = "error" // scan, parse or runtime error
)

// Record is what the shell knows about one line once it has run.
type Record struct {
	Line     string // as typed
	Commands []string
	Outcome  Outcome
	ExitCode int
	Err      error
	Duration time.Duration
	Cwd      string // working directory before the line ran
}

// Entry is one line of the log. Hash covers every other field.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Line     string    `json:"line"`
	Commands []string  `json:"commands"`
	Outcome  Outcome   `json:"outcome"`
	ExitCode int       `json:"exit_code"`
	Error    string    `json:"error,omitempty"`
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"`
	Hash     string    `json:"hash"`
}

func newEntry(r Record, now time.Time) Entry {
	e := Entry{
		Time:     now.UTC(),
		Line:     r.Line,
		Commands: r.Commands,
		Outcome:  r.Outcome,
		ExitCode: r.ExitCode,
		Duration: float64(r.Duration.Microseconds()) / 1000.0,
		Cwd:      r.Cwd,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return e
}
