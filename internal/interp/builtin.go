package interp

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
)

// Builtin is a command run inside the interpreter's own process.
type Builtin interface {
	// Name is the command word that selects the builtin.
	Name() string

	// Description is a one-line summary for help output.
	Description() string

	// Run executes the builtin with its argument words. Usage errors are
	// reported as *ExitStatusError.
	Run(env *Env, args []string) error
}

// Env is the part of the interpreter a builtin may touch.
type Env struct {
	Stderr io.Writer
	Exit   func(code int)
}

// Registry maps builtin names to implementations.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// DefaultRegistry returns a registry holding cd and exit.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Cd{})
	r.Register(Exit{})
	return r
}

// Register adds b, replacing any builtin with the same name.
func (r *Registry) Register(b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[b.Name()] = b
}

// Lookup returns the builtin called name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	return b, ok
}

// All returns every builtin sorted by name.
func (r *Registry) All() []Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Builtin, 0, len(r.builtins))
	for _, b := range r.builtins {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name() < all[j].Name()
	})
	return all
}

// usage prints a builtin's complaint and returns it as an ExitStatusError.
func usage(env *Env, name, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if env.Stderr != nil {
		fmt.Fprintf(env.Stderr, "%s: %s\n", name, msg)
	}
	return &ExitStatusError{Builtin: name, Msg: msg}
}

// Cd changes the process working directory.
type Cd struct{}

func (Cd) Name() string        { return "cd" }
func (Cd) Description() string { return "change the working directory" }

func (c Cd) Run(env *Env, args []string) error {
	if len(args) != 1 {
		return usage(env, c.Name(), "expected exactly one directory, got %d arguments", len(args))
	}
	if err := os.Chdir(args[0]); err != nil {
		return usage(env, c.Name(), "%v", err)
	}
	return nil
}

// Exit terminates the interpreter process.
type Exit struct{}

func (Exit) Name() string        { return "exit" }
func (Exit) Description() string { return "exit the shell with an optional status code" }

func (e Exit) Run(env *Env, args []string) error {
	if len(args) > 1 {
		return usage(env, e.Name(), "too many arguments")
	}
	code := 0
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return usage(env, e.Name(), "%s: numeric argument required", args[0])
		}
		code = n
	}
	if env.Stderr != nil {
		fmt.Fprintln(env.Stderr, "exit")
	}
	env.Exit(code)
	return &ExitError{Code: code}
}
