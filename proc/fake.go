package proc

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Fake is a scripted Runner for tests. Handlers are registered per command
// name; every call is recorded so tests can assert on arguments, environment
// and working directory.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]func(Command) (Result, error)
	calls    []Command
}

// NewFake returns an empty Fake. Running an unscripted command fails.
func NewFake() *Fake {
	return &Fake{handlers: make(map[string]func(Command) (Result, error))}
}

// Stub registers a handler for every invocation of the named command.
func (f *Fake) Stub(name string, fn func(Command) (Result, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = fn
}

// StubResult registers a fixed result for the named command.
func (f *Fake) StubResult(name string, res Result) {
	f.Stub(name, func(Command) (Result, error) {
		return res, nil
	})
}

// Run dispatches to the registered handler and records the call.
func (f *Fake) Run(_ context.Context, cmd Command) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	fn, ok := f.handlers[cmd.Name]
	f.mu.Unlock()

	if !ok {
		return Result{}, errors.Errorf("fake runner: no handler for command %q", cmd.Name)
	}
	return fn(cmd)
}

// Calls returns a copy of every command run so far, in order.
func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded invocations of the named command.
func (f *Fake) CallsTo(name string) []Command {
	var out []Command
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
