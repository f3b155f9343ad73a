package cli

import (
	"context"
	"sync"
)

// Response is a scripted reply served by a Fake runner.
type Response struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// Fake is a Runner for tests. Replies are matched against the start of the
// command line (binary plus leading arguments); every invocation is
// recorded in order.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Command
}

var _ Runner = (*Fake)(nil)

// NewFake returns an empty Fake runner. Unmatched commands succeed with no
// output.
func NewFake() *Fake {
	return &Fake{responses: make(map[string]Response)}
}

// Respond scripts a reply for any command line beginning with prefix.
func (f *Fake) Respond(prefix string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[prefix] = resp
}

// Run records the invocation and serves the longest matching scripted
// reply.
func (f *Fake) Run(_ context.Context, cmd Command) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)

	line := cmd.String()
	var best string
	for prefix := range f.responses {
		if len(prefix) > len(best) && len(prefix) <= len(line) && line[:len(prefix)] == prefix {
			best = prefix
		}
	}
	if best == "" {
		return &Result{}, nil
	}

	resp := f.responses[best]
	return &Result{Stdout: resp.Stdout, Stderr: resp.Stderr}, resp.Err
}

// Calls returns a copy of all recorded invocations.
func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallLines returns the recorded invocations as command lines.
func (f *Fake) CallLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}
