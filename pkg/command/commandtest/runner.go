// Package commandtest provides a scripted command.Runner for tests.
package commandtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/matzehuels/licensetower/pkg/command"
)

// Response is the scripted outcome for a command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error // returned as the start error when set
}

// Runner replays scripted responses keyed by command line.
//
// Keys are matched against [command.Cmd.String]. A key ending in "*" matches
// any command line with that prefix. Commands without a scripted response
// fail with exit code 127, mimicking a missing binary.
type Runner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []command.Cmd
}

// New creates an empty Runner.
func New() *Runner {
	return &Runner{responses: make(map[string]Response)}
}

// On scripts the response for a command line and returns r for chaining.
func (r *Runner) On(cmdline string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[cmdline] = resp
	return r
}

// Run implements command.Runner.
func (r *Runner) Run(_ context.Context, c command.Cmd) (*command.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)

	resp, ok := r.lookup(c.String())
	if !ok {
		return &command.Result{
			Stderr:   []byte(fmt.Sprintf("commandtest: no response for %q", c.String())),
			ExitCode: 127,
		}, nil
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &command.Result{
		Stdout:   []byte(resp.Stdout),
		Stderr:   []byte(resp.Stderr),
		ExitCode: resp.ExitCode,
	}, nil
}

func (r *Runner) lookup(line string) (Response, bool) {
	if resp, ok := r.responses[line]; ok {
		return resp, true
	}
	best, bestLen := Response{}, -1
	for k, resp := range r.responses {
		prefix, wild := strings.CutSuffix(k, "*")
		if wild && strings.HasPrefix(line, prefix) && len(prefix) > bestLen {
			best, bestLen = resp, len(prefix)
		}
	}
	return best, bestLen >= 0
}

// Calls returns the command lines run so far, in order.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.String()
	}
	return out
}

// Commands returns the full commands run so far, in order.
func (r *Runner) Commands() []command.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]command.Cmd(nil), r.calls...)
}
