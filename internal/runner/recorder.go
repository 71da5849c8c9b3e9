package runner

import (
	"context"
	"sync"
)

// Recorder is a Runner that records commands instead of running them.
// Fail, when set, decides which commands exit with a non-zero status.
type Recorder struct {
	Fail func(Cmd) bool
	// OnRun, when set, is called for every successful command, e.g. to
	// create files a real tool would produce.
	OnRun func(Cmd) error

	mu   sync.Mutex
	cmds []Cmd
}

var _ Runner = (*Recorder)(nil)

func (r *Recorder) Run(ctx context.Context, c Cmd) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cmds = append(r.cmds, c)
	r.mu.Unlock()

	if r.Fail != nil && r.Fail(c) {
		return &Result{ExitCode: 1}, &ProcessError{Cmd: c, ExitCode: 1}
	}
	if r.OnRun != nil {
		if err := r.OnRun(c); err != nil {
			return &Result{ExitCode: 1}, &ProcessError{Cmd: c, ExitCode: 1, Err: err}
		}
	}
	return &Result{}, nil
}

// Cmds returns the recorded commands in order.
func (r *Recorder) Cmds() []Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cmd(nil), r.cmds...)
}
