package api

import (
	"context"
	"sync/atomic"
)

// Outcome is how a write settled.
type Outcome int32

const (
	// OutcomePending means the write has not settled yet.
	OutcomePending Outcome = iota

	// OutcomeSuccess means the success descriptors were applied.
	OutcomeSuccess

	// OutcomeFailure means the failure descriptors were applied.
	OutcomeFailure
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Pending tracks one in-flight write.
type Pending struct {
	id      string
	command Command
	done    chan struct{}
	outcome atomic.Int32
}

func newPending(id string, command Command) *Pending {
	return &Pending{id: id, command: command, done: make(chan struct{})}
}

// RequestID returns the id sent with the request.
func (p *Pending) RequestID() string {
	return p.id
}

// Command returns the command name.
func (p *Pending) Command() Command {
	return p.command
}

// Done is closed once the settlement descriptors have been applied.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Outcome returns the current outcome.
func (p *Pending) Outcome() Outcome {
	return Outcome(p.outcome.Load())
}

// Wait blocks until the write settles or ctx ends.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.Outcome(), nil
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

func (p *Pending) finish(o Outcome) {
	p.outcome.Store(int32(o))
	close(p.done)
}
