package page

import (
	"context"
	"sync/atomic"
)

// Action is a handle on one search or identification. Actions never cancel
// each other; a newer action only makes an older one's results stale.
type Action struct {
	ctx        context.Context
	cancel     context.CancelFunc
	seq        uint64
	done       chan struct{}
	err        error
	skipped    bool
	superseded atomic.Bool
}

func newAction(ctx context.Context, seq uint64) *Action {
	ctx, cancel := context.WithCancel(ctx)
	return &Action{
		ctx:    ctx,
		cancel: cancel,
		seq:    seq,
		done:   make(chan struct{}),
	}
}

// skippedAction is returned for input that does not start a request.
func skippedAction() *Action {
	a := &Action{
		ctx:     context.Background(),
		cancel:  func() {},
		skipped: true,
		done:    make(chan struct{}),
	}
	close(a.done)
	return a
}

func (a *Action) finish() {
	a.cancel()
	close(a.done)
}

// Done is closed once every task of the action has completed.
func (a *Action) Done() <-chan struct{} { return a.done }

// Wait blocks until the action completes and returns its error.
func (a *Action) Wait() error {
	<-a.done
	return a.err
}

// Err returns the request error once the action is done, or nil.
func (a *Action) Err() error {
	select {
	case <-a.done:
		return a.err
	default:
		return nil
	}
}

// Cancel abandons the action's request. Nothing is rendered for it.
func (a *Action) Cancel() { a.cancel() }

// Skipped reports whether the input was ignored without a request.
func (a *Action) Skipped() bool { return a.skipped }

// Superseded reports whether a newer action started before this one's
// response arrived, so the response was dropped.
func (a *Action) Superseded() bool { return a.superseded.Load() }
