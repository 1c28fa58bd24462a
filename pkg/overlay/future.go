// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import (
	"context"
	"sync"
)

// Future is the pending result of a correlated handler call.
type Future struct {
	done chan struct{}
	once sync.Once

	mu        sync.Mutex
	callbacks []func(any, error)
	result    any
	err       error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) settle(result any, err error) {
	f.once.Do(func() {
		f.mu.Lock()
		f.result = result
		f.err = err
		close(f.done)
		callbacks := f.callbacks
		f.callbacks = nil
		f.mu.Unlock()

		for _, fn := range callbacks {
			go fn(result, err)
		}
	})
}

// Then runs fn on a new goroutine once the call is answered, or right away
// if it already was. Listeners use Then instead of Wait: they run on the
// goroutine that reads answers from the host, so waiting there never returns.
func (f *Future) Then(fn func(result any, err error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		go fn(f.result, f.err)
	default:
		f.callbacks = append(f.callbacks, fn)
	}
}

// Done is closed once the call has been answered.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the parsed response. It must only be called after Done is closed.
func (f *Future) Result() (any, error) {
	<-f.done
	return f.result, f.err
}

// Wait blocks until the call is answered or ctx ends. Giving up on ctx does
// not withdraw the request; a late answer still settles the future.
// Wait must not be called from a Listener; see Then.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		//nolint:wrapcheck // caller's own context error
		return nil, ctx.Err()
	}
}
