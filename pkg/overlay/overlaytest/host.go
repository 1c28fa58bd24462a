// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

// Package overlaytest provides test doubles for the overlay host.
package overlaytest

import (
	"sync"

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay"
)

// Call is one request received by a FakeHost.
type Call struct {
	Request string
	Respond overlay.ResponseFunc
}

// FakeHost is an in-memory bridge host. It starts not ready.
type FakeHost struct {
	mu            sync.Mutex
	ready         bool
	calls         []Call
	handler       overlay.InboundHandler
	endEncounters int
	responder     func(request string) string
	callErr       error
}

// NewFakeHost creates a host that is not ready yet.
func NewFakeHost() *FakeHost {
	return &FakeHost{}
}

// SetReady flips the readiness flag the client polls.
func (h *FakeHost) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// Ready implements overlay.Host.
func (h *FakeHost) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready
}

// RespondWith makes CallHandler answer every request with fn(request).
func (h *FakeHost) RespondWith(fn func(request string) string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responder = fn
}

// FailCalls makes CallHandler return err. Pass nil to stop failing.
func (h *FakeHost) FailCalls(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callErr = err
}

// CallHandler implements overlay.Host. The request is recorded even when
// the host is set to fail.
func (h *FakeHost) CallHandler(request string, respond overlay.ResponseFunc) error {
	h.mu.Lock()
	h.calls = append(h.calls, Call{Request: request, Respond: respond})
	responder, err := h.responder, h.callErr
	h.mu.Unlock()

	if err != nil {
		return err
	}
	if responder != nil && respond != nil {
		respond(responder(request))
	}
	return nil
}

// EndEncounter implements overlay.Host.
func (h *FakeHost) EndEncounter() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.endEncounters++
	return nil
}

// Attach implements overlay.Host.
func (h *FakeHost) Attach(handler overlay.InboundHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// Attached reports whether a client has installed its inbound handler.
func (h *FakeHost) Attached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handler != nil
}

// Push delivers data to the attached client. It reports false when no
// client is attached.
func (h *FakeHost) Push(data []byte) bool {
	h.mu.Lock()
	handler := h.handler
	h.mu.Unlock()

	if handler == nil {
		return false
	}
	handler.HandleInbound(data)
	return true
}

// Calls returns the recorded calls in arrival order.
func (h *FakeHost) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Call, len(h.calls))
	copy(out, h.calls)
	return out
}

// Requests returns the recorded request strings in arrival order.
func (h *FakeHost) Requests() []string {
	calls := h.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Request
	}
	return out
}

// EndEncounters returns how many times EndEncounter was called.
func (h *FakeHost) EndEncounters() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.endEncounters
}
