// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import (
	"crypto/rand"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Listener receives events of the type it was registered for.
//
// Listeners run on the goroutine that reads from the host, one at a time.
// A listener must not block on Future.Wait or Future.Result: the answer it
// waits for is read by that same goroutine. Use Future.Then instead.
type Listener func(Event)

// ListenerID identifies one listener registration.
type ListenerID ulid.ULID

// String returns the ULID text form.
func (id ListenerID) String() string { return ulid.ULID(id).String() }

// IsZero reports whether id is the zero ID returned for rejected registrations.
func (id ListenerID) IsZero() bool { return ulid.ULID(id).IsZero() }

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

func newListenerID() ListenerID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ListenerID(ulid.MustNew(ulid.Timestamp(time.Now()), entropy))
}

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// registry holds listeners per event type in registration order. Slices are
// never mutated in place, so a snapshot taken for dispatch stays valid while
// listeners are added or removed.
type registry struct {
	mu         sync.RWMutex
	listeners  map[EventType][]listenerEntry
	subscribed map[EventType]bool
}

func newRegistry() *registry {
	return &registry{
		listeners:  make(map[EventType][]listenerEntry),
		subscribed: make(map[EventType]bool),
	}
}

// add appends fn and reports whether this is the first registration ever
// seen for t.
func (r *registry) add(t EventType, fn Listener) (ListenerID, bool) {
	id := newListenerID()

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.listeners[t]
	next := make([]listenerEntry, len(cur), len(cur)+1)
	copy(next, cur)
	r.listeners[t] = append(next, listenerEntry{id: id, fn: fn})

	first := !r.subscribed[t]
	r.subscribed[t] = true
	return id, first
}

func (r *registry) remove(t EventType, id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.listeners[t]
	idx := slices.IndexFunc(cur, func(e listenerEntry) bool { return e.id == id })
	if idx < 0 {
		return false
	}
	r.listeners[t] = slices.Concat(cur[:idx], cur[idx+1:])
	return true
}

func (r *registry) removeAll(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.listeners[t])
	r.listeners[t] = nil
	return n
}

func (r *registry) snapshot(t EventType) []listenerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listeners[t]
}

func (r *registry) ids(t EventType) []ListenerID {
	entries := r.snapshot(t)
	ids := make([]ListenerID, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

// active returns the event types that currently have listeners, in
// AllEventTypes order followed by any unknown types sorted by name.
func (r *registry) active() []EventType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var known, unknown []EventType
	for t, entries := range r.listeners {
		if len(entries) == 0 {
			continue
		}
		if t.Known() {
			known = append(known, t)
		} else {
			unknown = append(unknown, t)
		}
	}
	slices.SortFunc(known, func(a, b EventType) int {
		return slices.Index(AllEventTypes, a) - slices.Index(AllEventTypes, b)
	})
	slices.Sort(unknown)
	return append(known, unknown...)
}
