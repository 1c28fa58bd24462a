// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import "sync"

// correlationTable matches WebSocket responses to calls by rseq. Entries
// without an answer stay until the client is discarded.
type correlationTable struct {
	mu      sync.Mutex
	next    int64
	pending map[int64]*Future
}

func newCorrelationTable() *correlationTable {
	return &correlationTable{pending: make(map[int64]*Future)}
}

// register assigns the next sequence number to f.
func (c *correlationTable) register(f *Future) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.next
	c.next++
	c.pending[seq] = f
	return seq
}

// take removes and returns the future waiting on seq.
func (c *correlationTable) take(seq int64) (*Future, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.pending[seq]
	if ok {
		delete(c.pending, seq)
	}
	return f, ok
}

func (c *correlationTable) has(seq int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[seq]
	return ok
}

func (c *correlationTable) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
