// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

// HasPendingCall reports whether a correlated call with seq is still waiting.
func (c *Client) HasPendingCall(seq int64) bool { return c.calls.has(seq) }

// QueueLen returns the number of requests waiting for the transport.
func (c *Client) QueueLen() int {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.queue.len()
}
