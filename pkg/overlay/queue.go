// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

// pendingMessage is a request waiting for the transport. respond is only
// kept in bridge mode.
type pendingMessage struct {
	req     Request
	respond ResponseFunc
}

// pendingQueue is a FIFO of requests sent before the transport was ready.
// Callers hold Client.sendMu.
type pendingQueue struct {
	items []pendingMessage
}

func (q *pendingQueue) push(m pendingMessage) {
	q.items = append(q.items, m)
}

// drain empties the queue and returns its contents in send order.
func (q *pendingQueue) drain() []pendingMessage {
	items := q.items
	q.items = nil
	return items
}

func (q *pendingQueue) len() int {
	return len(q.items)
}
