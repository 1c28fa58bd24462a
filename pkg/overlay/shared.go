// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import "sync"

var (
	sharedOnce   sync.Once
	sharedClient *Client
)

// Shared returns a process-wide client, creating it with opts on first use.
// Options passed to later calls are ignored. Use New for independent clients.
func Shared(opts ...Option) *Client {
	sharedOnce.Do(func() {
		sharedClient = New(opts...)
	})
	return sharedClient
}
