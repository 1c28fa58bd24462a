// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/errutil"
)

// ResponseFunc receives the host's serialized answer to a bridge call. An
// empty string means the handler returned nothing.
type ResponseFunc func(response string)

// InboundHandler consumes messages pushed by the host.
type InboundHandler interface {
	HandleInbound(data []byte)
}

// Host is the set of bridge primitives the embedding runtime supplies.
//
// CallHandler must not invoke the InboundHandler before returning; pushed
// events are delivered from the host's own goroutine.
type Host interface {
	// Ready reports whether the host has finished installing its primitives.
	Ready() bool
	// CallHandler sends a serialized request. respond may be nil.
	CallHandler(request string, respond ResponseFunc) error
	// EndEncounter asks the host to finalize the current encounter.
	EndEncounter() error
	// Attach installs the handler the host pushes events to.
	Attach(h InboundHandler)
}

var errHostNotReady = errors.New("bridge host not ready")

// runBridge polls the host at a fixed interval until it reports ready, then
// attaches the client and flushes the queue.
func (c *Client) runBridge(ctx context.Context) {
	if c.host == nil {
		errutil.LogError(c.logger, "bridge mode without host", oops.Code(CodeNoHost).Errorf("no bridge host configured"))
		return
	}

	err := retry.Do(ctx, retry.NewConstant(c.pollInterval), func(_ context.Context) error {
		if !c.host.Ready() {
			return retry.RetryableError(errHostNotReady)
		}
		return nil
	})
	if err != nil {
		return
	}

	c.host.Attach(c)
	c.opened(nil)
	c.logInfo("bridge host ready")
}
