// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/errutil"
)

var errSocketClosed = errors.New("websocket closed")

// runWebSocket dials the endpoint and redials after a fixed delay whenever
// the connection fails or closes, until ctx ends.
func (c *Client) runWebSocket(ctx context.Context) {
	attempt := 0
	//nolint:errcheck // only returns once ctx is done
	retry.Do(ctx, retry.NewConstant(c.reconnectDelay), func(ctx context.Context) error {
		if attempt > 0 {
			c.metrics.reconnect()
		}
		attempt++

		conn, _, err := c.dialer.DialContext(ctx, c.endpoint, c.header)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errutil.LogError(c.logger, "websocket dial failed",
				oops.Code(CodeDeliveryFailed).With("endpoint", c.endpoint).Wrap(err))
			return retry.RetryableError(err)
		}

		c.opened(conn)
		c.logInfo("websocket connected", "endpoint", c.endpoint)

		c.readLoop(ctx, conn)

		c.closed()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logInfo("websocket closed, trying to reconnect", "endpoint", c.endpoint, "delay", c.reconnectDelay)
		return retry.RetryableError(errSocketClosed)
	})
}

// readLoop feeds each received message to HandleInbound in arrival order
// until the connection fails or ctx ends.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	stop := context.AfterFunc(ctx, func() {
		//nolint:errcheck // unblocks ReadMessage on shutdown
		conn.Close()
	})
	defer stop()
	//nolint:errcheck // connection is discarded after the loop
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				errutil.LogWarn(c.logger, "websocket read failed",
					oops.Code(CodeDeliveryFailed).With("endpoint", c.endpoint).Wrap(err))
			}
			return
		}
		c.HandleInbound(data)
	}
}
