// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Default timings.
const (
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultReconnectDelay = 5 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithPageURL sets the hosting page URL the transport mode is read from.
func WithPageURL(pageURL string) Option {
	return func(c *Client) {
		c.pageURL = pageURL
	}
}

// WithEndpoint forces WebSocket mode against endpoint, ignoring the page URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.forcedEndpoint = endpoint
	}
}

// WithHost supplies the bridge primitives used in bridge mode.
func WithHost(h Host) Option {
	return func(c *Client) {
		c.host = h
	}
}

// WithDialer sets the WebSocket dialer and handshake headers.
func WithDialer(d *websocket.Dialer, header http.Header) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
		c.header = header
	}
}

// WithPollInterval sets how often bridge readiness is polled. Non-positive
// values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithReconnectDelay sets the fixed delay before redialing a closed socket.
// Non-positive values are ignored.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

// WithExtendData toggles attaching a combat.Snapshot to CombatData events.
// Enabled by default.
func WithExtendData(enabled bool) Option {
	return func(c *Client) {
		c.extendData = enabled
	}
}

// WithSeparateLimitBreak moves the limit break record out of the combatant
// list into Snapshot.LimitBreak.
func WithSeparateLimitBreak(enabled bool) Option {
	return func(c *Client) {
		c.separateLB = enabled
	}
}

// WithSilentMode suppresses informational logs. Errors are still logged.
func WithSilentMode(enabled bool) Option {
	return func(c *Client) {
		c.silent = enabled
	}
}

// WithLogger sets the logger. Defaults to slog.Default() with component=overlay.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records client activity into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}
