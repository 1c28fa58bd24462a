// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import (
	"net/url"
	"strings"
)

// Mode is the transport a Client uses to reach the host.
type Mode int

// Transport modes.
const (
	// ModeBridge calls the host through in-page primitives.
	ModeBridge Mode = iota
	// ModeWebSocket connects to the host's overlay WebSocket server.
	ModeWebSocket
)

func (m Mode) String() string {
	switch m {
	case ModeBridge:
		return "bridge"
	case ModeWebSocket:
		return "websocket"
	default:
		return "unknown"
	}
}

// Query keys that carry the WebSocket endpoint, in lookup order.
var endpointQueryKeys = []string{"OVERLAY_WS", "HOST_PORT"}

// SelectMode picks the transport from the hosting page URL. A non-empty
// OVERLAY_WS (or, failing that, HOST_PORT) query value selects WebSocket mode
// with that value as the endpoint; anything else selects bridge mode.
func SelectMode(pageURL string) (Mode, string) {
	if pageURL == "" {
		return ModeBridge, ""
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return ModeBridge, ""
	}
	q := u.Query()
	for _, key := range endpointQueryKeys {
		if v := q.Get(key); v != "" {
			return ModeWebSocket, NormalizeEndpoint(v)
		}
	}
	return ModeBridge, ""
}

// NormalizeEndpoint appends the default "ws" path segment unless the endpoint
// already names it.
func NormalizeEndpoint(endpoint string) string {
	if strings.Contains(endpoint, "/ws") {
		return endpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return endpoint + "ws"
}
