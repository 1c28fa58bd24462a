// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import "github.com/dsrkafuu/ffxiv-overlay-api/pkg/combat"

// Error codes attached to oops errors logged or returned by this package.
const (
	CodeMarshalFailed       = "MARSHAL_FAILED"
	CodeDeliveryFailed      = "DELIVERY_FAILED"
	CodeInvalidPayload      = combat.CodeInvalidPayload
	CodeInvalidListener     = "INVALID_LISTENER"
	CodeListenerPanic       = "LISTENER_PANIC"
	CodeInvalidPattern      = "INVALID_PATTERN"
	CodeUnsupportedMode     = "UNSUPPORTED_MODE"
	CodeResponseParseFailed = "RESPONSE_PARSE_FAILED"
	CodeNoHost              = "NO_HOST"
	CodeNotReady            = "NOT_READY"
)
