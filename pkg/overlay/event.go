// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"github.com/tidwall/gjson"

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/combat"
)

// EventType names an event pushed by the host.
type EventType string

// Event types pushed by the host.
const (
	EventCombatData          EventType = "CombatData"
	EventLogLine             EventType = "LogLine"
	EventImportedLogLines    EventType = "ImportedLogLines"
	EventChangeZone          EventType = "ChangeZone"
	EventChangePrimaryPlayer EventType = "ChangePrimaryPlayer"
	EventOnlineStatusChanged EventType = "OnlineStatusChanged"
	EventPartyChanged        EventType = "PartyChanged"
	EventBroadcastMessage    EventType = "BroadcastMessage"
)

// AllEventTypes lists every event type the host is known to push.
var AllEventTypes = []EventType{
	EventCombatData,
	EventLogLine,
	EventImportedLogLines,
	EventChangeZone,
	EventChangePrimaryPlayer,
	EventOnlineStatusChanged,
	EventPartyChanged,
	EventBroadcastMessage,
}

// Known reports whether t is one of AllEventTypes.
func (t EventType) Known() bool {
	return slices.Contains(AllEventTypes, t)
}

// MatchEventTypes expands glob patterns ("Change*", "*Log*") against
// AllEventTypes. The result is deduplicated and keeps AllEventTypes order.
func MatchEventTypes(patterns ...string) ([]EventType, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, oops.Code(CodeInvalidPattern).With("pattern", p).Wrap(err)
		}
		globs = append(globs, g)
	}

	var out []EventType
	for _, t := range AllEventTypes {
		for _, g := range globs {
			if g.Match(string(t)) {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

// HandlerType names a host handler a request calls.
type HandlerType string

// Handlers exposed by OverlayPlugin.
const (
	HandlerSubscribe     HandlerType = "subscribe"
	HandlerGetLanguage   HandlerType = "getLanguage"
	HandlerGetCombatants HandlerType = "getCombatants"
	HandlerSaveData      HandlerType = "saveData"
	HandlerLoadData      HandlerType = "loadData"
	HandlerSay           HandlerType = "say"
	HandlerBroadcast     HandlerType = "broadcast"
)

// Request is an outbound message: {"call": ..., "rseq"?: ..., ...Fields}.
type Request struct {
	Call   HandlerType
	RSeq   *int64
	Fields map[string]any
}

// SubscribeRequest builds the subscribe request for events.
func SubscribeRequest(events ...EventType) Request {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = string(e)
	}
	return Request{Call: HandlerSubscribe, Fields: map[string]any{"events": names}}
}

// MarshalJSON flattens Fields next to call and rseq. Fields cannot override them.
func (r Request) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	maps.Copy(out, r.Fields)
	out["call"] = r.Call
	if r.RSeq != nil {
		out["rseq"] = *r.RSeq
	} else {
		delete(out, "rseq")
	}
	//nolint:wrapcheck // marshal errors are wrapped by the sender
	return json.Marshal(out)
}

// UnmarshalJSON splits call and rseq out of the envelope into Request.
func (r *Request) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return oops.Code(CodeInvalidPayload).Wrap(err)
	}

	call, _ := fields["call"].(string)
	r.Call = HandlerType(call)
	r.RSeq = nil
	if n, ok := fields["rseq"].(json.Number); ok {
		if v, err := n.Int64(); err == nil {
			r.RSeq = &v
		}
	}
	delete(fields, "call")
	delete(fields, "rseq")
	r.Fields = fields
	return nil
}

// Event is one message pushed by the host.
type Event struct {
	Type EventType
	// Raw is the message exactly as received.
	Raw json.RawMessage
	// Combat is set for CombatData events when data extension is enabled.
	Combat *combat.Snapshot
}

// Decode unmarshals the raw payload into v, typically one of the payload structs.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Raw, v); err != nil {
		return oops.Code(CodeInvalidPayload).With("type", e.Type).Wrap(err)
	}
	return nil
}

// Get reads a field of the raw payload by gjson path ("Encounter.encdps").
func (e Event) Get(path string) gjson.Result {
	return gjson.GetBytes(e.Raw, path)
}
