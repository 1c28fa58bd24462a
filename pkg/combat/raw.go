// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package combat

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/oops"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// LimitBreakName is the pseudo-combatant key the host uses for limit break damage.
const LimitBreakName = "Limit Break"

// RawFields is one loosely-typed object from the host. Numbers usually arrive as
// strings ("1234.56", "∞", "---") and sometimes as JSON numbers.
type RawFields map[string]any

// Text returns the field rendered as a string, or "" when absent.
func (f RawFields) Text(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int parses the field's leading integer. ok is false when no digits lead the value.
func (f RawFields) Int(key string) (n int, ok bool) {
	return parseInt(f.Text(key))
}

// IntOr parses the field's leading integer, falling back to 0.
func (f RawFields) IntOr(key string) int {
	n, _ := f.Int(key)
	return n
}

// parseInt reads an optionally signed run of leading decimal digits after
// leading whitespace. "1234.56" is 1234, "12%" is 12, "∞" and "" fail.
func parseInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// overflow: the digits were valid, clamp rather than reject
		n = int(^uint(0) >> 1)
	}
	if neg {
		n = -n
	}
	return n, true
}

var pctPattern = regexp.MustCompile(`([0-9]+)%`)

// pctNum extracts the number of the first "<digits>%" group, e.g. "45%" is 45.
func pctNum(s string) int {
	m := pctPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := parseInt(m[1])
	return n
}

// splitMax splits a compound "<ability>-<amount>" string on the first '-'.
// Without a separator the label is empty and the amount 0.
func splitMax(s string) (label string, amount int) {
	before, after, found := strings.Cut(s, "-")
	if !found {
		return "", 0
	}
	n, _ := parseInt(after)
	return before, n
}

// RawCombatData is a CombatData event as pushed by the host.
type RawCombatData struct {
	Type      string                                    `json:"type"`
	Encounter RawFields                                 `json:"Encounter"`
	Combatant *orderedmap.OrderedMap[string, RawFields] `json:"Combatant"`
	IsActive  any                                       `json:"isActive"`
}

// NewRawCombatData returns an empty CombatData payload, useful for building
// fixtures in host order.
func NewRawCombatData() *RawCombatData {
	return &RawCombatData{
		Type:      "CombatData",
		Encounter: RawFields{},
		Combatant: orderedmap.New[string, RawFields](),
	}
}

type wireCombatData struct {
	Type      string          `json:"type"`
	Encounter json.RawMessage `json:"Encounter"`
	Combatant json.RawMessage `json:"Combatant"`
	IsActive  any             `json:"isActive"`
}

// DecodeCombatData parses a CombatData payload, keeping combatants in the order
// the host sent them. Only a payload that is not an object fails. A combatant
// that is not an object is skipped, and a malformed Encounter decodes as empty.
func DecodeCombatData(data []byte) (*RawCombatData, error) {
	var wire wireCombatData
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, oops.Code(CodeInvalidPayload).
			With("bytes", len(data)).
			Wrapf(err, "decode combat data")
	}

	raw := NewRawCombatData()
	raw.Type = wire.Type
	raw.IsActive = wire.IsActive

	var encounter RawFields
	if json.Unmarshal(wire.Encounter, &encounter) == nil && encounter != nil {
		raw.Encounter = encounter
	}

	entries := orderedmap.New[string, json.RawMessage]()
	if json.Unmarshal(wire.Combatant, entries) != nil {
		return raw, nil
	}
	for pair := entries.Oldest(); pair != nil; pair = pair.Next() {
		var fields RawFields
		if json.Unmarshal(pair.Value, &fields) != nil || fields == nil {
			continue
		}
		raw.Combatant.Set(pair.Key, fields)
	}
	return raw, nil
}

// active reports whether isActive is the string "true" or boolean true.
func active(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	default:
		return false
	}
}
