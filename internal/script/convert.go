// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package script

import (
	"encoding/json"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// toLValue converts a decoded JSON value into Lua. Arrays become 1-based
// sequence tables and objects keyed tables.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case float64:
		return lua.LNumber(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return lua.LString(x.String())
		}
		return lua.LNumber(f)
	case string:
		return lua.LString(x)
	case []any:
		t := L.CreateTable(len(x), 0)
		for _, item := range x {
			t.Append(toLValue(L, item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(x))
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLValue(L, x[k]))
		}
		return t
	default:
		return lua.LNil
	}
}

// jsonToLValue decodes data and converts it, returning nil on invalid JSON.
func jsonToLValue(L *lua.LState, data []byte) lua.LValue {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return lua.LNil
	}
	return toLValue(L, v)
}

// structToLValue round-trips v through JSON so tags name the Lua fields.
func structToLValue(L *lua.LState, v any) lua.LValue {
	data, err := json.Marshal(v)
	if err != nil {
		return lua.LNil
	}
	return jsonToLValue(L, data)
}
