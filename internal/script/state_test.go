// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package script_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/dsrkafuu/ffxiv-overlay-api/internal/script"
)

func TestStateFactory_NewState_LoadsSafeLibraries(t *testing.T) {
	L, err := script.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, lib := range []string{"table", "string", "math"} {
		assert.NotEqual(t, lua.LTNil, L.GetGlobal(lib).Type(), "library %q not loaded", lib)
	}
}

func TestStateFactory_NewState_BlocksUnsafe(t *testing.T) {
	L, err := script.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, name := range []string{"os", "io", "debug", "package", "dofile", "loadfile", "loadstring", "load", "require"} {
		assert.Equal(t, lua.LTNil, L.GetGlobal(name).Type(), "%q should not be reachable", name)
	}
}

func TestStateFactory_NewState_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	L, err := script.NewStateFactory().NewState(ctx)
	require.NoError(t, err)
	defer L.Close()

	cancel()
	assert.Error(t, L.DoString(`while true do end`))
}
