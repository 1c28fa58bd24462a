// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobsCmd_Table(t *testing.T) {
	out, err := execute(t, "jobs")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "tank     drk gla gnb mrd pld war", lines[0])
	assert.Equal(t, "healer   ast cnj sch sge whm", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "dps      acn arc blm blu brd"), lines[2])
	assert.Equal(t, "crafter  alc arm bsm crp cul gsm lwr wvr", lines[3])
	assert.Equal(t, "gatherer bot fsh min", lines[4])
}

func TestJobsCmd_Classify(t *testing.T) {
	out, err := execute(t, "jobs", "WHM", "pld", "xyz")
	require.NoError(t, err)
	assert.Equal(t, "whm healer\npld tank\nxyz unknown\n", out)
}
