// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package combat

import "strings"

// JobType is the coarse role of a job.
type JobType string

// Job roles.
const (
	JobDPS      JobType = "dps"
	JobHealer   JobType = "healer"
	JobTank     JobType = "tank"
	JobCrafter  JobType = "crafter"
	JobGatherer JobType = "gatherer"
	JobUnknown  JobType = "unknown"
)

// jobTable maps three-letter job codes to their role.
// Only extend this when the game adds new classes.
var jobTable = map[string]JobType{
	// dps: base
	"acn": JobDPS,
	"arc": JobDPS,
	"lnc": JobDPS,
	"pgl": JobDPS,
	"rog": JobDPS,
	"thm": JobDPS,
	// dps: melee
	"drg": JobDPS,
	"mnk": JobDPS,
	"nin": JobDPS,
	"sam": JobDPS,
	"rpr": JobDPS,
	// dps: magical ranged
	"smn": JobDPS,
	"blm": JobDPS,
	"rdm": JobDPS,
	// dps: physical ranged
	"brd": JobDPS,
	"mch": JobDPS,
	"dnc": JobDPS,
	// dps: limited
	"blu": JobDPS,

	"cnj": JobHealer,
	"whm": JobHealer,
	"sch": JobHealer,
	"ast": JobHealer,
	"sge": JobHealer,

	"gla": JobTank,
	"mrd": JobTank,
	"pld": JobTank,
	"war": JobTank,
	"drk": JobTank,
	"gnb": JobTank,

	"crp": JobCrafter,
	"bsm": JobCrafter,
	"arm": JobCrafter,
	"gsm": JobCrafter,
	"lwr": JobCrafter,
	"wvr": JobCrafter,
	"alc": JobCrafter,
	"cul": JobCrafter,

	"bot": JobGatherer,
	"fsh": JobGatherer,
	"min": JobGatherer,
}

// ParseJob classifies a job code. Matching is case-insensitive and unknown
// codes map to JobUnknown.
func ParseJob(code string) JobType {
	if t, ok := jobTable[strings.ToLower(code)]; ok {
		return t
	}
	return JobUnknown
}

// Jobs returns every known job code for the given role, unordered.
func Jobs(t JobType) []string {
	var codes []string
	for code, role := range jobTable {
		if role == t {
			codes = append(codes, code)
		}
	}
	return codes
}
