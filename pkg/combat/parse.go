// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package combat

import (
	"fmt"
	"strings"
)

// ParseEncounter parses the encounter summary. Missing or unparsable fields
// default to 0 or "".
func ParseEncounter(f RawFields) EncounterData {
	return EncounterData{
		Duration:        f.Text("duration"),
		DurationSeconds: f.IntOr("DURATION"),
		ZoneName:        f.Text("CurrentZoneName"),

		DPS:       f.IntOr("encdps"),
		Last10DPS: f.IntOr("Last10DPS"),
		Last30DPS: f.IntOr("Last30DPS"),
		Last60DPS: f.IntOr("Last60DPS"),
		HPS:       f.IntOr("enchps"),

		Damage: f.IntOr("damage"),
		Healed: f.IntOr("healed"),
		Shield: f.IntOr("damageShield"),
	}
}

// ParsePlayer parses a player record. ok is false when dps or hps is not a number,
// in which case the combatant should be dropped.
func ParsePlayer(name string, f RawFields) (c CombatantData, ok bool) {
	dps, dpsOK := f.Int("encdps")
	hps, hpsOK := f.Int("enchps")
	if !dpsOK || !hpsOK {
		return CombatantData{}, false
	}

	if n := f.Text("name"); n != "" {
		name = n
	}
	job := f.Text("Job")
	maxHit, maxHitDamage := splitMax(f.Text("maxhit"))
	maxHeal, maxHealDamage := splitMax(f.Text("maxheal"))
	shield := f.IntOr("damageShield")
	healed := f.IntOr("healed")

	return CombatantData{
		Name:    name,
		Job:     strings.ToLower(job),
		JobType: ParseJob(job),

		DPS:       dps,
		Last10DPS: f.IntOr("Last10DPS"),
		Last30DPS: f.IntOr("Last30DPS"),
		Last60DPS: f.IntOr("Last60DPS"),
		HPS:       hps,

		Swings: f.IntOr("swings"),
		Hits:   f.IntOr("hits"),
		Deaths: f.IntOr("deaths"),

		DirectHits:       f.IntOr("DirectHitCount"),
		DirectHitPct:     f.Text("DirectHitPct"),
		CritHits:         f.IntOr("crithits"),
		CritHitPct:       f.Text("crithit%"),
		DirectCritHits:   f.IntOr("CritDirectHitCount"),
		DirectCritHitPct: f.Text("CritDirectHitPct"),

		Damage:      f.IntOr("damage"),
		DamageTaken: f.IntOr("damagetaken"),
		DamagePct:   f.Text("damage%"),

		Healed:      healed,
		HealsTaken:  f.IntOr("healstaken"),
		HealsPct:    f.Text("healed%"),
		OverHeal:    f.IntOr("overHeal"),
		OverHealPct: f.Text("OverHealPct"),
		Shield:      shield,
		ShieldPct:   ratioPct(shield, healed),

		MaxHit:        maxHit,
		MaxHitDamage:  maxHitDamage,
		MaxHeal:       maxHeal,
		MaxHealDamage: maxHealDamage,
	}, true
}

// ParseLimitBreak parses the "Limit Break" pseudo-combatant. ok follows the same
// dps/hps rule as ParsePlayer.
func ParseLimitBreak(f RawFields) (l LimitBreakData, ok bool) {
	dps, dpsOK := f.Int("encdps")
	hps, hpsOK := f.Int("enchps")
	if !dpsOK || !hpsOK {
		return LimitBreakData{}, false
	}
	maxHit, _ := splitMax(f.Text("maxhit"))
	maxHeal, _ := splitMax(f.Text("maxheal"))
	return LimitBreakData{
		Name:    LimitBreakName,
		DPS:     dps,
		HPS:     hps,
		Damage:  f.IntOr("damage"),
		Healed:  f.IntOr("healed"),
		Shield:  f.IntOr("damageShield"),
		MaxHit:  maxHit,
		MaxHeal: maxHeal,
	}, true
}

// ParseRecord parses one combatant entry by its key.
func ParseRecord(name string, f RawFields) (Record, bool) {
	if name == LimitBreakName {
		lb, ok := ParseLimitBreak(f)
		if !ok {
			return nil, false
		}
		return lb, true
	}
	c, ok := ParsePlayer(name, f)
	if !ok {
		return nil, false
	}
	return c, true
}

// Extend builds the normalized snapshot of a CombatData event. With separateLB
// the limit break record goes to Snapshot.LimitBreak instead of the combatant list.
func Extend(raw *RawCombatData, separateLB bool) Snapshot {
	snap := Snapshot{
		IsActive:  active(raw.IsActive),
		Encounter: ParseEncounter(raw.Encounter),
		Combatant: []Record{},
	}
	if raw.Combatant == nil {
		return snap
	}

	for pair := raw.Combatant.Oldest(); pair != nil; pair = pair.Next() {
		rec, ok := ParseRecord(pair.Key, pair.Value)
		if !ok {
			continue
		}
		if lb, isLB := rec.(LimitBreakData); isLB && separateLB {
			snap.LimitBreak = &lb
			continue
		}
		snap.Combatant = append(snap.Combatant, rec)
	}
	return snap
}

// ratioPct renders round(num/den*100) as a percentage string, "0%" when den is 0.
func ratioPct(num, den int) string {
	if den == 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", roundHalfUp(float64(num)/float64(den)*100))
}
