// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package combat

import (
	"fmt"
	"math"
)

// MergeCombatant combines records into one, e.g. a pet into its owner. Identity
// comes from the first record. Counters are summed, hit percentages are
// recomputed from the summed counts, max hit/heal keep the single largest entry
// (first wins on ties) and overheal percentage is averaged over nonzero entries.
// ok is false when no records are given.
func MergeCombatant(records ...CombatantData) (merged CombatantData, ok bool) {
	if len(records) == 0 {
		return CombatantData{}, false
	}

	first := records[0]
	merged = CombatantData{
		Name:    first.Name,
		Job:     first.Job,
		JobType: first.JobType,
	}

	var damagePct, healsPct int
	var overHealSum, overHealN int
	direct := hitRatio{}
	crit := hitRatio{}
	directCrit := hitRatio{}
	maxHit := maxEntry{}
	maxHeal := maxEntry{}

	for _, r := range records {
		merged.DPS += r.DPS
		merged.Last10DPS += r.Last10DPS
		merged.Last30DPS += r.Last30DPS
		merged.Last60DPS += r.Last60DPS
		merged.HPS += r.HPS

		merged.Swings += r.Swings
		merged.Hits += r.Hits
		merged.Deaths += r.Deaths

		merged.Damage += r.Damage
		merged.DamageTaken += r.DamageTaken
		damagePct += pctNum(r.DamagePct)

		merged.Healed += r.Healed
		merged.HealsTaken += r.HealsTaken
		healsPct += pctNum(r.HealsPct)
		merged.OverHeal += r.OverHeal
		if n := pctNum(r.OverHealPct); n > 0 {
			overHealSum += n
			overHealN++
		}
		merged.Shield += r.Shield

		direct.add(r.DirectHits, r.Hits)
		crit.add(r.CritHits, r.Hits)
		directCrit.add(r.DirectCritHits, r.Hits)

		maxHit.offer(r.MaxHit, r.MaxHitDamage)
		maxHeal.offer(r.MaxHeal, r.MaxHealDamage)
	}

	merged.DamagePct = fmt.Sprintf("%d%%", damagePct)
	merged.HealsPct = fmt.Sprintf("%d%%", healsPct)
	merged.OverHealPct = "0%"
	if overHealN > 0 {
		merged.OverHealPct = fmt.Sprintf("%d%%", roundHalfUp(float64(overHealSum)/float64(overHealN)))
	}
	merged.ShieldPct = ratioPct(merged.Shield, merged.Healed)

	merged.DirectHits, merged.DirectHitPct = direct.result()
	merged.CritHits, merged.CritHitPct = crit.result()
	merged.DirectCritHits, merged.DirectCritHitPct = directCrit.result()

	merged.MaxHit, merged.MaxHitDamage = maxHit.label, maxHit.amount
	merged.MaxHeal, merged.MaxHealDamage = maxHeal.label, maxHeal.amount

	return merged, true
}

// hitRatio accumulates hits over total hits across records.
type hitRatio struct {
	hits, total int
}

func (h *hitRatio) add(hits, total int) {
	h.hits += hits
	h.total += total
}

func (h hitRatio) result() (int, string) {
	if h.hits == 0 || h.total == 0 {
		return 0, "0%"
	}
	return h.hits, fmt.Sprintf("%d%%", roundHalfUp(float64(h.hits)/float64(h.total)*100))
}

// maxEntry keeps the first strictly largest amount offered.
type maxEntry struct {
	label  string
	amount int
}

func (m *maxEntry) offer(label string, amount int) {
	if amount > m.amount {
		m.label, m.amount = label, amount
	}
}

func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
