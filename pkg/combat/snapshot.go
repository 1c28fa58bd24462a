// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package combat

// CodeInvalidPayload marks a payload that could not be decoded.
const CodeInvalidPayload = "INVALID_PAYLOAD"

// EncounterData is the parsed encounter summary.
type EncounterData struct {
	Duration        string `json:"duration"`
	DurationSeconds int    `json:"durationSeconds"`
	ZoneName        string `json:"zoneName"`

	DPS       int `json:"dps"`
	Last10DPS int `json:"last10DPS"`
	Last30DPS int `json:"last30DPS"`
	Last60DPS int `json:"last60DPS"`
	HPS       int `json:"hps"`

	Damage int `json:"damage"`
	Healed int `json:"healed"`
	Shield int `json:"shield"`
}

// Record is one parsed combatant: either CombatantData or LimitBreakData.
type Record interface {
	// CombatantName returns the name the host keyed the combatant by.
	CombatantName() string
	isRecord()
}

// CombatantData is a parsed player (or pet) record.
type CombatantData struct {
	Name    string  `json:"name"`
	Job     string  `json:"job"`
	JobType JobType `json:"jobType"`

	DPS       int `json:"dps"`
	Last10DPS int `json:"last10DPS"`
	Last30DPS int `json:"last30DPS"`
	Last60DPS int `json:"last60DPS"`
	HPS       int `json:"hps"`

	Swings int `json:"swings"`
	Hits   int `json:"hits"`
	Deaths int `json:"deaths"`

	DirectHits       int    `json:"directHits"`
	DirectHitPct     string `json:"directHitPct"`
	CritHits         int    `json:"critHits"`
	CritHitPct       string `json:"critHitPct"`
	DirectCritHits   int    `json:"directCritHits"`
	DirectCritHitPct string `json:"directCritHitPct"`

	Damage      int    `json:"damage"`
	DamageTaken int    `json:"damageTaken"`
	DamagePct   string `json:"damagePct"`

	Healed      int    `json:"healed"`
	HealsTaken  int    `json:"healsTaken"`
	HealsPct    string `json:"healsPct"`
	OverHeal    int    `json:"overHeal"`
	OverHealPct string `json:"overHealPct"`
	Shield      int    `json:"shield"`
	ShieldPct   string `json:"shieldPct"`

	MaxHit        string `json:"maxHit"`
	MaxHitDamage  int    `json:"maxHitDamage"`
	MaxHeal       string `json:"maxHeal"`
	MaxHealDamage int    `json:"maxHealDamage"`
}

// CombatantName implements Record.
func (c CombatantData) CombatantName() string { return c.Name }

func (CombatantData) isRecord() {}

// LimitBreakData is the restricted record parsed for the "Limit Break" pseudo-combatant.
type LimitBreakData struct {
	Name string `json:"name"`

	DPS int `json:"dps"`
	HPS int `json:"hps"`

	Damage int `json:"damage"`
	Healed int `json:"healed"`
	Shield int `json:"shield"`

	MaxHit  string `json:"maxHit"`
	MaxHeal string `json:"maxHeal"`
}

// CombatantName implements Record.
func (l LimitBreakData) CombatantName() string { return l.Name }

func (LimitBreakData) isRecord() {}

// Snapshot is the normalized view of one CombatData event.
type Snapshot struct {
	IsActive   bool            `json:"isActive"`
	Encounter  EncounterData   `json:"encounter"`
	LimitBreak *LimitBreakData `json:"limitBreak,omitempty"`
	Combatant  []Record        `json:"combatant"`
}

// Players returns the player records of the snapshot, skipping limit break.
func (s Snapshot) Players() []CombatantData {
	players := make([]CombatantData, 0, len(s.Combatant))
	for _, r := range s.Combatant {
		if c, ok := r.(CombatantData); ok {
			players = append(players, c)
		}
	}
	return players
}
