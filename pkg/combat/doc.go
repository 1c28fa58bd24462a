// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

// Package combat normalizes the CombatData payloads pushed by OverlayPlugin.
//
// The host sends encounter and combatant statistics as loosely-typed objects
// whose numbers are mostly strings ("1234.56", "∞", "45%"). This package turns
// them into a [Snapshot] that is safe to aggregate and display:
//
//   - [DecodeCombatData] keeps combatants in the order the host sent them
//   - [Extend] parses the encounter and every combatant into [Record] values
//   - [ParseJob] classifies three-letter job codes into a [JobType]
//   - [MergeCombatant] folds records together, e.g. a pet into its owner
//
// Combatants whose dps or hps is not a number are dropped silently. Every other
// unparsable field defaults to 0 or the empty string; nothing here returns an
// error for bad statistics.
package combat
