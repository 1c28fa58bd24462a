// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

// LogLinePayload is the body of a LogLine event.
type LogLinePayload struct {
	Line    []string `json:"line"`
	RawLine string   `json:"rawLine"`
}

// ImportedLogLinesPayload is the body of an ImportedLogLines event.
type ImportedLogLinesPayload struct {
	LogLines []string `json:"logLines"`
}

// ChangeZonePayload is the body of a ChangeZone event.
type ChangeZonePayload struct {
	ZoneID   int    `json:"zoneID"`
	ZoneName string `json:"zoneName"`
}

// ChangePrimaryPlayerPayload is the body of a ChangePrimaryPlayer event.
type ChangePrimaryPlayerPayload struct {
	CharID   int    `json:"charID"`
	CharName string `json:"charName"`
}

// OnlineStatusChangedPayload is the body of an OnlineStatusChanged event.
type OnlineStatusChangedPayload struct {
	Target    int    `json:"target"`
	RawStatus int    `json:"rawStatus"`
	Status    string `json:"status"`
}

// PartyMember is one entry of a PartyChanged event.
type PartyMember struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	WorldID int    `json:"worldId"`
	Job     int    `json:"job"`
	InParty bool   `json:"inParty"`
}

// PartyChangedPayload is the body of a PartyChanged event.
type PartyChangedPayload struct {
	Party []PartyMember `json:"party"`
}

// BroadcastMessagePayload is the body of a BroadcastMessage event.
type BroadcastMessagePayload struct {
	Source string `json:"source"`
	Msg    any    `json:"msg"`
}
