// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

// Package overlay is a client for the ACT OverlayPlugin host.
//
// A Client talks to the host through one of two transports, chosen once from the
// page URL: the in-page bridge (a Host supplied by the embedding runtime) or a
// WebSocket connection to the host's overlay server. Requests sent before the
// transport is ready are queued and delivered in order once it is. Events pushed
// by the host are routed to listeners registered per event type; CombatData
// events are additionally normalized into a combat.Snapshot.
package overlay
