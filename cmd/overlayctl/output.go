// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/dsrkafuu/ffxiv-overlay-api/internal/script"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/combat"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/errutil"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay"
)

// eventLine is one printed event. Data is omitted when a snapshot was derived.
type eventLine struct {
	Type   overlay.EventType `json:"type"`
	Data   json.RawMessage   `json:"data,omitempty"`
	Combat *combat.Snapshot  `json:"combat,omitempty"`
}

// printer writes events as JSON lines.
type printer struct {
	mu     sync.Mutex
	enc    *json.Encoder
	logger *slog.Logger
}

func newPrinter(w io.Writer, logger *slog.Logger) *printer {
	return &printer{enc: json.NewEncoder(w), logger: logger}
}

func (p *printer) print(ev overlay.Event) {
	line := eventLine{Type: ev.Type, Combat: ev.Combat}
	if ev.Combat == nil {
		line.Data = ev.Raw
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enc.Encode(line); err != nil {
		errutil.LogError(p.logger, "failed to print event",
			oops.Code(overlay.CodeMarshalFailed).With("type", ev.Type).Wrap(err))
	}
}

// attachOutput registers either the configured script or a JSON printer for
// the configured event patterns. The returned func releases the output and
// must run after the client is closed.
func attachOutput(ctx context.Context, c *overlay.Client, cfg *config, w io.Writer, logger *slog.Logger) (func(), error) {
	if cfg.Script != "" {
		s, err := script.Load(ctx, cfg.Script, script.WithLogger(logger), script.WithOutput(w))
		if err != nil {
			return nil, err
		}
		s.Attach(c)
		logger.Debug("script attached", "script", s.Name(), "events", s.Events())
		return s.Close, nil
	}

	patterns := cfg.Events
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	types, err := overlay.MatchEventTypes(patterns...)
	if err != nil {
		return nil, err
	}

	p := newPrinter(w, logger)
	for _, t := range types {
		c.AddListener(t, p.print)
	}
	return func() {}, nil
}
