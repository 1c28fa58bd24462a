// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/dsrkafuu/ffxiv-overlay-api/internal/xdg"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/errutil"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay"
)

// CodeRecordFailed marks a recording that could not be opened or written.
const CodeRecordFailed = "RECORD_FAILED"

// recordingsDir returns where listen --record writes its files.
func recordingsDir() (string, error) {
	state, err := xdg.StateDir()
	if err != nil {
		return "", oops.Code(CodeRecordFailed).Wrap(err)
	}
	return filepath.Join(state, "recordings"), nil
}

// recorder appends every received message to a JSON lines file that the
// replay command reads back.
type recorder struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
	f  *os.File
}

// openRecording creates a new file in the recordings directory. File names
// are ULIDs, so they sort by start time.
func openRecording(logger *slog.Logger) (*recorder, error) {
	dir, err := recordingsDir()
	if err != nil {
		return nil, err
	}
	if err := xdg.EnsureDir(dir); err != nil {
		return nil, oops.Code(CodeRecordFailed).With("dir", dir).Wrap(err)
	}

	path := filepath.Join(dir, ulid.Make().String()+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, oops.Code(CodeRecordFailed).With("path", path).Wrap(err)
	}
	return &recorder{path: path, logger: logger, f: f}, nil
}

// attach records every known event type.
func (r *recorder) attach(c *overlay.Client) {
	for _, t := range overlay.AllEventTypes {
		c.AddListener(t, r.record)
	}
}

func (r *recorder) record(ev overlay.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return
	}
	line := make([]byte, 0, len(ev.Raw)+1)
	line = append(append(line, ev.Raw...), '\n')
	if _, err := r.f.Write(line); err != nil {
		errutil.LogError(r.logger, "failed to record event",
			oops.Code(CodeRecordFailed).With("path", r.path).With("type", ev.Type).Wrap(err))
	}
}

// Close closes the file. Events arriving afterwards are dropped.
func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	if err != nil {
		return oops.Code(CodeRecordFailed).With("path", r.path).Wrap(err)
	}
	return nil
}

// resolveFixture returns path unchanged when it exists. A bare file name
// that does not exist is looked up in the recordings directory.
func resolveFixture(path string) string {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) || filepath.Base(path) != path {
		return path
	}
	dir, err := recordingsDir()
	if err != nil {
		return path
	}
	recorded := filepath.Join(dir, path)
	if _, err := os.Stat(recorded); err != nil {
		return path
	}
	return recorded
}
