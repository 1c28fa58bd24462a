// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay"
)

// maxFixtureLine bounds a single JSON line; CombatData payloads are large.
const maxFixtureLine = 4 << 20

// NewReplayCmd creates the replay subcommand.
func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay recorded events through the dispatch pipeline",
		Long: `Read recorded host messages and dispatch each one as if the host had
pushed it. Files ending in .yaml or .yml hold a YAML list of messages; any
other file is read as JSON lines. A bare name that is not found in the
working directory is looked up among the files written by listen --record.
Output matches the listen command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runReplay(cmd.Context(), cfg, cmd, args[0])
		},
	}

	cmd.Flags().Bool("extend-data", true, "attach a normalized snapshot to CombatData events")
	cmd.Flags().Bool("separate-lb", false, "keep the limit break record out of the combatant list")
	addListenerFlags(cmd.Flags())

	return cmd
}

func runReplay(ctx context.Context, cfg *config, cmd *cobra.Command, path string) error {
	messages, err := readFixture(resolveFixture(path))
	if err != nil {
		return err
	}

	logger, err := cfg.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	client := overlay.New(
		overlay.WithHost(replayHost{}),
		overlay.WithExtendData(cfg.ExtendData),
		overlay.WithSeparateLimitBreak(cfg.SeparateLB),
		overlay.WithSilentMode(true),
		overlay.WithLogger(logger),
	)
	closeOutput, err := attachOutput(ctx, client, cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		client.Close()
		return err
	}
	defer func() {
		client.Close()
		closeOutput()
	}()

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return oops.Wrap(err)
		}
		client.Simulate(msg)
	}

	logger.Debug("replay finished", "file", path, "messages", len(messages))
	return nil
}

// readFixture loads recorded messages as raw JSON documents.
func readFixture(path string) ([][]byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, oops.With("path", path).Hint("failed to read fixture").Wrap(err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return readYAMLFixture(path, data)
	default:
		return readJSONLines(path, data)
	}
}

func readYAMLFixture(path string, data []byte) ([][]byte, error) {
	var docs []map[string]any
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, oops.Code(overlay.CodeInvalidPayload).With("path", path).Wrap(err)
	}

	messages := make([][]byte, 0, len(docs))
	for i, doc := range docs {
		msg, err := json.Marshal(doc)
		if err != nil {
			return nil, oops.Code(overlay.CodeInvalidPayload).With("path", path).With("index", i).Wrap(err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func readJSONLines(path string, data []byte) ([][]byte, error) {
	var messages [][]byte
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxFixtureLine)
	for line := 1; scanner.Scan(); line++ {
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		if !json.Valid(text) {
			return nil, oops.Code(overlay.CodeInvalidPayload).With("path", path).With("line", line).
				Errorf("line is not valid JSON")
		}
		messages = append(messages, bytes.Clone(text))
	}
	if err := scanner.Err(); err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return messages, nil
}

// replayHost is an always-ready bridge host that discards outbound calls.
type replayHost struct{}

func (replayHost) Ready() bool                                    { return true }
func (replayHost) CallHandler(string, overlay.ResponseFunc) error { return nil }
func (replayHost) EndEncounter() error                            { return nil }
func (replayHost) Attach(overlay.InboundHandler)                  {}

var _ overlay.Host = replayHost{}
