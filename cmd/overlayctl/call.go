// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package main

import (
	"context"
	"encoding/json"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay"
)

// NewCallCmd creates the call subcommand.
func NewCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <handler> [fields-json]",
		Short: "Call a host handler and print the response",
		Long: `Send a handler request (getLanguage, getCombatants, saveData, loadData,
say, broadcast, ...) to the overlay host and print the correlated response.
Extra request fields are given as a JSON object, e.g. '{"text":"hello"}'.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runCall(cmd.Context(), cfg, cmd, args)
		},
	}

	addClientFlags(cmd.Flags())
	cmd.Flags().Duration("timeout", defaultCallTimeout, "how long to wait for the response")

	return cmd
}

func runCall(ctx context.Context, cfg *config, cmd *cobra.Command, args []string) error {
	req := overlay.Request{Call: overlay.HandlerType(args[0])}
	if len(args) > 1 {
		if err := json.Unmarshal([]byte(args[1]), &req.Fields); err != nil {
			return oops.Code(overlay.CodeInvalidPayload).With("fields", args[1]).
				Hint("fields must be a JSON object").Wrap(err)
		}
	}

	logger, err := cfg.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	opts, err := cfg.clientOptions(logger, nil)
	if err != nil {
		return err
	}
	client := overlay.New(opts...)
	defer client.Close()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	result, err := client.CallHandler(req).Wait(ctx)
	if err != nil {
		return oops.With("call", req.Call).With("endpoint", client.Endpoint()).Wrap(err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return oops.Code(overlay.CodeMarshalFailed).With("call", req.Call).Wrap(err)
	}
	return nil
}
