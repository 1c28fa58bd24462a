// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the overlayctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overlayctl",
		Short: "overlayctl - talk to an ACT OverlayPlugin host",
		Long: `overlayctl connects to an ACT OverlayPlugin WebSocket host, prints
subscribed events, calls host handlers, and replays recorded events through
the combat data pipeline.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/overlayctl/config.yaml)")
	cmd.PersistentFlags().String("log-format", defaultLogFormat, "log format (json or text)")
	cmd.PersistentFlags().String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	cmd.AddCommand(NewListenCmd())
	cmd.AddCommand(NewCallCmd())
	cmd.AddCommand(NewReplayCmd())
	cmd.AddCommand(NewSchemaCmd())
	cmd.AddCommand(NewJobsCmd())

	return cmd
}
