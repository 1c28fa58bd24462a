// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/combat"
)

// jobRoles is the print order of the job table.
var jobRoles = []combat.JobType{
	combat.JobTank,
	combat.JobHealer,
	combat.JobDPS,
	combat.JobCrafter,
	combat.JobGatherer,
}

// NewJobsCmd creates the jobs subcommand.
func NewJobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs [code]...",
		Short: "Show the job table or classify job codes",
		Long: `Without arguments, print every known job code grouped by role.
With arguments, print the role of each job code (unknown when not listed).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, role := range jobRoles {
					codes := combat.Jobs(role)
					slices.Sort(codes)
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", role, strings.Join(codes, " "))
				}
				return nil
			}
			for _, code := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", strings.ToLower(code), combat.ParseJob(code))
			}
			return nil
		},
	}
}
