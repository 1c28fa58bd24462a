// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dsrkafuu/ffxiv-overlay-api/internal/observability"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay"
)

// NewListenCmd creates the listen subcommand.
func NewListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print events pushed by the overlay host",
		Long: `Connect to the overlay host, subscribe to the selected event types and
print each event as a JSON line until interrupted. With --script, events are
handed to a Lua on_event function instead. With --record, every received
message is also appended to a JSON lines file under the XDG state directory
that replay accepts by name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runListen(cmd.Context(), cfg, cmd)
		},
	}

	addClientFlags(cmd.Flags())
	addListenerFlags(cmd.Flags())
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().Bool("record", false, "record received messages for replay")

	return cmd
}

func runListen(ctx context.Context, cfg *config, cmd *cobra.Command) error {
	logger, err := cfg.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		client  *overlay.Client
		obs     *observability.Server
		metrics *overlay.Metrics
	)
	if cfg.MetricsAddr != "" {
		obs = observability.NewServer(cfg.MetricsAddr,
			observability.WithStatus(func() overlay.Status { return client.Status() }),
			observability.WithLogger(logger),
		)
		metrics = obs.Metrics()
	}

	opts, err := cfg.clientOptions(logger, metrics)
	if err != nil {
		return err
	}
	client = overlay.New(opts...)

	closeOutput, err := attachOutput(ctx, client, cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		client.Close()
		return err
	}

	var rec *recorder
	if cfg.Record {
		rec, err = openRecording(logger)
		if err != nil {
			client.Close()
			closeOutput()
			return err
		}
		rec.attach(client)
		logger.Info("recording", "path", rec.path)
	}

	defer func() {
		client.Close()
		closeOutput()
		if rec != nil {
			if err := rec.Close(); err != nil {
				logger.Warn("error closing recording", "error", err)
			}
		}
	}()

	if obs != nil {
		obsErrChan, err := obs.Start()
		if err != nil {
			return oops.With("addr", cfg.MetricsAddr).Hint("failed to start observability server").Wrap(err)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := obs.Stop(shutdownCtx); err != nil {
				logger.Warn("error stopping observability server", "error", err)
			}
		}()
		go monitorServerErrors(ctx, cancel, obsErrChan, logger)
		logger.Info("observability server started", "addr", obs.Addr())
	}

	logger.Info("listening", "mode", client.Mode().String(), "endpoint", client.Endpoint())
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// monitorServerErrors cancels ctx when the server reports an error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("observability server error, triggering shutdown", "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
