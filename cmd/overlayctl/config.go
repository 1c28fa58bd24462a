// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package main

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/dsrkafuu/ffxiv-overlay-api/internal/logging"
	"github.com/dsrkafuu/ffxiv-overlay-api/internal/xdg"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay"
)

// Default values for overlayctl flags.
const (
	defaultEndpoint    = "ws://127.0.0.1:10501/ws"
	defaultLogFormat   = "text"
	defaultLogLevel    = "info"
	defaultCallTimeout = 10 * time.Second
)

// CodeInvalidConfig marks a configuration that failed to load or validate.
const CodeInvalidConfig = "INVALID_CONFIG"

// config is the merged view of defaults, the config file and flags.
type config struct {
	URL            string        `koanf:"url"`
	Endpoint       string        `koanf:"endpoint"`
	PollInterval   time.Duration `koanf:"poll-interval"`
	ReconnectDelay time.Duration `koanf:"reconnect-delay"`
	ExtendData     bool          `koanf:"extend-data"`
	SeparateLB     bool          `koanf:"separate-lb"`
	Silent         bool          `koanf:"silent"`

	MetricsAddr string        `koanf:"metrics-addr"`
	Record      bool          `koanf:"record"`
	Script      string        `koanf:"script"`
	Events      []string      `koanf:"events"`
	Timeout     time.Duration `koanf:"timeout"`

	LogFormat string `koanf:"log-format"`
	LogLevel  string `koanf:"log-level"`
}

// Validate checks that the configuration is valid.
func (cfg *config) Validate() error {
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return oops.Code(CodeInvalidConfig).With("log-format", cfg.LogFormat).
			Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.PollInterval < 0 {
		return oops.Code(CodeInvalidConfig).With("poll-interval", cfg.PollInterval).Errorf("poll-interval must not be negative")
	}
	if cfg.ReconnectDelay < 0 {
		return oops.Code(CodeInvalidConfig).With("reconnect-delay", cfg.ReconnectDelay).Errorf("reconnect-delay must not be negative")
	}
	if cfg.Timeout < 0 {
		return oops.Code(CodeInvalidConfig).With("timeout", cfg.Timeout).Errorf("timeout must not be negative")
	}
	return nil
}

// addClientFlags registers the flags shared by commands that build a client.
func addClientFlags(flags *pflag.FlagSet) {
	flags.String("url", "", "overlay page URL; OVERLAY_WS or HOST_PORT query selects the WebSocket endpoint")
	flags.String("endpoint", defaultEndpoint, "WebSocket endpoint, used when --url is empty")
	flags.Duration("poll-interval", overlay.DefaultPollInterval, "bridge readiness poll interval")
	flags.Duration("reconnect-delay", overlay.DefaultReconnectDelay, "delay before redialing a closed socket")
	flags.Bool("extend-data", true, "attach a normalized snapshot to CombatData events")
	flags.Bool("separate-lb", false, "keep the limit break record out of the combatant list")
	flags.Bool("silent", false, "suppress client info logs")
}

// addListenerFlags registers the flags that choose what to print.
func addListenerFlags(flags *pflag.FlagSet) {
	flags.String("script", "", "Lua script defining on_event(event)")
	flags.StringSlice("events", []string{"*"}, "event type patterns to print when no script is given")
}

// loadConfig layers the config file under the command's flags. Flag defaults
// fill keys the file leaves unset.
func loadConfig(flags *pflag.FlagSet) (*config, error) {
	ko := koanf.New(".")

	path, explicit := configFile, configFile != ""
	if !explicit {
		p, err := xdg.ConfigFile()
		if err != nil {
			return nil, oops.Code(CodeInvalidConfig).Wrap(err)
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		if err := ko.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalidConfig).With("path", path).Hint("failed to parse config file").Wrap(err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Code(CodeInvalidConfig).With("path", path).Hint("failed to read config file").Wrap(err)
	}

	if err := ko.Load(posflag.Provider(flags, ".", ko), nil); err != nil {
		return nil, oops.Code(CodeInvalidConfig).Hint("failed to read flags").Wrap(err)
	}

	cfg := &config{}
	if err := ko.Unmarshal("", cfg); err != nil {
		return nil, oops.Code(CodeInvalidConfig).Hint("failed to decode config").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger builds the command logger writing to w and installs it as slog's
// default, so library code logging through slog.Default matches.
func (cfg *config) logger(w io.Writer) (*slog.Logger, error) {
	return logging.SetDefault(logging.Config{
		Service: "overlayctl",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Writer:  w,
	})
}

// clientOptions maps the config onto overlay client options.
func (cfg *config) clientOptions(logger *slog.Logger, metrics *overlay.Metrics) ([]overlay.Option, error) {
	opts := []overlay.Option{
		overlay.WithPollInterval(cfg.PollInterval),
		overlay.WithReconnectDelay(cfg.ReconnectDelay),
		overlay.WithExtendData(cfg.ExtendData),
		overlay.WithSeparateLimitBreak(cfg.SeparateLB),
		overlay.WithSilentMode(cfg.Silent),
		overlay.WithLogger(logger),
		overlay.WithMetrics(metrics),
	}

	switch {
	case cfg.URL != "":
		if mode, _ := overlay.SelectMode(cfg.URL); mode != overlay.ModeWebSocket {
			return nil, oops.Code(overlay.CodeNoHost).With("url", cfg.URL).
				Hint("add OVERLAY_WS or HOST_PORT to the URL query").
				Errorf("page URL selects bridge mode, which needs an in-page host")
		}
		opts = append(opts, overlay.WithPageURL(cfg.URL))
	case cfg.Endpoint != "":
		opts = append(opts, overlay.WithEndpoint(cfg.Endpoint))
	default:
		return nil, oops.Code(CodeInvalidConfig).Errorf("one of url or endpoint is required")
	}
	return opts, nil
}
