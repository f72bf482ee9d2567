// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ligoj/plugin-req-squash/core/audit"
)

const (
	responseDirPermissions = 0o700
	logFilePermissions     = 0o640
	redactedValue          = "[redacted]"
)

// setupLogging installs the global logger described by cfg.Log and turns on
// response saving. Development mode always logs at debug level.
func (cfg *ServerConfig) setupLogging() error {
	level := zerolog.DebugLevel

	if !cfg.Development.InDevelopment {
		parsed, err := zerolog.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("invalid Log.Level: %w", err)
		}

		level = parsed
	}

	zerolog.SetGlobalLevel(level)

	writers := make([]io.Writer, 0, len(cfg.Log.Outputs))

	for _, output := range cfg.Log.Outputs {
		w, err := cfg.logWriter(output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping log output %s: %v\n", output, err)

			continue
		}

		writers = append(writers, w)
	}

	if len(writers) == 0 {
		writers = append(writers, audit.ConsoleWriter(os.Stderr))
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	audit.SaveResponses = cfg.Development.SaveResponses
	audit.ResponseDirectory = cfg.Development.ResponseSaveLocation

	if audit.SaveResponses {
		if err := os.MkdirAll(audit.ResponseDirectory, responseDirPermissions); err != nil {
			return fmt.Errorf("failed to create response directory %s: %w", audit.ResponseDirectory, err)
		}
	}

	return nil
}

// logWriter opens one entry of Log.Outputs. The standard streams are always
// human-readable; files follow Log.Format.
func (cfg *ServerConfig) logWriter(output string) (io.Writer, error) {
	switch output {
	case "/dev/stdout":
		return audit.ConsoleWriter(os.Stdout), nil
	case "/dev/stderr":
		return audit.ConsoleWriter(os.Stderr), nil
	}

	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec G304 -- the operator names the file
	if err != nil {
		return nil, err
	}

	if cfg.Log.Format == "json" {
		return file, nil
	}

	return audit.ConsoleWriter(file), nil
}

// announce logs the version and the effective settings. The subscriptions
// file holds Squash TM credentials, so only its base name is shown.
func (cfg *ServerConfig) announce() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Msg("Starting the Squash TM plugin")

	shown := *cfg
	if shown.Subscriptions.File != "" {
		shown.Subscriptions.File = filepath.Join(redactedValue, filepath.Base(shown.Subscriptions.File))
	}

	out, err := yaml.MarshalWithOptions(shown, DurationEncoder())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to print configuration")

		return
	}

	log.Info().Msg("Configuration:\n" + string(out))
}
