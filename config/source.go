// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

// defaultConfigPaths are tried in order when no file is named.
var defaultConfigPaths = []string{"./config.yaml", "./config.yml"}

// configPath returns the -config flag, else SQUASHFE_CONFIGFILE, else the
// first default path that exists. It returns "" when there is none.
func configPath() string {
	if flag.Lookup("config") == nil {
		flag.String("config", "", "Path to a configuration file in YAML format.")
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	if p := flag.Lookup("config").Value.String(); p != "" {
		return p
	}

	if p := os.Getenv("SQUASHFE_CONFIGFILE"); p != "" {
		return p
	}

	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// readYAML overlays the file at path on cfg. A missing file leaves cfg as is.
func (cfg *ServerConfig) readYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- the operator names the file
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", path).Msg("No YAML configuration file found, skipping")

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML from %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg("Loaded configuration file")

	return nil
}

// DurationEncoder marshals durations as "5m0s" rather than nanoseconds.
func DurationEncoder() yaml.EncodeOption {
	return yaml.CustomMarshaler(func(d time.Duration) ([]byte, error) {
		return yaml.Marshal(d.String())
	})
}
