// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package config loads the plugin settings: where to listen, how to talk to
Squash TM, where the subscriptions are stored, the response cache, logging and
development switches.

Settings come from defaults, then a YAML file, then SQUASHFE_* environment
variables (a .env file included). [Global] holds the result.
*/
package config

import (
	"fmt"
	"time"
)

// Global is the configuration of the running plugin.
var Global ServerConfig

// ServerConfig holds every setting. The env tag names the variable that sets
// a field; "overwrite" lets it replace a value set by the YAML file.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host string `env:"SQUASHFE_HOST,overwrite" yaml:"host"`
		Port string `env:"SQUASHFE_PORT,overwrite" yaml:"port"`
	} `yaml:"basic"`

	Squash struct {
		// Public server queried for the latest released version.
		PublicServer      string        `env:"SQUASHFE_PUBLIC_SERVER,overwrite" yaml:"publicServer"`
		RequestTimeout    time.Duration `env:"SQUASHFE_REQUEST_TIMEOUT,overwrite" yaml:"requestTimeout"`
		RequestsPerSecond int           `env:"SQUASHFE_REQUESTS_PER_SECOND,overwrite" yaml:"requestsPerSecond"`
		Burst             int           `env:"SQUASHFE_REQUEST_BURST,overwrite" yaml:"burst"`
	} `yaml:"squash"`

	Subscriptions struct {
		File string `env:"SQUASHFE_SUBSCRIPTIONS_FILE,overwrite" yaml:"file"`
	} `yaml:"subscriptions"`

	Cache struct {
		Enabled  bool          `env:"SQUASHFE_CACHE,overwrite" yaml:"enabled"`
		Size     int           `env:"SQUASHFE_CACHE_SIZE,overwrite" yaml:"cacheSize"`
		TTL      time.Duration `env:"SQUASHFE_CACHE_TTL,overwrite" yaml:"cacheTTL"`
		Compress bool          `env:"SQUASHFE_CACHE_COMPRESS,overwrite" yaml:"compress"`
	} `yaml:"cache"`

	Development struct {
		InDevelopment        bool   `env:"SQUASHFE_DEV" yaml:"inDevelopment"`
		SaveResponses        bool   `env:"SQUASHFE_SAVE_RESPONSES,overwrite" yaml:"saveResponses"`
		ResponseSaveLocation string `env:"SQUASHFE_RESPONSE_SAVE_LOCATION,overwrite" yaml:"responseSaveLocation"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"SQUASHFE_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"SQUASHFE_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"SQUASHFE_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Internationalization struct {
		// StrictMissingKeys logs each missing key once per locale and shows
		// it wrapped in markers instead of the raw key.
		StrictMissingKeys bool `env:"SQUASHFE_STRICT_MISSING_KEYS" yaml:"strictMissingKeys"`
	} `yaml:"internationalization"`
}

// LoadConfig reads the configuration named on the command line or in the
// environment, then installs the configured logger and prints the result.
func (cfg *ServerConfig) LoadConfig() error {
	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := cfg.Load(configPath()); err != nil {
		return err
	}

	if err := cfg.setupLogging(); err != nil {
		return err
	}

	cfg.announce()

	return nil
}

// Load applies defaults, the YAML file at path (if any) and the environment,
// then validates the result. It does not touch the global logger.
func (cfg *ServerConfig) Load(path string) error {
	cfg.SetDefaults()
	cfg.Build.load()

	if err := cfg.readYAML(path); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	return nil
}

// Address is the host:port the plugin listens on.
func (cfg *ServerConfig) Address() string {
	return cfg.Basic.Host + ":" + cfg.Basic.Port
}

// UserAgent is sent on every request to Squash TM and the public server.
func UserAgent() string {
	return "plugin-req-squash/" + BuildVersion
}
