// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ligoj/plugin-req-squash/server/utils"
)

var (
	errInvalidPort              = errors.New("Basic.Port must be a TCP port number")
	errInvalidRequestTimeout    = errors.New("Squash.RequestTimeout must be positive")
	errInvalidRequestsPerSecond = errors.New("Squash.RequestsPerSecond cannot be negative")
	errInvalidBurst             = errors.New("Squash.Burst must be at least 1 when requests are limited")
	errEmptySubscriptionsFile   = errors.New("Subscriptions.File cannot be empty")
	errInvalidCacheSize         = errors.New("Cache.Size must be positive when the cache is enabled")
	errInvalidCacheTTL          = errors.New("Cache.TTL must be positive when the cache is enabled")
	errInvalidLogFormat         = errors.New("Log.Format must be console or json")
)

// validateAndSet checks cfg and normalizes the public server URL.
func (cfg *ServerConfig) validateAndSet() error {
	rules := []struct {
		broken bool
		err    error
	}{
		{!isPort(cfg.Basic.Port), errInvalidPort},
		{cfg.Squash.RequestTimeout <= 0, errInvalidRequestTimeout},
		{cfg.Squash.RequestsPerSecond < 0, errInvalidRequestsPerSecond},
		{cfg.Squash.RequestsPerSecond > 0 && cfg.Squash.Burst < 1, errInvalidBurst},
		{cfg.Subscriptions.File == "", errEmptySubscriptionsFile},
		{cfg.Cache.Enabled && cfg.Cache.Size <= 0, errInvalidCacheSize},
		{cfg.Cache.Enabled && cfg.Cache.TTL <= 0, errInvalidCacheTTL},
		{cfg.Log.Format != "console" && cfg.Log.Format != "json", errInvalidLogFormat},
	}

	for _, rule := range rules {
		if rule.broken {
			return rule.err
		}
	}

	publicServer, err := utils.ParseBaseURL(cfg.Squash.PublicServer, "public server")
	if err != nil {
		return fmt.Errorf("invalid public server URL: %w", err)
	}

	cfg.Squash.PublicServer = publicServer.String()

	return nil
}

func isPort(s string) bool {
	n, err := strconv.Atoi(s)

	return err == nil && n > 0 && n < 1<<16
}
