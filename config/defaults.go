// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "time"

// SetDefaults resets cfg to the values used when nothing else is configured.
// They suit a plugin listening next to the console on the same host.
func (cfg *ServerConfig) SetDefaults() {
	*cfg = ServerConfig{}

	cfg.Basic.Host = "localhost"
	cfg.Basic.Port = "8283"

	cfg.Squash.PublicServer = "https://api.bitbucket.org"
	cfg.Squash.RequestTimeout = 20 * time.Second
	cfg.Squash.RequestsPerSecond = 10
	cfg.Squash.Burst = 5

	cfg.Subscriptions.File = "./subscriptions.yaml"

	cfg.Cache.Size = 100
	cfg.Cache.TTL = 5 * time.Minute
	cfg.Cache.Compress = true

	cfg.Development.ResponseSaveLocation = "/tmp/squashfe/responses"

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"
}
