// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "runtime/debug"

// BuildVersion is the latest tagged release of the plugin.
const BuildVersion string = "v1.3.2"

// buildInfo is the VCS stamp the Go toolchain embeds in the binary.
type buildInfo struct {
	Commit   string `yaml:"-"`
	Time     string `yaml:"-"`
	Modified bool   `yaml:"-"`
}

// Revision returns "<commit date>-<short hash>", with "+dirty" for a modified
// tree, or "unknown" for binaries built without VCS data.
func (b *buildInfo) Revision() string {
	if len(b.Commit) < 8 {
		return "unknown"
	}

	date := b.Time
	if len(date) >= len("2006-01-02") {
		date = date[:len("2006-01-02")]
	}

	s := date + "-" + b.Commit[:8]
	if b.Modified {
		s += "+dirty"
	}

	return s
}

func (b *buildInfo) load() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			b.Commit = setting.Value
		case "vcs.time":
			b.Time = setting.Value
		case "vcs.modified":
			b.Modified = setting.Value == "true"
		}
	}
}
