// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package squash

import (
	"strings"

	"github.com/ligoj/plugin-req-squash/i18n"
)

// Key identifies the plugin among the requirement services.
const Key = "service:req:squash"

// RestPath is the base path of the plugin's REST resources, relative to the console's REST root.
const RestPath = "service/req/squash/"

// Subscription and node parameters. Their names double as field labels.
const (
	ParamURL      = i18n.SquashURL
	ParamUser     = i18n.SquashUser
	ParamPassword = i18n.SquashPassword
	ParamProject  = i18n.SquashProject
)

// Parameters maps parameter names to values, as stored for a node or subscription.
type Parameters map[string]string

// Get returns the value of p, or "" when absent.
func (params Parameters) Get(p i18n.MsgKey) string {
	return params[string(p)]
}

// baseURL returns the Squash TM URL with a trailing slash.
func (params Parameters) baseURL() string {
	u := params.Get(ParamURL)
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}

	return u
}

// cacheScope isolates cached pages per Squash TM account.
func (params Parameters) cacheScope() string {
	return params.baseURL() + "\x00" + params.Get(ParamUser) + "\x00" + params.Get(ParamPassword)
}
