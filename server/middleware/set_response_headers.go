// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/ligoj/plugin-req-squash/config"
)

// baseHeaders are set on every answer before the handler runs, so handlers
// may replace them. The fragments and error pages load no script.
var baseHeaders = http.Header{
	"Cache-Control":          {"private, no-cache"},
	"Referrer-Policy":        {"no-referrer"},
	"X-Content-Type-Options": {"nosniff"},
	"X-Frame-Options":        {"DENY"},
	"Content-Security-Policy": {strings.Join([]string{
		"default-src 'none'",
		"base-uri 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")},
	"Permissions-Policy": {"camera=(), display-capture=(), geolocation=(), microphone=(), payment=(), usb=()"},
}

// clearedSiteData is set once the first development answer asked the
// browser to drop its cache.
var clearedSiteData atomic.Bool

// SetResponseHeaders sets the security and cache headers, and the plugin
// version and revision.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	h := w.Header()

	for name, values := range baseHeaders {
		h[name] = append([]string(nil), values...)
	}

	h.Set("Plugin-Version", config.BuildVersion)
	h.Set("Plugin-Revision", config.Global.Build.Revision())

	if config.Global.Development.InDevelopment && clearedSiteData.CompareAndSwap(false, true) {
		h.Set("Clear-Site-Data", `"cache"`)
	}

	next.ServeHTTP(w, r)
}
