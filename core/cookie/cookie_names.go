// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
This package defines the cookie names used by this application.
*/
package cookie

type CookieName string

// Cookie names defined as constants.
const (
	// LangCookie holds the display language chosen in the console.
	LangCookie CookieName = "lang"

	// Read by the Squash TM requirement workspace to expand and select a
	// node of the requirement tree. Set on the console's domain with path "/".
	JSTreeOpenCookie   CookieName = "jstree_open"
	JSTreeSelectCookie CookieName = "jstree_select"
)
