// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package partials holds the service views called directly by backend code.

A service view renders a subscription through the widget framework it is
given, rather than reaching for a global one, so that routes and tests can
swap the framework.
*/
package partials
