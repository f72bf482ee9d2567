// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package middleware holds the request chain of the plugin and [CatchError],
// which turns the errors of Squash TM routes into console answers.
package middleware
