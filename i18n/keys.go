// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"io"
)

// ErrorContext is the gettext msgctxt holding the error section of the table.
const ErrorContext = "error"

// Root keys of the table.
const (
	SquashProject  MsgKey = "service:req:squash:project"
	SquashURL      MsgKey = "service:req:squash:url"
	SquashUser     MsgKey = "service:req:squash:user"
	SquashPassword MsgKey = "service:req:squash:password"

	// Provided by the host console, shipped here for standalone rendering.
	Help MsgKey = "service:req:help"
	Name MsgKey = "name"
)

// Error section of the table.
const (
	ErrSquashProject    ErrorKey = "squash-project"
	ErrSquashConnection ErrorKey = "squash-connection"
	ErrSquashLogin      ErrorKey = "squash-login"
	ErrSquashAdmin      ErrorKey = "squash-admin"
)

// Translatable is a value that can translate itself using a context.
// Types such as [MsgKey] and [ErrorKey] implement Translatable.
type Translatable interface {
	Tr(ctx context.Context) string
}

// MsgKey is a key of the root section of the table.
//
// MsgKey also implements templ.Component, so it can be rendered directly.
type MsgKey string

// Tr translates this key within the locale carried by ctx.
// The ctx may be nil, in which case the base locale is used.
func (k MsgKey) Tr(ctx context.Context) string {
	return Tr(ctx, string(k))
}

func (k MsgKey) Render(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, k.Tr(ctx))

	return err
}

// ErrorKey is a key of the error section of the table.
type ErrorKey string

// Tr translates this key within the locale carried by ctx.
func (k ErrorKey) Tr(ctx context.Context) string {
	return TrC(ctx, ErrorContext, string(k))
}

func (k ErrorKey) Render(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, k.Tr(ctx))

	return err
}

// PluginKeys returns the field labels owned by the plugin, in declaration order.
func PluginKeys() []MsgKey {
	return []MsgKey{SquashProject, SquashURL, SquashUser, SquashPassword}
}

// ErrorKeys returns the error messages owned by the plugin, in declaration order.
func ErrorKeys() []ErrorKey {
	return []ErrorKey{ErrSquashProject, ErrSquashConnection, ErrSquashLogin, ErrSquashAdmin}
}
