// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package squash

import (
	"context"
	"fmt"
	"strings"

	"github.com/ligoj/plugin-req-squash/i18n"
)

// ValidationError reports a subscription parameter rejected by Squash TM.
//
// Key is the message of the error section of the localization table,
// and Args are its optional arguments, such as the project identifier.
type ValidationError struct {
	Parameter i18n.MsgKey
	Key       i18n.ErrorKey
	Args      []any
}

func newValidationError(parameter i18n.MsgKey, key i18n.ErrorKey, args ...any) *ValidationError {
	return &ValidationError{Parameter: parameter, Key: key, Args: args}
}

// Error returns the message in the base locale.
func (e *ValidationError) Error() string {
	return e.Localize(context.Background())
}

// Localize returns "<field label>: <message>" in the locale carried by ctx,
// followed by the arguments, if any.
func (e *ValidationError) Localize(ctx context.Context) string {
	var b strings.Builder

	b.WriteString(e.Parameter.Tr(ctx))
	b.WriteString(": ")
	b.WriteString(e.Key.Tr(ctx))

	if len(e.Args) > 0 {
		b.WriteString(" (")

		for i, arg := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}

			fmt.Fprint(&b, arg)
		}

		b.WriteString(")")
	}

	return b.String()
}

// Is matches another *ValidationError with the same parameter and key,
// regardless of arguments.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)

	return ok && t.Parameter == e.Parameter && t.Key == e.Key
}

// Sentinel values for errors.Is.
var (
	ErrProjectNotFound = &ValidationError{Parameter: ParamProject, Key: i18n.ErrSquashProject}
	ErrUnreachable     = &ValidationError{Parameter: ParamURL, Key: i18n.ErrSquashConnection}
	ErrLoginFailed     = &ValidationError{Parameter: ParamUser, Key: i18n.ErrSquashLogin}
	ErrNoAdminAccess   = &ValidationError{Parameter: ParamUser, Key: i18n.ErrSquashAdmin}
)
