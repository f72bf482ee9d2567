// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/ligoj/plugin-req-squash/config"
)

// logger is derived from the global logger by SetupFS.
var logger zerolog.Logger

// reported holds the missing entries already logged, per locale.
var reported sync.Map

type missingEntry struct {
	locale  string
	context string
	msgid   string
}

func strictMode() bool {
	return config.Global.Internationalization.StrictMissingKeys
}

// reportMissing warns once about each entry that neither the locale matched
// for a request nor the base locale translates. Variants are ignored so that
// "fr-FR" and "fr-CA" share their reports.
func reportMissing(t language.Tag, contextKey, msgid string) {
	b, s, r := t.Raw()
	t, _ = language.Compose(b, s, r)

	entry := missingEntry{t.String(), contextKey, msgid}
	if _, seen := reported.LoadOrStore(entry, struct{}{}); seen {
		return
	}

	logger.Warn().
		Str("locale", entry.locale).
		Func(func(e *zerolog.Event) {
			if contextKey != "" {
				e.Str("context", contextKey)
			}
		}).
		Str("key", msgid).
		Msg("Missing translation")
}
