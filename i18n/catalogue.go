// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import "github.com/leonelquinteros/gotext"

// entryKey identifies a catalogue entry by msgctxt and msgid.
type entryKey struct {
	context string
	msgid   string
}

// catalogue holds the singular msgstr of every translated entry of one locale.
//
// The table has no plural entries, so msgstr[0] is read as is. Going through
// the Plural-Forms rule would pick another index for locales such as "en",
// where n == 0 is plural.
type catalogue map[entryKey]string

// newCatalogue snapshots the translated entries of dom. Entries with an empty
// msgstr are left out so that lookups fall through to the base locale.
func newCatalogue(dom *gotext.Domain) catalogue {
	c := make(catalogue)

	for msgid, tr := range dom.GetTranslations() {
		c.add("", msgid, tr)
	}

	for ctx, translations := range dom.GetCtxTranslations() {
		for msgid, tr := range translations {
			c.add(ctx, msgid, tr)
		}
	}

	return c
}

func (c catalogue) add(ctx, msgid string, tr *gotext.Translation) {
	if msgid == "" {
		return
	}

	if text := tr.Trs[0]; text != "" {
		c[entryKey{ctx, msgid}] = text
	}
}

// get returns the translation of msgid under contextKey.
func (c catalogue) get(contextKey, msgid string) (string, bool) {
	text, ok := c[entryKey{contextKey, msgid}]

	return text, ok
}
