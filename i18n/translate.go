// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// Vars are the named placeholders of a translation.
type Vars map[string]any

// templates caches parsed translations by text.
var templates sync.Map

// Tr translates a root key. kv are alternating placeholder names and values,
// referenced in the translation as {{.Name}}.
//
// A key that no catalogue translates comes back unchanged, or wrapped in
// "⟦⟧" in strict mode.
func Tr(ctx context.Context, msgid string, kv ...any) string {
	return translate(ctx, "", msgid, kv)
}

// TrC is Tr for a key of the contextKey section, such as [ErrorContext].
func TrC(ctx context.Context, contextKey, msgid string, kv ...any) string {
	return translate(ctx, contextKey, msgid, kv)
}

// Lookup returns the raw translation of msgid in the locale matching t,
// completed by the base locale. ok is false when neither has it.
func Lookup(t language.Tag, contextKey, msgid string) (text string, ok bool) {
	text, _, ok = lookup(t, contextKey, msgid)

	return text, ok
}

func translate(ctx context.Context, contextKey, msgid string, kv []any) string {
	text, matched, ok := lookup(TagFrom(ctx), contextKey, msgid)
	if ok {
		return format(matched, text, pairs(kv))
	}

	if !strictMode() {
		return msgid
	}

	reportMissing(matched, contextKey, msgid)

	return "⟦" + msgid + "⟧"
}

func lookup(t language.Tag, contextKey, msgid string) (string, language.Tag, bool) {
	matched := Match(t.String())

	if text, ok := localesByTag[matched.String()].get(contextKey, msgid); ok {
		return text, matched, true
	}

	text, ok := localesByTag[BaseLocale].get(contextKey, msgid)

	return text, matched, ok
}

// format executes text as a template over vars. A translation that fails to
// parse or execute is returned as is, or wrapped in strict mode.
func format(locale language.Tag, text string, vars Vars) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	var sb strings.Builder

	tmpl, err := parsed(text)
	if err == nil {
		err = tmpl.Execute(&sb, map[string]any(vars))
	}

	switch {
	case err == nil:
		return sb.String()
	case strictMode():
		return "⟦" + text + "⟧"
	default:
		logger.Warn().Err(err).Str("locale", locale.String()).Str("text", text).Msg("Malformed translation")

		return text
	}
}

func parsed(text string) (*template.Template, error) {
	if tmpl, ok := templates.Load(text); ok {
		return tmpl.(*template.Template), nil
	}

	tmpl, err := template.New("msg").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, err
	}

	templates.Store(text, tmpl)

	return tmpl, nil
}

// pairs builds Vars from alternating names and values. It panics on an odd
// count or a non-string name.
func pairs(kv []any) Vars {
	if len(kv)%2 != 0 {
		panic("i18n: odd number of placeholder arguments")
	}

	vars := make(Vars, len(kv)/2)

	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic("i18n: placeholder name must be a string")
		}

		vars[name] = kv[i+1]
	}

	return vars
}
