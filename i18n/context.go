// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/ligoj/plugin-req-squash/core/cookie"
)

// LangParam is the query parameter overriding the display language.
// The value "auto" discards the language cookie.
const LangParam = "lang"

type tagKey struct{}

// WithTag returns a copy of ctx translating into t.
func WithTag(ctx context.Context, t language.Tag) context.Context {
	return context.WithValue(ctx, tagKey{}, t)
}

// TagFrom returns the tag installed by [WithTag], or the base tag when ctx is
// nil or carries none.
func TagFrom(ctx context.Context) language.Tag {
	if ctx == nil {
		return baseTag
	}

	t, ok := ctx.Value(tagKey{}).(language.Tag)
	if !ok || t == (language.Tag{}) {
		return baseTag
	}

	return t
}

// FromRequest matches the languages asked for by r against the loaded
// catalogues. The query parameter wins over the console cookie, which wins
// over Accept-Language.
func FromRequest(r *http.Request) language.Tag {
	if r == nil {
		return baseTag
	}

	return Match(preferences(r)...)
}

func preferences(r *http.Request) []string {
	var prefs []string

	query := r.URL.Query().Get(LangParam)
	if !strings.EqualFold(query, "auto") {
		if query != "" {
			prefs = append(prefs, query)
		}

		if c, err := r.Cookie(string(cookie.LangCookie)); err == nil && c.Value != "" {
			prefs = append(prefs, c.Value)
		}
	}

	if accept := r.Header.Get("Accept-Language"); accept != "" {
		prefs = append(prefs, accept)
	}

	return prefs
}
