// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"cmp"
	"errors"
	"slices"

	"golang.org/x/text/language"
)

// BaseLocale is used when nothing better matches, and completes the other
// locales for the keys they leave out.
const BaseLocale = "en"

var baseTag = language.Make(BaseLocale)

var (
	errNoCatalogues      = errors.New("no catalogues")
	errMissingBaseLocale = errors.New("base locale catalogue is missing")
)

// Languages returns the loaded locales sorted by tag. It panics before Setup.
func Languages() []language.Tag {
	if matcher == nil {
		panic("i18n: Languages called before Setup")
	}

	out := slices.Clone(supportedTags)
	slices.SortFunc(out, func(a, b language.Tag) int { return cmp.Compare(a.String(), b.String()) })

	return out
}

// Match returns the loaded locale best fitting preferred, a list of BCP 47
// tags or Accept-Language values. It returns the base tag before Setup or
// when preferred is empty.
func Match(preferred ...string) language.Tag {
	if matcher == nil || len(preferred) == 0 {
		return baseTag
	}

	_, i := language.MatchStrings(matcher, preferred...)

	return supportedTags[i]
}
