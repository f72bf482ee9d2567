// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/leonelquinteros/gotext"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/ligoj/plugin-req-squash/server/assets"
)

// catalogueDir holds one <locale>.po per language, plus the squash.pot
// template which is not loaded.
const catalogueDir = "po"

var (
	// localesByTag maps the canonical tag of each loaded locale to its table.
	localesByTag map[string]catalogue

	// supportedTags lists the loaded locales, base tag first.
	supportedTags []language.Tag

	matcher language.Matcher
)

// Setup loads the catalogues embedded in [assets.FS].
func Setup() error {
	return SetupFS(assets.FS)
}

// SetupFS loads every po/<locale>.po of fsys, replacing the locales loaded
// before. Locale names may use "_" or "-" ("pt_BR.po", "pt-BR.po"). The
// [BaseLocale] catalogue is required.
func SetupFS(fsys fs.FS) error {
	logger = log.With().Str("sys", "i18n").Logger()

	localesByTag, supportedTags, matcher = map[string]catalogue{}, nil, nil

	if fsys == nil {
		return errNoCatalogues
	}

	files, err := fs.Glob(fsys, path.Join(catalogueDir, "*.po"))
	if err != nil || len(files) == 0 {
		return fmt.Errorf("%w: no %s/*.po", errNoCatalogues, catalogueDir)
	}

	var others []language.Tag

	// fs.Glob returns sorted names, so others is in file order.
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".po")

		t, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
		if err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("Skipping catalogue with an invalid locale name")

			continue
		}

		po := gotext.NewPoFS(fsys)
		po.ParseFile(file)

		cat := newCatalogue(po.GetDomain())
		localesByTag[t.String()] = cat

		if t != baseTag {
			others = append(others, t)
		}

		logger.Info().Str("locale", t.String()).Int("entries", len(cat)).Msg("Loaded catalogue")
	}

	if _, ok := localesByTag[BaseLocale]; !ok {
		return fmt.Errorf("%w: %s", errMissingBaseLocale, BaseLocale)
	}

	// The first tag is what the matcher falls back to.
	supportedTags = append([]language.Tag{baseTag}, others...)
	matcher = language.NewMatcher(supportedTags)

	return nil
}
