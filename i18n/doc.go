// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n provides the localization table of the Squash TM plugin, backed by
GNU gettext .po catalogues embedded from the po/ directory.

# Keys

Messages are identified by stable, namespaced keys rather than English text.
Root keys are typed as [MsgKey] and error messages, which live in the "error"
section of the table, are typed as [ErrorKey]:

	i18n.SquashProject.Tr(ctx)     // "Project" / "Projet"
	i18n.ErrSquashLogin.Tr(ctx)    // "Authentication failed"

The error section maps to the gettext msgctxt "error".

# Fallback

A lookup first consults the locale carried by ctx (see [WithTag] and
[FromRequest]). When that locale lacks the key, the [BaseLocale] catalogue is
consulted. When both lack it, [Lookup] reports ok == false and the Tr
functions return the key unchanged, or visibly wrapped as "⟦...⟧" when
StrictMissingKeys is enabled.

# Formatting

Translations can include placeholders that are processed by Go's standard
text/template package. Provide substitutions as alternating key-value pairs:

	i18n.Tr(ctx, "squash-version", "Version", v)

# Catalogues

po/squash.pot is generated by cmd/i18n_extract from the typed key constants.
*/
package i18n
