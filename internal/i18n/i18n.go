// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

//go:embed locale/*
var locales embed.FS

// humanizers holds the number and duration formats of every language shipped in locale/.
var humanizers = sync.OnceValue(func() *humanize.Collection {
	return humanize.MustNew(humanize.WithLocale(de.New()))
})

// New returns a localizer for the given locale string. An empty locale is detected from the
// environment; if that fails, English is used.
func New(loc string) (*spreak.Localizer, error) {
	tag := language.Make(loc)
	var err error
	if loc == "" {
		tag, err = locale.Detect()
		if err != nil {
			tag = language.English // Unable to detect locale, fallback to English
		}
	}

	localeFS, err := fs.Sub(locales, "locale")
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}

	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(language.English),
		spreak.WithFallbackLanguage(language.English),
		spreak.WithDomainFs(spreak.NoDomain, localeFS),
		spreak.WithLanguage(tag),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}
	return spreak.NewLocalizer(bundle, tag), nil
}

// Default returns an English localizer. It is used wherever no localizer was configured.
func Default() *spreak.Localizer {
	loc, err := New("en")
	if err != nil {
		panic(fmt.Sprintf("embedded locales are broken: %s", err))
	}
	return loc
}

// NewHumanizer returns a humanizer for the language of loc. A nil localizer selects English.
func NewHumanizer(loc *spreak.Localizer) *humanize.Humanizer {
	if loc == nil {
		return humanizers().CreateHumanizer(language.English)
	}
	return humanizers().CreateHumanizer(loc.Language())
}
