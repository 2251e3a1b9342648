// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build unix

package main

import (
	"errors"
	"flag"
	"strings"

	"github.com/wneessen/routebridge/internal/engine"
	"github.com/wneessen/routebridge/internal/presenter"
)

func (a *app) search(args []string) (err error) {
	flags := flag.NewFlagSet("search", flag.ContinueOnError)
	flags.SetOutput(a.stderr())
	format := flags.String("format", string(presenter.FormatText), "output format: text or json")
	limit := flags.Int("limit", 10, "maximum number of places to list")
	width := flags.Int("width", 0, "clip place names to this display width, 0 disables clipping")
	if err = flags.Parse(args); err != nil {
		return err
	}
	query := strings.Join(flags.Args(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("a search query is required")
	}
	if *limit < 1 || *limit > engine.MaxSearchResults {
		return errors.New("-limit must be between 1 and 50")
	}

	pres, err := presenter.New(a.localizer, "", presenter.WithMaxWidth(*width))
	if err != nil {
		return err
	}
	bridge, err := a.newBridge()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := bridge.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	places, err := bridge.Search(query, *limit)
	if err != nil {
		return err
	}
	return pres.RenderPlaces(a.stdout, presenter.Format(*format), places)
}
