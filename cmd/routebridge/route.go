// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build unix

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"

	"github.com/wneessen/routebridge/internal/geo"
	"github.com/wneessen/routebridge/internal/logger"
	"github.com/wneessen/routebridge/internal/presenter"
	"github.com/wneessen/routebridge/internal/routing"
)

// endpoints are the raw origin and destination flags of a route command.
type endpoints struct {
	from   string
	to     string
	toName string
	useGPS bool
}

func (a *app) route(ctx context.Context, args []string) (err error) {
	var ends endpoints
	flags := flag.NewFlagSet("route", flag.ContinueOnError)
	flags.SetOutput(a.stderr())
	flags.StringVar(&ends.from, "from", "", "origin as lat,lon")
	flags.StringVar(&ends.to, "to", "", "destination as lat,lon")
	flags.StringVar(&ends.toName, "to-name", "", "destination as the name of a place in the dataset")
	flags.BoolVar(&ends.useGPS, "gpsd", false, "use the current gpsd position as origin")
	format := flags.String("format", string(presenter.FormatText), "output format: text or json")
	width := flags.Int("width", 0, "clip instructions to this display width, 0 disables clipping")
	if err = flags.Parse(args); err != nil {
		return err
	}
	if err = ends.check(); err != nil {
		return err
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

	start, end, err := a.routeEndpoints(ctx, bridge, ends)
	if err != nil {
		return err
	}

	queryCtx, cancel := context.WithTimeout(ctx, a.conf.Query.Timeout)
	defer cancel()
	result := bridge.RouteContext(queryCtx, start, end)
	if err = pres.Render(a.stdout, presenter.Format(*format), start, end, result); err != nil {
		return err
	}
	if !result.IsSuccess() {
		return errReported
	}
	return nil
}

// check validates the flag combination before any dataset is loaded.
func (e endpoints) check() error {
	if !e.useGPS && e.from == "" {
		return errors.New("either -from or -gpsd is required")
	}
	switch {
	case e.to == "" && e.toName == "":
		return errors.New("either -to or -to-name is required")
	case e.to != "" && e.toName != "":
		return errors.New("-to and -to-name are mutually exclusive")
	}
	return nil
}

func (a *app) routeEndpoints(ctx context.Context, bridge *routing.Bridge, ends endpoints) (geo.Coordinate,
	geo.Coordinate, error,
) {
	var start, end geo.Coordinate
	switch {
	case ends.useGPS:
		if a.locator == nil {
			return start, end, errors.New("no position source configured")
		}
		fix, err := a.locator.Locate(ctx)
		if err != nil {
			return start, end, fmt.Errorf("failed to determine current position: %w", err)
		}
		a.log.Debug("using current position as origin", slog.String("position", fix.Coordinate.String()),
			slog.Float64("accuracy", fix.Acc))
		start = fix.Coordinate
	default:
		coord, err := geo.Parse(ends.from)
		if err != nil {
			return start, end, err
		}
		start = coord
	}

	if ends.toName != "" {
		places, err := bridge.Search(ends.toName, 1)
		if err != nil {
			return start, end, err
		}
		if len(places) == 0 {
			return start, end, fmt.Errorf("no place matches %q", ends.toName)
		}
		a.log.Debug("using place as destination", slog.String("place", places[0].Name),
			slog.String("position", places[0].Location.String()))
		return start, places[0].Location, nil
	}
	end, err := geo.Parse(ends.to)
	if err != nil {
		a.log.Debug("failed to parse destination", logger.Err(err))
		return start, end, err
	}
	return start, end, nil
}
