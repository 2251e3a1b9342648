// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build unix

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"time"

	"github.com/wneessen/routebridge/internal/batch"
	"github.com/wneessen/routebridge/internal/geo"
	"github.com/wneessen/routebridge/internal/routing"
)

func (a *app) batch(ctx context.Context, args []string) (err error) {
	flags := flag.NewFlagSet("batch", flag.ContinueOnError)
	flags.SetOutput(a.stderr())
	in := flags.String("in", "", "input workbook with origin/destination pairs")
	out := flags.String("out", "", "output workbook")
	sheet := flags.String("sheet", "", "input sheet, defaults to the first sheet")
	workers := flags.Int("workers", a.conf.Batch.Workers, "number of parallel workers, 0 uses all CPUs")
	if err = flags.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return errors.New("-in and -out are required")
	}

	jobs, err := batch.ReadJobs(*in, *sheet)
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

	a.log.Info("starting batch routing", slog.Int("jobs", len(jobs)), slog.Int("workers", *workers))
	router := &timeoutRouter{bridge: bridge, timeout: a.conf.Query.Timeout}
	rows := batch.Run(ctx, router, jobs, *workers, func(done, total int) {
		a.log.Debug("batch progress", slog.Int("done", done), slog.Int("total", total))
	})

	failed := 0
	for _, row := range rows {
		if !row.Success {
			failed++
		}
	}
	if err = batch.WriteResults(*out, batch.DefaultSheet, rows); err != nil {
		return err
	}
	a.log.Info("batch routing completed", slog.Int("routed", len(rows)-failed), slog.Int("failed", failed),
		slog.String("output", *out))
	return nil
}

// timeoutRouter bounds every batch query by the configured timeout.
type timeoutRouter struct {
	bridge  *routing.Bridge
	timeout time.Duration
}

func (r *timeoutRouter) RouteContext(ctx context.Context, start, end geo.Coordinate) routing.Result {
	queryCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.bridge.RouteContext(queryCtx, start, end)
}
