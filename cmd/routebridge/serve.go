// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build unix

package main

import (
	"context"
	"log/slog"
	"os"
	"syscall"

	"github.com/wneessen/routebridge/internal/logger"
	"github.com/wneessen/routebridge/internal/service"
)

func (a *app) serve(ctx context.Context) error {
	bridge, err := a.newBridge()
	if err != nil {
		return err
	}
	serv, err := service.NewWithBridge(a.conf, a.log, bridge)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	serv.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		defer serv.SignalSrc.Stop(sigChan)
		serv.HandleSignals(ctx, sigChan)
	}()

	a.log.Info(a.localizer.Get("starting routebridge service"), slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date))
	if err = serv.Run(ctx); err != nil {
		a.log.Error(a.localizer.Get("failed to start routebridge service"), logger.Err(err))
		return errReported
	}
	a.log.Info(a.localizer.Get("shutting down routebridge service"))
	return nil
}
