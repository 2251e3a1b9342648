// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build unix

// Package main implements the routebridge command line host.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/vorlif/spreak"

	"github.com/wneessen/routebridge/internal/config"
	"github.com/wneessen/routebridge/internal/engine"
	"github.com/wneessen/routebridge/internal/i18n"
	"github.com/wneessen/routebridge/internal/logger"
	"github.com/wneessen/routebridge/internal/position"
	"github.com/wneessen/routebridge/internal/routing"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errReported signals a failure that was already printed or logged.
var errReported = errors.New("failure already reported")

const usage = `Usage: routebridge [-config FILE] COMMAND [OPTIONS]

Commands:
  route   compute a single route
  search  list places of the dataset by name or city
  batch   route all pairs of an Excel workbook
  serve   run the HTTP API and the route probe
`

type app struct {
	conf      *config.Config
	log       *logger.Logger
	localizer *spreak.Localizer
	locator   position.Locator
	stdout    io.Writer
	errout    io.Writer
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.New(slog.LevelError)

	flags := flag.NewFlagSet("routebridge", flag.ExitOnError)
	flags.Usage = func() { _, _ = fmt.Fprint(flags.Output(), usage) }
	confPath := flags.String("config", "", "path to the config file")
	_ = flags.Parse(os.Args[1:])
	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}

	conf, err := loadConfig(*confPath)
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	log = logger.New(conf.LogLevel)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	a := &app{
		conf:      conf,
		log:       log,
		localizer: t,
		locator:   position.New(conf.GPSD.Host, conf.GPSD.Port, conf.GPSD.Timeout),
		stdout:    os.Stdout,
		errout:    os.Stderr,
	}
	cmd, args := flags.Arg(0), flags.Args()[1:]
	switch cmd {
	case "route":
		err = a.route(ctx, args)
	case "search":
		err = a.search(args)
	case "batch":
		err = a.batch(ctx, args)
	case "serve":
		err = a.serve(ctx)
	default:
		flags.Usage()
		os.Exit(2)
	}
	os.Exit(a.exitCode(cmd, err))
}

// exitCode logs err unless it was already reported and maps it to the process exit code.
// Asking a command for help is not a failure.
func (a *app) exitCode(cmd string, err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errReported):
		return 1
	default:
		a.log.Error(fmt.Sprintf("%s command failed", cmd), logger.Err(err))
		return 1
	}
}

// stderr returns the writer for usage and help texts of the subcommands.
func (a *app) stderr() io.Writer {
	if a.errout == nil {
		return io.Discard
	}
	return a.errout
}

// loadConfig reads the defaults and environment, then the given file or the first config file
// found in the default location.
func loadConfig(confPath string) (*config.Config, error) {
	if confPath != "" {
		return config.NewFromFile(filepath.Dir(confPath), filepath.Base(confPath))
	}
	if path, file := findConfigFile(); path != "" && file != "" {
		return config.NewFromFile(path, file)
	}
	return config.New()
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "routebridge", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}

// newBridge loads the configured dataset with the configured engine settings.
func (a *app) newBridge() (*routing.Bridge, error) {
	if a.conf.Dataset.Path == "" {
		return nil, errors.New("no dataset path configured")
	}
	return routing.New(a.conf.Dataset.Path,
		routing.WithLogger(a.log),
		routing.WithEngineOptions(
			engine.WithSnapRadius(a.conf.Dataset.SnapRadius),
			engine.WithDefaultSpeed(a.conf.Dataset.DefaultSpeed),
			engine.WithLocalizer(a.localizer),
		),
	)
}
