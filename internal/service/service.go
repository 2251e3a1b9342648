// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package service runs routebridge as a long-lived host: it serves the HTTP API and
// periodically probes the loaded dataset with a known route.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/wneessen/routebridge/internal/api"
	"github.com/wneessen/routebridge/internal/config"
	"github.com/wneessen/routebridge/internal/engine"
	"github.com/wneessen/routebridge/internal/logger"
	"github.com/wneessen/routebridge/internal/routing"
)

const (
	probeJobName    = "route_probe_job"
	shutdownTimeout = time.Second * 10
	readTimeout     = time.Second * 10
)

// ProbeStatus is the outcome of the last probe run.
type ProbeStatus struct {
	At       time.Time
	Success  bool
	Reason   string
	Message  string
	Duration time.Duration
	Runs     int
}

type Service struct {
	SignalSrc signalSource

	config    *config.Config
	logger    *logger.Logger
	bridge    *routing.Bridge
	scheduler gocron.Scheduler

	addr atomic.Pointer[string]

	probeLock sync.RWMutex
	probe     ProbeStatus
}

// New loads the configured dataset and prepares the scheduler.
func New(conf *config.Config, log *logger.Logger) (*Service, error) {
	if conf.Dataset.Path == "" {
		return nil, errors.New("no dataset path configured")
	}
	bridge, err := routing.New(conf.Dataset.Path,
		routing.WithLogger(log),
		routing.WithEngineOptions(
			engine.WithSnapRadius(conf.Dataset.SnapRadius),
			engine.WithDefaultSpeed(conf.Dataset.DefaultSpeed),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create route bridge: %w", err)
	}
	return NewWithBridge(conf, log, bridge)
}

// NewWithBridge returns a service around an existing bridge. The service takes ownership of
// the bridge and closes it when Run returns, or right away if the service cannot be created.
func NewWithBridge(conf *config.Config, log *logger.Logger, bridge *routing.Bridge,
	opts ...gocron.SchedulerOption,
) (*Service, error) {
	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		if closeErr := bridge.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Service{
		SignalSrc: stdLibSignalSource{},
		config:    conf,
		logger:    log,
		bridge:    bridge,
		scheduler: scheduler,
	}, nil
}

// Run starts the probe job and the HTTP server and blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) (err error) {
	defer func() {
		if closeErr := s.bridge.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close route bridge: %w", closeErr))
		}
	}()

	if _, _, ok := s.config.ProbePoints(); ok && s.config.Probe.Interval > 0 {
		if err = s.createScheduledJob(ctx, s.config.Probe.Interval, s.runProbe, probeJobName,
			gocron.WithStartAt(gocron.WithStartImmediately())); err != nil {
			return err
		}
	}
	s.scheduler.Start()

	var server *http.Server
	serveErr := make(chan error, 1)
	if s.config.Server.Listen != "" {
		listener, err := net.Listen("tcp", s.config.Server.Listen)
		if err != nil {
			return errors.Join(fmt.Errorf("failed to listen on %s: %w", s.config.Server.Listen, err),
				s.scheduler.Shutdown())
		}
		addr := listener.Addr().String()
		s.addr.Store(&addr)
		server = &http.Server{
			Handler:           api.New(s.bridge, s.logger, s.config.Query.Timeout).Handler(),
			ReadHeaderTimeout: readTimeout,
		}
		s.logger.Info("serving HTTP API", slog.String("addr", addr))
		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		err = fmt.Errorf("HTTP server failed: %w", err)
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to shut down HTTP server: %w", shutdownErr))
		}
	}
	return errors.Join(err, s.scheduler.Shutdown())
}

// Addr returns the address the HTTP server listens on, or an empty string if it is not
// running.
func (s *Service) Addr() string {
	if addr := s.addr.Load(); addr != nil {
		return *addr
	}
	return ""
}

// LastProbe returns the status of the most recent probe run.
func (s *Service) LastProbe() ProbeStatus {
	s.probeLock.RLock()
	defer s.probeLock.RUnlock()
	return s.probe
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string, opts ...gocron.JobOption,
) error {
	opts = append([]gocron.JobOption{
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	}, opts...)
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// runProbe routes the configured probe pair and records the outcome.
func (s *Service) runProbe(ctx context.Context) {
	start, end, ok := s.config.ProbePoints()
	if !ok {
		return
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.config.Query.Timeout)
	defer cancel()

	began := time.Now()
	result := s.bridge.RouteContext(queryCtx, start, end)
	status := ProbeStatus{
		At:       began,
		Success:  result.IsSuccess(),
		Duration: time.Since(began),
	}
	if !status.Success {
		status.Reason = result.Reason().String()
		status.Message = result.ErrorMessage()
	}

	s.probeLock.Lock()
	status.Runs = s.probe.Runs + 1
	s.probe = status
	s.probeLock.Unlock()

	if !status.Success {
		s.logger.Warn("route probe failed", slog.String("start", start.String()),
			slog.String("end", end.String()), slog.String("error", status.Message))
		return
	}
	s.logger.Debug("route probe succeeded", slog.String("start", start.String()),
		slog.String("end", end.String()), slog.Int("points", len(result.Coordinates())),
		slog.Duration("duration", status.Duration))
}

// logStatus writes dataset statistics and the last probe outcome to the log.
func (s *Service) logStatus() {
	attrs := []any{slog.String("addr", s.Addr())}
	if stats, ok := s.bridge.Stats(); ok {
		attrs = append(attrs, slog.String("dataset", stats.Name), slog.Int("nodes", stats.Nodes),
			slog.Int("edges", stats.Edges))
	}
	probe := s.LastProbe()
	attrs = append(attrs, slog.Int("probe_runs", probe.Runs), slog.Bool("probe_success", probe.Success))
	s.logger.Info("current service status", attrs...)
}
