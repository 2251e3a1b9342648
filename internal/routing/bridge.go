// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package routing is the query bridge between a host application and the offline routing
// engine. It owns the engine lifecycle and turns every query into a Result value, so no
// engine error or panic ever crosses into the caller.
package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/wneessen/routebridge/internal/engine"
	"github.com/wneessen/routebridge/internal/geo"
	"github.com/wneessen/routebridge/internal/logger"
)

// ErrSearchUnsupported is returned by Search if the querier cannot search for places.
var ErrSearchUnsupported = errors.New("place search is not supported by this engine")

// addressPattern matches memory addresses that may leak into engine error texts.
var addressPattern = regexp.MustCompile(`\s*\(?0x[0-9a-fA-F]+\)?`)

// Bridge accepts route queries and normalizes the engine's answers into Result values.
type Bridge struct {
	querier    Querier
	logger     *logger.Logger
	engineOpts []engine.Option
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger enables debug logging of every query with its outcome and duration.
func WithLogger(log *logger.Logger) Option {
	return func(b *Bridge) {
		b.logger = log
	}
}

// WithEngineOptions passes options to the engine when the dataset is loaded by New.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(b *Bridge) {
		b.engineOpts = append(b.engineOpts, opts...)
	}
}

// New loads the dataset at datasetPath and returns a bridge bound to it. On failure the
// returned bridge is nil.
func New(datasetPath string, opts ...Option) (*Bridge, error) {
	bridge := &Bridge{}
	for _, opt := range opts {
		opt(bridge)
	}
	handle, err := Open(datasetPath, bridge.engineOpts...)
	if err != nil {
		return nil, err
	}
	bridge.querier = handle
	return bridge, nil
}

// NewWithQuerier returns a bridge over an arbitrary Querier.
func NewWithQuerier(querier Querier, opts ...Option) *Bridge {
	bridge := &Bridge{querier: querier}
	for _, opt := range opts {
		opt(bridge)
	}
	return bridge
}

// Route returns the fastest path from start to end. It never panics and never returns nil.
func (b *Bridge) Route(start, end geo.Coordinate) Result {
	began := time.Now()
	result := b.route(start, end)
	if b.logger != nil {
		attrs := []any{
			slog.String("start", start.String()),
			slog.String("end", end.String()),
			slog.Duration("duration", time.Since(began)),
			slog.Bool("success", result.IsSuccess()),
		}
		if !result.IsSuccess() {
			attrs = append(attrs, slog.String("reason", result.Reason().String()),
				slog.String("error", result.ErrorMessage()))
		} else {
			attrs = append(attrs, slog.Int("points", len(result.Coordinates())))
		}
		b.logger.Debug("route query finished", attrs...)
	}
	return result
}

// RouteContext is like Route but returns an internal failure once ctx is done. The search
// itself is not interrupted and its result is discarded.
func (b *Bridge) RouteContext(ctx context.Context, start, end geo.Coordinate) Result {
	if err := ctx.Err(); err != nil {
		return NewFailure(ReasonInternal, fmt.Sprintf("query canceled: %s", err))
	}
	done := make(chan Result, 1)
	go func() {
		done <- b.Route(start, end)
	}()
	select {
	case result := <-done:
		return result
	case <-ctx.Done():
		return NewFailure(ReasonInternal, fmt.Sprintf("query canceled: %s", ctx.Err()))
	}
}

// Search returns up to limit places whose name or city contains query. Blank queries return
// no places.
func (b *Bridge) Search(query string, limit int) ([]engine.Place, error) {
	searcher, ok := b.querier.(Searcher)
	if !ok {
		return nil, ErrSearchUnsupported
	}
	places := searcher.Search(query, limit)
	if b.logger != nil {
		b.logger.Debug("place search finished", slog.String("query", query), slog.Int("results", len(places)))
	}
	return places, nil
}

// Stats returns information about the loaded dataset. It reports false if the bridge does
// not run on a local engine.
func (b *Bridge) Stats() (engine.Stats, bool) {
	handle, ok := b.querier.(*Handle)
	if !ok {
		return engine.Stats{}, false
	}
	return handle.Stats(), true
}

// Close releases the underlying engine if the querier supports it.
func (b *Bridge) Close() error {
	closer, ok := b.querier.(io.Closer)
	if !ok {
		return nil
	}
	return closer.Close()
}

func (b *Bridge) route(start, end geo.Coordinate) (result Result) {
	if err := start.Validate(); err != nil {
		return NewFailure(ReasonInvalidInput, "start "+err.Error())
	}
	if err := end.Validate(); err != nil {
		return NewFailure(ReasonInvalidInput, "end "+err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			result = NewFailure(ReasonInternal, sanitize(fmt.Sprintf("engine panic: %v", r)))
		}
	}()

	switch out := b.querier.Query(start, end).(type) {
	case Found:
		return successFrom(out.Path, start, end)
	case NotFound:
		return failureFrom(out)
	default:
		return NewFailure(ReasonInternal, fmt.Sprintf("unexpected engine outcome %T", out))
	}
}

func successFrom(path *engine.Path, start, end geo.Coordinate) *Success {
	if path == nil {
		return NewSuccess([]geo.Coordinate{start, end}, []string{})
	}
	coords := path.Geometry
	if len(coords) < 2 {
		coords = []geo.Coordinate{start, end}
	}
	texts := make([]string, 0, len(path.Instructions))
	for _, instruction := range path.Instructions {
		texts = append(texts, instruction.String())
	}
	success := NewSuccess(coords, texts)
	success.distance = path.Distance
	success.duration = path.Duration
	return success
}

func failureFrom(out NotFound) *Failure {
	reason := out.Reason
	if reason == ReasonNone {
		reason = ReasonInternal
	}
	if out.Err == nil {
		return NewFailure(reason, "")
	}
	detail := sanitize(out.Err.Error())
	// The sentinel wording duplicates the reason, keep only the context around it.
	for _, sentinel := range []error{engine.ErrUnroutablePoint, engine.ErrNoRoute} {
		if errors.Is(out.Err, sentinel) {
			detail = strings.TrimSuffix(strings.TrimSuffix(detail, sentinel.Error()), ": ")
			if detail == "" {
				detail = sentinel.Error()
			}
		}
	}
	return NewFailure(reason, detail)
}

func sanitize(msg string) string {
	return strings.TrimSpace(addressPattern.ReplaceAllString(msg, ""))
}
