// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package routing

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wneessen/routebridge/internal/engine"
	"github.com/wneessen/routebridge/internal/geo"
)

// ErrEmptyPath is returned by Open if no dataset path was given.
var ErrEmptyPath = errors.New("dataset path must not be empty")

// Outcome is the raw answer of a Querier. It is either Found or NotFound.
type Outcome interface {
	outcome()
}

// Found carries the path computed by the engine.
type Found struct {
	Path *engine.Path
}

// NotFound carries the classified reason and the underlying error of a failed query.
type NotFound struct {
	Reason Reason
	Err    error
}

func (Found) outcome()    {}
func (NotFound) outcome() {}

// Querier answers point-to-point route queries.
type Querier interface {
	Query(start, end geo.Coordinate) Outcome
}

// Searcher finds named places to route to.
type Searcher interface {
	Search(query string, limit int) []engine.Place
}

// Handle owns a loaded routing engine bound to a single dataset. A Handle only exists in a
// fully initialized state and is safe for concurrent use.
type Handle struct {
	engine *engine.Engine

	closeOnce sync.Once
	closeErr  error
}

// Open loads the dataset at path. On failure the returned handle is nil.
func Open(path string, opts ...engine.Option) (*Handle, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	eng, err := engine.Load(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load routing dataset %q: %w", path, err)
	}
	return &Handle{engine: eng}, nil
}

// Query runs a fastest path search between start and end. Engine panics are recovered and
// reported as internal failures.
func (h *Handle) Query(start, end geo.Coordinate) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = NotFound{Reason: ReasonInternal, Err: fmt.Errorf("engine panic: %v", r)}
		}
	}()

	path, err := h.engine.Route(start, end)
	if err != nil {
		return NotFound{Reason: classify(err), Err: err}
	}
	return Found{Path: path}
}

// Search returns the places of the dataset whose name or city contains query.
func (h *Handle) Search(query string, limit int) []engine.Place {
	return h.engine.Search(query, limit)
}

// Stats returns information about the loaded dataset, including the dataset path.
func (h *Handle) Stats() engine.Stats {
	return h.engine.Stats()
}

// Close releases the engine. It is safe to call Close multiple times.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		if err := h.engine.Close(); err != nil {
			h.closeErr = fmt.Errorf("failed to close routing engine: %w", err)
		}
	})
	return h.closeErr
}

func classify(err error) Reason {
	var rangeErr *geo.RangeError
	switch {
	case errors.As(err, &rangeErr):
		return ReasonInvalidInput
	case errors.Is(err, engine.ErrUnroutablePoint):
		return ReasonUnroutablePoint
	case errors.Is(err, engine.ErrNoRoute):
		return ReasonNoRoute
	default:
		return ReasonInternal
	}
}
