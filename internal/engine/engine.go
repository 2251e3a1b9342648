// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package engine implements the offline routing engine. It loads a pre-built road network
// dataset, snaps coordinates onto the network, searches the fastest path and derives turn
// instructions for it.
//
// An Engine is read-only once Load returns. Route may be called concurrently from multiple
// goroutines.
package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vorlif/spreak"

	"github.com/wneessen/routebridge/internal/geo"
	"github.com/wneessen/routebridge/internal/i18n"
)

const (
	// DefaultSnapRadius is the maximum distance in meters between a query coordinate and the
	// road network node it is matched to.
	DefaultSnapRadius = 500.0

	// DefaultSpeed is the travel speed in km/h assumed for ways without a speed limit.
	DefaultSpeed = 50.0
)

var (
	// ErrUnroutablePoint is returned if a coordinate cannot be matched onto the road network.
	ErrUnroutablePoint = errors.New("point is too far from any routable road")

	// ErrNoRoute is returned if both coordinates were matched but no path connects them.
	ErrNoRoute = errors.New("no connected path between the snapped points")

	// ErrClosed is returned by Route after Close was called.
	ErrClosed = errors.New("engine is closed")
)

// Engine answers point-to-point route queries against a loaded dataset.
type Engine struct {
	path       string
	snapRadius float64
	speed      float64
	localizer  *spreak.Localizer

	graph atomic.Pointer[graph]
}

// Option configures an Engine.
type Option func(*Engine)

// WithSnapRadius sets the maximum snapping distance in meters.
func WithSnapRadius(meters float64) Option {
	return func(e *Engine) {
		if meters > 0 {
			e.snapRadius = meters
		}
	}
}

// WithDefaultSpeed sets the speed in km/h for ways that do not define one. Speeds below
// MinSpeed are ignored.
func WithDefaultSpeed(kmh float64) Option {
	return func(e *Engine) {
		if kmh >= MinSpeed {
			e.speed = kmh
		}
	}
}

// WithLocalizer sets the localizer used to phrase instructions.
func WithLocalizer(loc *spreak.Localizer) Option {
	return func(e *Engine) {
		e.localizer = loc
	}
}

// Path is the outcome of a successful route query.
type Path struct {
	Geometry     []geo.Coordinate
	Instructions []Instruction
	Distance     float64
	Duration     time.Duration
}

// Stats describes a loaded dataset.
type Stats struct {
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	Nodes      int     `json:"nodes"`
	Edges      int     `json:"edges"`
	Ways       int     `json:"ways"`
	Places     int     `json:"places"`
	SnapRadius float64 `json:"snap_radius_m"`
}

// Load reads the dataset at path and builds the routing graph.
func Load(path string, opts ...Option) (*Engine, error) {
	eng := &Engine{
		path:       path,
		snapRadius: DefaultSnapRadius,
		speed:      DefaultSpeed,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.localizer == nil {
		loc, err := i18n.New("en")
		if err != nil {
			return nil, fmt.Errorf("failed to create localizer: %w", err)
		}
		eng.localizer = loc
	}

	ds, err := ReadDatasetFile(path)
	if err != nil {
		return nil, err
	}
	eng.graph.Store(buildGraph(ds, eng.speed, eng.snapRadius))
	return eng, nil
}

// Route searches the fastest path from start to end.
func (e *Engine) Route(start, end geo.Coordinate) (*Path, error) {
	g := e.graph.Load()
	if g == nil {
		return nil, ErrClosed
	}
	if err := start.Validate(); err != nil {
		return nil, fmt.Errorf("invalid start coordinate: %w", err)
	}
	if err := end.Validate(); err != nil {
		return nil, fmt.Errorf("invalid end coordinate: %w", err)
	}

	src, err := e.snap(g, start)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", start, err)
	}
	dst, err := e.snap(g, end)
	if err != nil {
		return nil, fmt.Errorf("end %s: %w", end, err)
	}

	res, ok := g.fastestPath(src, dst)
	if !ok {
		return nil, fmt.Errorf("from node %d to node %d: %w", g.nodes[src].id, g.nodes[dst].id, ErrNoRoute)
	}

	geometry := make([]geo.Coordinate, 0, len(res.nodes))
	for _, idx := range res.nodes {
		geometry = append(geometry, g.nodes[idx].coord)
	}
	gd := guidance{graph: g, localizer: e.localizer}
	return &Path{
		Geometry:     geometry,
		Instructions: gd.instructions(res),
		Distance:     res.distance,
		Duration:     time.Duration(res.cost * float64(time.Second)),
	}, nil
}

// Stats returns information about the loaded dataset. The zero Stats is returned for a closed
// engine.
func (e *Engine) Stats() Stats {
	g := e.graph.Load()
	if g == nil {
		return Stats{}
	}
	return Stats{
		Name:       g.name,
		Path:       e.path,
		Nodes:      len(g.nodes),
		Edges:      g.edges,
		Ways:       len(g.ways),
		Places:     len(g.places),
		SnapRadius: e.snapRadius,
	}
}

// Close releases the routing graph. Queries issued after Close fail with ErrClosed; queries
// already running complete normally.
func (e *Engine) Close() error {
	e.graph.Store(nil)
	return nil
}

// snap matches c onto the closest routable node. The full scan only runs when the cell index
// has no node within the snap radius, to report the distance of the nearest road.
func (e *Engine) snap(g *graph, c geo.Coordinate) (int32, error) {
	if idx, _, ok := g.index.nearest(g, c, e.snapRadius); ok {
		return idx, nil
	}
	idx, dist := g.nearest(c)
	if idx < 0 {
		return -1, ErrUnroutablePoint
	}
	if dist > e.snapRadius {
		return -1, fmt.Errorf("nearest road is %.0fm away, limit is %.0fm: %w", dist, e.snapRadius,
			ErrUnroutablePoint)
	}
	return idx, nil
}
