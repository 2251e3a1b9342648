// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package engine

import (
	"github.com/wneessen/routebridge/internal/geo"
)

// graph is the immutable in-memory road network. Nodes are addressed by their slice index.
type graph struct {
	name     string
	nodes    []node
	ways     []way
	routable []int32
	index    *cellIndex
	places   []placeEntry
	edges    int
}

type node struct {
	id    int64
	coord geo.Coordinate
	out   []edge
}

// edge is a directed connection between two nodes. cost is the travel time in seconds.
type edge struct {
	to     int32
	way    int32
	length float64
	cost   float64
}

type way struct {
	id   int64
	name string
}

// buildGraph turns a validated dataset into an adjacency list graph. Two-way roads get an
// edge in each direction. Routable nodes are indexed for snapping within snapRadius.
func buildGraph(ds *Dataset, defaultSpeed, snapRadius float64) *graph {
	g := &graph{
		name:  ds.Name,
		nodes: make([]node, len(ds.Nodes)),
		ways:  make([]way, len(ds.Ways)),
	}
	index := make(map[int64]int32, len(ds.Nodes))
	for i, n := range ds.Nodes {
		g.nodes[i] = node{id: n.ID, coord: geo.New(n.Lat, n.Lon)}
		index[n.ID] = int32(i) //nolint:gosec
	}

	used := make([]bool, len(g.nodes))
	for wi, w := range ds.Ways {
		g.ways[wi] = way{id: w.ID, name: w.Name}
		speed := w.MaxSpeed
		if speed == 0 {
			speed = defaultSpeed
		}
		mps := speed / 3.6

		for i := 0; i < len(w.Nodes)-1; i++ {
			from, to := index[w.Nodes[i]], index[w.Nodes[i+1]]
			if from == to {
				continue
			}
			length := g.nodes[from].coord.DistanceTo(g.nodes[to].coord)
			e := edge{to: to, way: int32(wi), length: length, cost: length / mps} //nolint:gosec
			g.nodes[from].out = append(g.nodes[from].out, e)
			g.edges++
			if !w.Oneway {
				e.to = from
				g.nodes[to].out = append(g.nodes[to].out, e)
				g.edges++
			}
			used[from], used[to] = true, true
		}
	}
	for i, ok := range used {
		if ok {
			g.routable = append(g.routable, int32(i)) //nolint:gosec
		}
	}
	g.index = newCellIndex(g, snapRadius)
	g.places = buildPlaces(ds)
	return g
}

// nearest returns the routable node closest to c and its distance in meters by scanning all
// routable nodes. It returns -1 if the graph has no routable nodes.
func (g *graph) nearest(c geo.Coordinate) (int32, float64) {
	best, bestDist := int32(-1), -1.0
	for _, idx := range g.routable {
		dist := c.DistanceTo(g.nodes[idx].coord)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = idx, dist
		}
	}
	return best, bestDist
}
