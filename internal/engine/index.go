// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package engine

import (
	"math"

	"github.com/mmcloughlin/geohash"

	"github.com/wneessen/routebridge/internal/geo"
)

const (
	// metersPerDegree is the length of one degree of latitude.
	metersPerDegree = 111319.49

	maxCellBits = 52
	minCellBits = 2

	// minCellCos bounds the longitude shrink factor close to the poles.
	minCellCos = 0.01
)

// cellIndex buckets the routable nodes into geohash cells. Cells span at least twice the snap
// radius in both directions, so every node within the radius of a coordinate lies in the
// coordinate's cell or one of its eight neighbours.
type cellIndex struct {
	bits  uint
	cells map[uint64][]int32
}

func newCellIndex(g *graph, radius float64) *cellIndex {
	maxLat := 0.0
	for _, idx := range g.routable {
		maxLat = math.Max(maxLat, math.Abs(g.nodes[idx].coord.Lat))
	}
	index := &cellIndex{
		bits:  cellBits(radius, maxLat),
		cells: make(map[uint64][]int32),
	}
	for _, idx := range g.routable {
		cell := index.cell(g.nodes[idx].coord)
		index.cells[cell] = append(index.cells[cell], idx)
	}
	return index
}

// cellBits returns the highest geohash precision whose cells are at least 2*radius high and
// wide up to the latitude maxLat plus the radius.
func cellBits(radius, maxLat float64) uint {
	lat := math.Min(maxLat+radius/metersPerDegree, 90)
	cos := math.Max(math.Cos(lat*math.Pi/180), minCellCos)
	for bits := uint(maxCellBits); bits > minCellBits; bits-- {
		latBits := bits / 2
		lonBits := bits - latBits
		height := 180 / math.Exp2(float64(latBits)) * metersPerDegree
		width := 360 / math.Exp2(float64(lonBits)) * metersPerDegree * cos
		if height >= 2*radius && width >= 2*radius {
			return bits
		}
	}
	return minCellBits
}

func (x *cellIndex) cell(c geo.Coordinate) uint64 {
	return geohash.EncodeIntWithPrecision(c.Lat, c.Lon, x.bits)
}

// nearest returns the node closest to c among the nodes of c's cell and its neighbours. The
// last return value is false if none of them lies within radius.
func (x *cellIndex) nearest(g *graph, c geo.Coordinate, radius float64) (int32, float64, bool) {
	cell := x.cell(c)
	best, bestDist := int32(-1), math.Inf(1)
	for _, candidate := range append(geohash.NeighborsIntWithPrecision(cell, x.bits), cell) {
		for _, idx := range x.cells[candidate] {
			if dist := c.DistanceTo(g.nodes[idx].coord); dist < bestDist {
				best, bestDist = idx, dist
			}
		}
	}
	if best < 0 || bestDist > radius {
		return -1, 0, false
	}
	return best, bestDist, true
}
