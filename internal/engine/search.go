// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package engine

import (
	"container/heap"
	"math"
	"slices"
)

// queueItem is an entry of the search frontier.
type queueItem struct {
	node int32
	cost float64
}

// priorityQueue is a min-heap of queueItems ordered by cost.
type priorityQueue []queueItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].cost < pq[j].cost }
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// leg is one traversed edge of a search result.
type leg struct {
	from, to int32
	way      int32
	length   float64
}

// searchResult holds the node sequence and traversed edges of the fastest path.
type searchResult struct {
	nodes    []int32
	legs     []leg
	cost     float64
	distance float64
}

// fastestPath runs Dijkstra's algorithm over travel time from src to dst. All search state is
// local to the call, so concurrent searches on the same graph are safe. The second return
// value is false if dst is not reachable from src.
func (g *graph) fastestPath(src, dst int32) (searchResult, bool) {
	if src == dst {
		return searchResult{nodes: []int32{src}}, true
	}

	cost := make([]float64, len(g.nodes))
	for i := range cost {
		cost[i] = math.Inf(1)
	}
	prev := make([]int32, len(g.nodes))
	prevEdge := make([]edge, len(g.nodes))
	visited := make([]bool, len(g.nodes))
	cost[src] = 0
	prev[src] = -1

	pq := priorityQueue{{node: src}}
	for pq.Len() > 0 {
		current := heap.Pop(&pq).(queueItem)
		if visited[current.node] {
			continue
		}
		visited[current.node] = true
		if current.node == dst {
			break
		}

		for _, e := range g.nodes[current.node].out {
			if visited[e.to] {
				continue
			}
			newCost := cost[current.node] + e.cost
			if newCost < cost[e.to] {
				cost[e.to] = newCost
				prev[e.to] = current.node
				prevEdge[e.to] = e
				heap.Push(&pq, queueItem{node: e.to, cost: newCost})
			}
		}
	}

	if math.IsInf(cost[dst], 1) {
		return searchResult{}, false
	}

	result := searchResult{cost: cost[dst]}
	for at := dst; at != src; at = prev[at] {
		e := prevEdge[at]
		result.nodes = append(result.nodes, at)
		result.legs = append(result.legs, leg{from: prev[at], to: at, way: e.way, length: e.length})
		result.distance += e.length
	}
	result.nodes = append(result.nodes, src)
	slices.Reverse(result.nodes)
	slices.Reverse(result.legs)
	return result, true
}
