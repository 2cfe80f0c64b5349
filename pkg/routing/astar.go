// Package routing implements shortest-path search (C6) over any GraphLike
// store (C7), plus the supporting pieces needed to answer a real lat/lng
// query: nearest-node snapping and a small Engine that ties search and
// snapping together over turnrouter/pkg/graph.
package routing

import (
	"errors"

	"turnrouter/pkg/geo"
)

// ErrNoRoute is returned when no path connects start and end.
var ErrNoRoute = errors.New("no route found")

// ErrStepLimitExceeded is returned when a search explores more states than
// its step limit allows without reaching the target. A limit of 0 means
// unlimited.
var ErrStepLimitExceeded = errors.New("step limit exceeded")

// Result is a found route: the sequence of graph node ids from start to
// end (inclusive, length >= 1) and its total cost in the graph's edge-cost
// units.
type Result struct {
	Nodes []int64
	Cost  float64
}

// nodeHeapItem is a min-heap entry for the plain A* search, ordered by
// score (cost-so-far + heuristic). Concrete-typed and hand-sifted to avoid
// the interface boxing container/heap would add on every push/pop.
type nodeHeapItem struct {
	score float64
	cost  float64
	node  int64
}

type nodeHeap struct {
	items []nodeHeapItem
}

func (h *nodeHeap) push(it nodeHeapItem) {
	h.items = append(h.items, it)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].score >= h.items[parent].score {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *nodeHeap) pop() (nodeHeapItem, bool) {
	if len(h.items) == 0 {
		return nodeHeapItem{}, false
	}
	top := h.items[0]
	n := len(h.items) - 1
	h.items[0] = h.items[n]
	h.items = h.items[:n]
	i := 0
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && h.items[left].score < h.items[smallest].score {
			smallest = left
		}
		if right < n && h.items[right].score < h.items[smallest].score {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
	return top, true
}

// FindRoute runs A* search from start to end over g using heuristic as the
// admissible cost-to-go estimate (geo.Haversine is the natural choice:
// great-circle distance never overestimates a graph's edge costs, which
// are at least as large as straight-line distance). A stepLimit of 0 or
// less means unlimited; otherwise the search gives up after exploring that many
// states and returns ErrStepLimitExceeded.
//
// FindRoute does not prevent a path from immediately reversing along the
// edge it just took (A -> B -> A); FindRouteWithoutTurnAround does.
func FindRoute[N ExternalNodeLike](g GraphLike[N], start, end int64, heuristic geo.Func, stepLimit int) (Result, error) {
	startNode, err := g.GetNode(start)
	if err != nil {
		return Result{}, err
	}
	endNode, err := g.GetNode(end)
	if err != nil {
		return Result{}, err
	}
	if start == end {
		return Result{Nodes: []int64{start}, Cost: 0}, nil
	}

	knownCost := map[int64]float64{start: 0}
	cameFrom := map[int64]int64{}

	pq := &nodeHeap{}
	pq.push(nodeHeapItem{score: heuristic(startNode.Pos(), endNode.Pos()), cost: 0, node: start})

	steps := 0
	for {
		cur, ok := pq.pop()
		if !ok {
			return Result{}, ErrNoRoute
		}
		if cur.cost > knownCost[cur.node] {
			continue // stale entry, a cheaper one already settled this node
		}
		if cur.node == end {
			return Result{Nodes: reconstructPath(cameFrom, start, end), Cost: cur.cost}, nil
		}
		if stepLimit > 0 {
			steps++
			if steps > stepLimit {
				return Result{}, ErrStepLimitExceeded
			}
		}

		for next, edgeCost := range g.GetEdges(cur.node) {
			newCost := cur.cost + edgeCost
			if existing, seen := knownCost[next]; seen && newCost >= existing {
				continue
			}
			knownCost[next] = newCost
			cameFrom[next] = cur.node
			nextNode, err := g.GetNode(next)
			if err != nil {
				continue
			}
			score := newCost + heuristic(nextNode.Pos(), endNode.Pos())
			pq.push(nodeHeapItem{score: score, cost: newCost, node: next})
		}
	}
}

func reconstructPath(cameFrom map[int64]int64, start, end int64) []int64 {
	path := []int64{end}
	for path[len(path)-1] != start {
		path = append(path, cameFrom[path[len(path)-1]])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// turnState identifies a search state for FindRouteWithoutTurnAround: the
// graph node currently occupied, plus the external OSM id of the node the
// search arrived from. Two paths reaching the same graph node from
// different real-world predecessors are different states, because which
// continuations are a U-turn depends on where you came from — predExt is
// 0 (no real OSM node has id 0) for the start state, which has no
// predecessor.
type turnState struct {
	node    int64
	predExt int64
}

type turnHeapItem struct {
	score   float64
	cost    float64
	node    int64
	predExt int64
}

type turnHeap struct {
	items []turnHeapItem
}

func (h *turnHeap) push(it turnHeapItem) {
	h.items = append(h.items, it)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].score >= h.items[parent].score {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *turnHeap) pop() (turnHeapItem, bool) {
	if len(h.items) == 0 {
		return turnHeapItem{}, false
	}
	top := h.items[0]
	n := len(h.items) - 1
	h.items[0] = h.items[n]
	h.items = h.items[:n]
	i := 0
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && h.items[left].score < h.items[smallest].score {
			smallest = left
		}
		if right < n && h.items[right].score < h.items[smallest].score {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
	return top, true
}

// FindRouteWithoutTurnAround behaves like FindRoute, but additionally
// forbids stepping from a node straight back to the real-world node the
// search just left — including across a phantom-node boundary, since a
// phantom clone and the original node it was cloned from share an
// external id. Engine uses this variant when constructed with
// avoidUTurns set.
func FindRouteWithoutTurnAround[N ExternalNodeLike](g GraphLike[N], start, end int64, heuristic geo.Func, stepLimit int) (Result, error) {
	startNode, err := g.GetNode(start)
	if err != nil {
		return Result{}, err
	}
	endNode, err := g.GetNode(end)
	if err != nil {
		return Result{}, err
	}
	if start == end {
		return Result{Nodes: []int64{start}, Cost: 0}, nil
	}

	startState := turnState{node: start, predExt: 0}
	knownCost := map[turnState]float64{startState: 0}
	cameFrom := map[turnState]turnState{}

	pq := &turnHeap{}
	pq.push(turnHeapItem{score: heuristic(startNode.Pos(), endNode.Pos()), cost: 0, node: start, predExt: 0})

	steps := 0
	for {
		cur, ok := pq.pop()
		if !ok {
			return Result{}, ErrNoRoute
		}
		curState := turnState{node: cur.node, predExt: cur.predExt}
		if cur.cost > knownCost[curState] {
			continue
		}
		if cur.node == end {
			return Result{Nodes: reconstructTurnPath(cameFrom, startState, curState), Cost: cur.cost}, nil
		}
		if stepLimit > 0 {
			steps++
			if steps > stepLimit {
				return Result{}, ErrStepLimitExceeded
			}
		}

		curNode, err := g.GetNode(cur.node)
		if err != nil {
			continue
		}

		for next, edgeCost := range g.GetEdges(cur.node) {
			nextNode, err := g.GetNode(next)
			if err != nil {
				continue
			}
			if curState.predExt != 0 && nextNode.ExternalNodeID() == curState.predExt {
				continue // would immediately reverse back onto the node we came from
			}

			newCost := cur.cost + edgeCost
			nextState := turnState{node: next, predExt: curNode.ExternalNodeID()}
			if existing, seen := knownCost[nextState]; seen && newCost >= existing {
				continue
			}
			knownCost[nextState] = newCost
			cameFrom[nextState] = curState
			score := newCost + heuristic(nextNode.Pos(), endNode.Pos())
			pq.push(turnHeapItem{score: score, cost: newCost, node: next, predExt: curNode.ExternalNodeID()})
		}
	}
}

func reconstructTurnPath(cameFrom map[turnState]turnState, start, end turnState) []int64 {
	path := []int64{end.node}
	cur := end
	for cur != start {
		cur = cameFrom[cur]
		path = append(path, cur.node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
