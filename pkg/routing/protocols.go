package routing

import "turnrouter/pkg/geo"

// NodeLike is the minimal shape the A* search needs from a graph node: a
// position to feed the distance heuristic.
type NodeLike interface {
	Pos() geo.Position
}

// ExternalNodeLike additionally exposes the external id a phantom clone
// shares with the real node it was cloned from, which
// FindRouteWithoutTurnAround needs to detect a reversal across a clone
// boundary that a plain node-id comparison would miss.
type ExternalNodeLike interface {
	NodeLike
	ExternalNodeID() int64
}

// GraphLike is the read-only surface the A* search needs from a graph
// store: resolve a node by id, and list its outgoing (neighbour id, cost)
// edges. turnrouter/pkg/graph.Graph satisfies GraphLike[graph.Node]; this
// interface exists so the search itself never imports that package,
// keeping it usable against any store shaped the same way.
type GraphLike[N ExternalNodeLike] interface {
	GetNode(id int64) (N, error)
	GetEdges(id int64) map[int64]float64
}
