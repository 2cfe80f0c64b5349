package routing

import (
	"errors"

	"turnrouter/pkg/geo"
	"turnrouter/pkg/graph"
)

// ErrPointTooFar is returned by Snap when the nearest graph node is
// farther than maxSnapDistanceKm from the query point.
var ErrPointTooFar = errors.New("point too far from road")

// maxSnapDistanceKm bounds how far a query point may be from the nearest
// graph node and still be accepted, so a point far outside the loaded
// graph's coverage fails fast instead of silently snapping to whatever
// happens to be nearest.
const maxSnapDistanceKm = 5.0

// Snapper turns a raw lat/lng into a usable graph node for routing. The
// actual nearest-node search (and its R-tree acceleration on large graphs)
// lives on graph.Graph itself; Snapper only adds the distance cap a
// routing query needs but a generic store lookup shouldn't assume.
type Snapper struct {
	g *graph.Graph
}

// NewSnapper wraps g for snapping queries. g must not change afterwards.
func NewSnapper(g *graph.Graph) *Snapper {
	return &Snapper{g: g}
}

// Snap returns the regular graph node nearest to p, or ErrPointTooFar if
// it's farther away than maxSnapDistanceKm.
func (s *Snapper) Snap(p geo.Position) (graph.Node, error) {
	n, ok := s.g.FindNearestNode(p)
	if !ok || geo.Haversine(p, n.Position) > maxSnapDistanceKm {
		return graph.Node{}, ErrPointTooFar
	}
	return n, nil
}
