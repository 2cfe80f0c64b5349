// Package graph implements the in-memory directed, weighted routing graph
// (C4) and the builder that materialises it from a feature stream by
// applying profile rules and turn restrictions (C5).
package graph

import (
	"fmt"
	"math"
	"sync"

	"github.com/tidwall/rtree"

	"turnrouter/pkg/geo"
)

// earthRadiusKm mirrors turnrouter/pkg/geo's constant, used here only to
// size the R-tree search box below — not for haversine itself, which stays
// geo's responsibility.
const earthRadiusKm = 6371.0088

// nearestIndexThreshold is the node count above which FindNearestNode
// builds an R-tree instead of scanning linearly. Below it, a linear scan
// is fast enough that the index's build cost isn't worth paying — most
// tests and small extracts never reach this size.
const nearestIndexThreshold = 4096

// PhantomIDBase is the first id reserved for phantom nodes created while
// applying turn restrictions. No id below it may come from OSM input.
const PhantomIDBase int64 = 1 << 51

// Node is a node in the routing graph. Regular nodes have ID == ExternalID;
// phantom nodes (ID >= PhantomIDBase) share ExternalID with the OSM node
// they were cloned from.
type Node struct {
	ID         int64
	Position   geo.Position
	ExternalID int64
}

// Pos and ExternalNodeID satisfy turnrouter/pkg/routing.ExternalNodeLike,
// so a *Graph can be passed directly to the A* search without that
// package importing this one.
func (n Node) Pos() geo.Position     { return n.Position }
func (n Node) ExternalNodeID() int64 { return n.ExternalID }

// ErrUnknownNode is returned by GetNode when the id isn't in the graph.
type ErrUnknownNode int64

func (e ErrUnknownNode) Error() string {
	return fmt.Sprintf("unknown node: %d", int64(e))
}

// Graph owns the routing graph's nodes and edges. nodes and edges share an
// id domain: every id referenced by edges (source or destination) exists
// in nodes. A Graph is immutable from the perspective of readers once
// AddFeatures has returned; concurrent read-only queries are safe, but
// AddFeatures calls must be serialized by the caller.
type Graph struct {
	nodes map[int64]Node
	edges map[int64]map[int64]float64

	phantomCounter int64

	indexOnce sync.Once
	index     rtree.RTreeG[int64]
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:          make(map[int64]Node),
		edges:          make(map[int64]map[int64]float64),
		phantomCounter: PhantomIDBase,
	}
}

// GetNode returns the node with the given id, or ErrUnknownNode if absent.
func (g *Graph) GetNode(id int64) (Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, ErrUnknownNode(id)
	}
	return n, nil
}

// GetEdges returns the (neighbour id, cost) pairs for outgoing edges from
// id. It never fails: a node with no outgoing edges yields an empty map.
func (g *Graph) GetEdges(id int64) map[int64]float64 {
	return g.edges[id]
}

// NumNodes reports how many nodes (regular and phantom) the graph holds.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// NumEdges reports the total number of directed edges in the graph.
func (g *Graph) NumEdges() int {
	n := 0
	for _, m := range g.edges {
		n += len(m)
	}
	return n
}

// FindNearestNode returns the regular (non-phantom) node minimising
// haversine distance to position. ok is false when the graph holds no
// regular node.
//
// Below nearestIndexThreshold nodes this is a plain linear scan, matching
// the reference contract exactly. Past that size it lazily builds (once,
// on first call) and queries an R-tree over node positions instead, since
// a linear scan per query stops being acceptable once a graph covers a
// real city or region; the index only ever needs building once because a
// Graph is immutable from the caller's perspective once AddFeatures has
// returned.
func (g *Graph) FindNearestNode(position geo.Position) (Node, bool) {
	if len(g.nodes) < nearestIndexThreshold {
		return g.linearNearestNode(position)
	}
	g.indexOnce.Do(g.buildIndex)
	return g.indexedNearestNode(position)
}

func (g *Graph) linearNearestNode(position geo.Position) (Node, bool) {
	var best Node
	bestDist := -1.0
	found := false

	for id, n := range g.nodes {
		if id != n.ExternalID {
			continue // skip phantom clones
		}
		d := geo.Haversine(position, n.Position)
		if !found || d < bestDist {
			best = n
			bestDist = d
			found = true
		}
	}

	return best, found
}

func (g *Graph) buildIndex() {
	for id, n := range g.nodes {
		if id != n.ExternalID {
			continue // phantom clones aren't valid snap targets
		}
		point := [2]float64{n.Position.Lon, n.Position.Lat}
		g.index.Insert(point, point, id)
	}
}

// indexedNearestNode searches g.index with a geometrically expanding box
// until a candidate is found whose true haversine distance fits inside
// the box's radius (so a nearer node just outside the current box can't
// have been missed), or the box has grown to cover the whole planet.
func (g *Graph) indexedNearestNode(position geo.Position) (Node, bool) {
	// Degrees-of-latitude per km is constant. The longitude half-width of a
	// disc of angular radius r around latitude lat is asin(sin(r)/cos(lat)),
	// which grows towards the poles; once the disc reaches a pole every
	// longitude is covered. The box is therefore a superset of the true
	// disc — every candidate is re-ranked below with geo.Haversine, so
	// correctness only needs a superset. The box is not wrapped across the
	// antimeridian.
	const kmToDeg = 180.0 / (math.Pi * earthRadiusKm)
	const maxRadiusKm = 20000.0 // about half of Earth's circumference

	for radiusKm := 0.05; ; radiusKm *= 4 {
		latDelta := radiusKm * kmToDeg
		lonDelta := 180.0
		if s := math.Sin(radiusKm/earthRadiusKm) / math.Cos(position.Lat*math.Pi/180); math.Abs(position.Lat)+latDelta < 90 && s < 1 {
			lonDelta = math.Asin(s) * 180 / math.Pi
		}
		min := [2]float64{position.Lon - lonDelta, position.Lat - latDelta}
		max := [2]float64{position.Lon + lonDelta, position.Lat + latDelta}

		var bestID int64
		bestDist := -1.0
		found := false

		g.index.Search(min, max, func(_, _ [2]float64, id int64) bool {
			n := g.nodes[id]
			d := geo.Haversine(position, n.Position)
			if !found || d < bestDist {
				bestID, bestDist, found = id, d, true
			}
			return true
		})

		if found && bestDist <= radiusKm {
			return g.nodes[bestID], true
		}
		if radiusKm >= maxRadiusKm {
			return g.linearNearestNode(position)
		}
	}
}

// AllNodes returns every node in the graph, including phantom clones.
// Callers must not mutate the returned map.
func (g *Graph) AllNodes() map[int64]Node {
	return g.nodes
}
