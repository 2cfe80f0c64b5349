package routing

import (
	"context"

	"turnrouter/pkg/geo"
	"turnrouter/pkg/graph"
)

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

func (ll LatLng) position() geo.Position { return geo.Position{Lat: ll.Lat, Lon: ll.Lng} }

// Segment is one leg of a route. Engine always returns a single segment;
// the slice shape is kept so a caller combining several Engine queries
// into one itinerary can report them without changing the response type.
type Segment struct {
	DistanceMeters float64
	Geometry       []LatLng
}

// RouteResult is the output of a route query.
type RouteResult struct {
	TotalDistanceMeters float64
	Segments            []Segment
}

// Router answers route queries between two points. Engine is the only
// implementation; it's an interface so HTTP handlers can be tested against
// a stub instead of a loaded graph.
type Router interface {
	Route(ctx context.Context, start, end LatLng) (*RouteResult, error)
}

// Engine answers route queries against a fixed Graph, snapping input
// coordinates to the nearest graph node before searching.
type Engine struct {
	g           *graph.Graph
	snapper     *Snapper
	heuristic   geo.Func
	avoidUTurns bool
	stepLimit   int
}

// NewEngine builds an Engine over g. avoidUTurns selects
// FindRouteWithoutTurnAround over plain FindRoute — appropriate for
// walking and cycling profiles, where a route doubling back on itself
// usually means a dead end rather than a real shortcut. stepLimit bounds
// how many states a single search may explore before giving up with
// ErrStepLimitExceeded; 0 means unlimited.
func NewEngine(g *graph.Graph, avoidUTurns bool, stepLimit int) *Engine {
	return &Engine{
		g:           g,
		snapper:     NewSnapper(g),
		heuristic:   geo.Haversine,
		avoidUTurns: avoidUTurns,
		stepLimit:   stepLimit,
	}
}

// Route snaps start and end to the nearest graph nodes and searches
// between them. ctx is accepted to satisfy Router and to bound future
// cancellable searches; the current A* implementation does not yet poll
// it mid-search.
func (e *Engine) Route(ctx context.Context, start, end LatLng) (*RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startNode, err := e.snapper.Snap(start.position())
	if err != nil {
		return nil, err
	}
	endNode, err := e.snapper.Snap(end.position())
	if err != nil {
		return nil, err
	}

	var res Result
	if e.avoidUTurns {
		res, err = FindRouteWithoutTurnAround[graph.Node](e.g, startNode.ID, endNode.ID, e.heuristic, e.stepLimit)
	} else {
		res, err = FindRoute[graph.Node](e.g, startNode.ID, endNode.ID, e.heuristic, e.stepLimit)
	}
	if err != nil {
		return nil, err
	}

	geometry, distanceMeters, err := e.buildGeometry(res.Nodes)
	if err != nil {
		return nil, err
	}

	return &RouteResult{
		TotalDistanceMeters: distanceMeters,
		Segments: []Segment{
			{DistanceMeters: distanceMeters, Geometry: geometry},
		},
	}, nil
}

// buildGeometry turns a sequence of graph node ids into lat/lng points and
// the route's true on-the-ground distance — which is the sum of
// great-circle hops between consecutive nodes, not the search cost (that
// cost also folds in each way's traversal penalty, so it isn't a
// distance).
func (e *Engine) buildGeometry(nodes []int64) ([]LatLng, float64, error) {
	geometry := make([]LatLng, 0, len(nodes))
	var distanceKm float64
	var prev graph.Node

	for i, id := range nodes {
		n, err := e.g.GetNode(id)
		if err != nil {
			return nil, 0, err
		}
		geometry = append(geometry, LatLng{Lat: n.Position.Lat, Lng: n.Position.Lon})
		if i > 0 {
			distanceKm += geo.Haversine(prev.Position, n.Position)
		}
		prev = n
	}

	return geometry, distanceKm * 1000, nil
}
