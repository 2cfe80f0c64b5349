// Package kdtree implements a classical, statically balanced 2-D k-d tree,
// an optional accelerator for nearest-neighbour queries over any type that
// knows its own position. It assumes euclidean geometry: used with a
// haversine-style distance function it gives undefined results near the
// ante-meridian, the poles, or over spans wide enough for the sphere's
// curvature to matter.
package kdtree

import (
	"sort"

	"turnrouter/pkg/geo"
)

// WithPosition is satisfied by any type that can report a position for
// indexing.
type WithPosition interface {
	Pos() geo.Position
}

// Tree is a node in a k-d tree over T. The zero Tree is not valid; use
// Build. A Tree built by Build is balanced and is never mutated afterwards,
// so concurrent FindNearestNeighbor calls on the same tree are safe.
type Tree[T WithPosition] struct {
	pivot T
	left  *Tree[T]
	right *Tree[T]
}

// Build creates a balanced k-d tree over items, or nil if items is empty.
// It splits on longitude at even depths and latitude at odd depths,
// picking the median point along the current axis as each level's pivot.
// items is sorted in place.
func Build[T WithPosition](items []T) *Tree[T] {
	return build(items, 0)
}

func build[T WithPosition](items []T, axis int) *Tree[T] {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return &Tree[T]{pivot: items[0]}
	}

	sort.Slice(items, func(i, j int) bool {
		return axisValue(items[i].Pos(), axis) < axisValue(items[j].Pos(), axis)
	})
	median := len(items) / 2

	return &Tree[T]{
		pivot: items[median],
		left:  build(items[:median], axis^1),
		right: build(items[median+1:], axis^1),
	}
}

func axisValue(p geo.Position, axis int) float64 {
	if axis == 0 {
		return p.Lon
	}
	return p.Lat
}

// FindNearestNeighbor returns the item in the tree closest to root under
// dist, and the distance to it. dist is assumed to behave like a euclidean
// metric for the pruning search to be correct; a distance function that
// isn't locally euclidean (e.g. haversine near the poles) can miss the
// true nearest neighbour in rare cases, matching the package's documented
// caveat.
func (t *Tree[T]) FindNearestNeighbor(root geo.Position, dist geo.Func) (T, float64) {
	return t.findNearestNeighbor(root, dist, 0)
}

func (t *Tree[T]) findNearestNeighbor(root geo.Position, dist geo.Func, axis int) (T, float64) {
	best := t.pivot
	bestDist := dist(root, t.pivot.Pos())

	firstLeft := axisValue(root, axis) < axisValue(t.pivot.Pos(), axis)
	first, second := t.left, t.right
	if !firstLeft {
		first, second = t.right, t.left
	}

	if first != nil {
		if alt, altDist := first.findNearestNeighbor(root, dist, axis^1); altDist < bestDist {
			best, bestDist = alt, altDist
		}
	}

	if second != nil {
		axisPoint := root
		if axis == 0 {
			axisPoint.Lon = axisValue(t.pivot.Pos(), axis)
		} else {
			axisPoint.Lat = axisValue(t.pivot.Pos(), axis)
		}
		distToAxis := dist(root, axisPoint)

		if distToAxis < bestDist {
			if alt, altDist := second.findNearestNeighbor(root, dist, axis^1); altDist < bestDist {
				best, bestDist = alt, altDist
			}
		}
	}

	return best, bestDist
}
