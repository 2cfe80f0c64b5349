package graph

import (
	"context"
	"fmt"
	"io"

	"turnrouter/pkg/profile"
)

// FromFeatures builds a new Graph from a single feature batch, the common
// case where a caller doesn't need New/AddFeatures's multi-call merging.
func FromFeatures(p profile.Profile, src FeatureSource, logger Logger) (*Graph, error) {
	g := New()
	if err := g.AddFeatures(p, src, logger); err != nil {
		return nil, err
	}
	return g, nil
}

// FromFile builds a Graph directly from an OSM PBF file using parse to turn
// rs into a feature stream. parse is normally a small closure around
// turnrouter/pkg/osmsource.Parse, which takes an extra Options argument
// (osmsource is not imported here directly, so that its PBF-parsing
// dependency doesn't leak into every consumer of Graph); callers that
// already have a FeatureSource should use FromFeatures instead.
func FromFile(ctx context.Context, p profile.Profile, rs io.ReadSeeker, parse func(context.Context, io.ReadSeeker) (FeatureSource, error), logger Logger) (*Graph, error) {
	src, err := parse(ctx, rs)
	if err != nil {
		return nil, fmt.Errorf("parsing OSM input: %w", err)
	}
	return FromFeatures(p, src, logger)
}
