// Package osmsource adapts a real .osm.pbf file into the feature.Feature
// stream turnrouter/pkg/graph's builder consumes, using paulmach/osm's
// osmpbf scanner. Tag-driven accessibility and penalty decisions stay out
// of this package entirely — that's a turnrouter/pkg/profile concern; this
// package only knows how to get bytes off disk into Nodes, Ways and
// Relations.
package osmsource

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"turnrouter/pkg/feature"
	"turnrouter/pkg/geo"
)

// BBox is a geographic bounding box used to restrict which nodes (and, by
// extension, the way/relation geometry built from them) are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero reports whether b is the unset bounding box (no filtering).
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains reports whether (lat, lng) falls inside b.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Options configures parsing.
type Options struct {
	// BBox, if non-zero, restricts which nodes are kept. A way or
	// relation that ends up referencing a dropped node is trimmed or
	// dropped downstream by the graph builder, the same way it handles
	// any other unknown-reference data-quality issue.
	BBox BBox
}

// MemorySource is a graph.FeatureSource backed by features already parsed
// into memory. Parse returns one scoped to a single PBF file.
type MemorySource struct {
	features []feature.Feature
	pos      int
}

func (s *MemorySource) Scan() bool {
	if s.pos >= len(s.features) {
		return false
	}
	s.pos++
	return true
}

func (s *MemorySource) Feature() feature.Feature { return s.features[s.pos-1] }
func (s *MemorySource) Err() error               { return nil }

// Len reports how many features the source holds in total.
func (s *MemorySource) Len() int { return len(s.features) }

// Parse reads an OSM PBF file and returns a FeatureSource over its nodes,
// ways and relations, in that order (ways and relations may only reference
// node ids the builder has already seen, so this package preserves that
// ordering rather than emitting in on-disk order).
//
// The reader is scanned twice and must implement io.ReadSeeker.
// The first pass collects the set of node ids actually referenced by a way
// or a relation member, so the second pass — the one that materialises
// geo.Position for every node — only has to hold coordinates for nodes the
// graph will actually use, not the whole file's node table.
func Parse(ctx context.Context, rs io.ReadSeeker, opts Options) (*MemorySource, error) {
	referenced, ways, relations, err := scanWaysAndRelations(ctx, rs)
	if err != nil {
		return nil, fmt.Errorf("pass 1 (ways/relations): %w", err)
	}
	log.Printf("osmsource: pass 1 complete: %d ways, %d relations, %d referenced nodes", len(ways), len(relations), len(referenced))

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodes, err := scanNodes(ctx, rs, referenced, opts.BBox)
	if err != nil {
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	log.Printf("osmsource: pass 2 complete: %d node coordinates kept", len(nodes))

	features := make([]feature.Feature, 0, len(nodes)+len(ways)+len(relations))
	for _, n := range nodes {
		features = append(features, n)
	}
	for _, w := range ways {
		features = append(features, w)
	}
	for _, r := range relations {
		features = append(features, r)
	}

	return &MemorySource{features: features}, nil
}

func scanWaysAndRelations(ctx context.Context, rs io.ReadSeeker) (referenced map[osm.NodeID]struct{}, ways []feature.Way, relations []feature.Relation, err error) {
	referenced = make(map[osm.NodeID]struct{})

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	defer scanner.Close()

	for scanner.Scan() {
		switch obj := scanner.Object().(type) {
		case *osm.Way:
			nodeIDs := make([]int64, len(obj.Nodes))
			for i, wn := range obj.Nodes {
				nodeIDs[i] = int64(wn.ID)
				referenced[wn.ID] = struct{}{}
			}
			ways = append(ways, feature.Way{
				ID:    int64(obj.ID),
				Nodes: nodeIDs,
				Tags:  tagsOf(obj.Tags),
			})
		case *osm.Relation:
			members := make([]feature.RelationMember, len(obj.Members))
			for i, m := range obj.Members {
				if m.Type == osm.TypeNode {
					referenced[osm.NodeID(m.Ref)] = struct{}{}
				}
				members[i] = feature.RelationMember{
					Type: memberType(m.Type),
					Ref:  m.Ref,
					Role: m.Role,
				}
			}
			relations = append(relations, feature.Relation{
				ID:      int64(obj.ID),
				Members: members,
				Tags:    tagsOf(obj.Tags),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, err
	}
	return referenced, ways, relations, nil
}

func scanNodes(ctx context.Context, rs io.ReadSeeker, referenced map[osm.NodeID]struct{}, bbox BBox) ([]feature.Node, error) {
	useBBox := !bbox.IsZero()

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true
	defer scanner.Close()

	nodes := make([]feature.Node, 0, len(referenced))
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; !needed {
			continue
		}
		if useBBox && !bbox.Contains(n.Lat, n.Lon) {
			continue
		}
		nodes = append(nodes, feature.Node{
			ID:       int64(n.ID),
			Position: positionOf(n),
			Tags:     tagsOf(n.Tags),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func tagsOf(t osm.Tags) feature.Tags {
	if len(t) == 0 {
		return nil
	}
	tags := make(feature.Tags, len(t))
	for _, tag := range t {
		tags[tag.Key] = tag.Value
	}
	return tags
}

func positionOf(n *osm.Node) geo.Position {
	return geo.Position{Lat: n.Lat, Lon: n.Lon}
}

func memberType(t osm.Type) feature.MemberType {
	switch t {
	case osm.TypeWay:
		return feature.MemberWay
	case osm.TypeRelation:
		return feature.MemberRelation
	default:
		return feature.MemberNode
	}
}
