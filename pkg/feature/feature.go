// Package feature defines the tagged-union input the graph builder consumes:
// a lazy, finite, single-pass stream of OpenStreetMap Nodes, Ways and
// Relations. Byte-level OSM XML/PBF parsing is out of scope here — see
// turnrouter/pkg/osmsource for a producer that feeds this stream from a
// real .osm.pbf file.
package feature

import "turnrouter/pkg/geo"

// Tags is a read-only view over an OSM tag set. It mirrors the shape of
// github.com/paulmach/osm's Tags type so that Nodes/Ways/Relations built
// from real OSM data and from hand-written test fixtures can share the same
// predicate functions in pkg/profile.
type Tags map[string]string

// Find returns the value for key, or "" if absent.
func (t Tags) Find(key string) string {
	return t[key]
}

// HasTag reports whether key is present, regardless of value.
func (t Tags) HasTag(key string) bool {
	_, ok := t[key]
	return ok
}

// Node is a single OSM node: a point with tags.
type Node struct {
	ID       int64
	Position geo.Position
	Tags     Tags
}

// Way is an ordered sequence of node references representing a road, rail,
// path, etc. A way may only reference node ids previously seen in the
// feature stream it's part of.
type Way struct {
	ID    int64
	Nodes []int64
	Tags  Tags
}

// MemberType enumerates the kinds of entity a RelationMember can reference.
type MemberType uint8

const (
	MemberNode MemberType = iota
	MemberWay
	MemberRelation
)

func (m MemberType) String() string {
	switch m {
	case MemberNode:
		return "node"
	case MemberWay:
		return "way"
	case MemberRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// RelationMember is a single member of a Relation, tagged with its role
// ("from", "via", "to" for turn restrictions).
type RelationMember struct {
	Type MemberType
	Ref  int64
	Role string
}

// Relation groups other entities with roles; the only relations the graph
// builder interprets are turn restrictions (type=restriction).
type Relation struct {
	ID      int64
	Members []RelationMember
	Tags    Tags
}

// Feature is the tagged union Node | Way | Relation produced by a feature
// stream. Implementations: Node, Way, Relation.
type Feature interface {
	isFeature()
}

func (Node) isFeature()     {}
func (Way) isFeature()      {}
func (Relation) isFeature() {}
