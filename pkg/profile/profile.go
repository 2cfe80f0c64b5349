// Package profile implements Profiles: policy objects that turn raw OSM
// tags into routing decisions for a single transport mode. A Profile
// answers three questions: whether a way is traversable and at what
// penalty, which direction(s) a way may be traversed, and whether a
// relation is an applicable turn restriction.
package profile

import (
	"strings"

	"turnrouter/pkg/feature"
)

// TurnRestriction classifies a relation's applicability to a Profile.
type TurnRestriction uint8

const (
	// Inapplicable means the relation is not a turn restriction, or is one
	// this Profile does not honour (wrong mode, or exempted).
	Inapplicable TurnRestriction = iota
	// Prohibitory means following the restriction's route is forbidden.
	Prohibitory
	// Mandatory means stepping from "from" onto "via" forces the rest of
	// the restriction's route.
	Mandatory
)

// Profile instructs the graph builder how to convert OSM features into a
// routing graph.
type Profile interface {
	// WayPenalty returns the multiplicative penalty for using a way, or
	// (0, false) if the way is not traversable. The returned penalty must
	// be finite and at least 1.
	WayPenalty(tags feature.Tags) (float64, bool)

	// WayDirection reports whether a way is traversable forward and
	// backward. Both false means the way should be dropped.
	WayDirection(tags feature.Tags) (forward, backward bool)

	// IsTurnRestriction classifies a relation's tags.
	IsTurnRestriction(tags feature.Tags) TurnRestriction
}

// SkeletonProfile treats every way as usable at penalty 1, ignores all
// access tags, and ignores every relation. It's meant for routing over
// bare graphs (OSM XML/PBF held without following OSM mapping
// conventions), not real-world transport.
type SkeletonProfile struct{}

func (SkeletonProfile) WayPenalty(feature.Tags) (float64, bool) {
	return 1, true
}

func (SkeletonProfile) WayDirection(tags feature.Tags) (forward, backward bool) {
	switch tags.Find("oneway") {
	case "yes":
		return true, false
	case "-1":
		return false, true
	default:
		return true, true
	}
}

func (SkeletonProfile) IsTurnRestriction(feature.Tags) TurnRestriction {
	return Inapplicable
}

// equivalentHighwayTags normalises link/minor highway values onto their
// base classification for penalty lookup.
var equivalentHighwayTags = map[string]string{
	"motorway_link":  "motorway",
	"trunk_link":     "trunk",
	"primary_link":   "primary",
	"secondary_link": "secondary",
	"tertiary_link":  "tertiary",
	"minor":          "unclassified",
}

// HighwayProfile implements Profile for routing over highway=* ways. It is
// parameterised by a name, a table of penalties keyed by normalised
// highway value, and an access-tag hierarchy listed least-specific first
// (e.g. access, vehicle, motor_vehicle, motorcar).
//
// HighwayVariant hooks let subclasses in the original Python sense (Foot,
// Railway, NonMotorroad) override individual steps without reimplementing
// WayPenalty/WayDirection/IsTurnRestriction wholesale; HighwayProfile
// collapses that inheritance tree into composition, per the design notes.
type HighwayProfile struct {
	Name       string
	Penalties  map[string]float64
	AccessTags []string

	// Variant, if non-nil, lets a concrete mode override individual
	// decision steps. A nil Variant behaves like plain HighwayProfile.
	Variant HighwayVariant
}

// HighwayVariant is the composition seam HighwayProfile consults instead of
// subclassing. Every method has a sensible default; Variant implementations
// only override what differs.
type HighwayVariant interface {
	// ActiveHighwayValue returns the normalised highway classification
	// used for penalty lookup, given the raw tags.
	ActiveHighwayValue(tags feature.Tags) string
	// ExtraAccessCheck returns false if the variant forbids the way
	// regardless of what the access hierarchy says.
	ExtraAccessCheck(tags feature.Tags) bool
	// OverrideDirection lets the variant compute (forward, backward) from
	// scratch instead of the default oneway handling; ok=false falls back
	// to the default.
	OverrideDirection(tags feature.Tags) (forward, backward, ok bool)
	// ActiveRestrictionValue returns the restriction:<mode> (or plain
	// restriction) tag value that applies to this variant.
	ActiveRestrictionValue(tags feature.Tags, access []string) string
}

// defaultVariant implements HighwayVariant with HighwayProfile's base
// behaviour; embed it to override only a subset of hooks.
type defaultVariant struct{}

func (defaultVariant) ActiveHighwayValue(tags feature.Tags) string {
	hw := tags.Find("highway")
	if eq, ok := equivalentHighwayTags[hw]; ok {
		return eq
	}
	return hw
}

func (defaultVariant) ExtraAccessCheck(feature.Tags) bool { return true }

func (defaultVariant) OverrideDirection(feature.Tags) (bool, bool, bool) {
	return false, false, false
}

func (defaultVariant) ActiveRestrictionValue(tags feature.Tags, access []string) string {
	active := ""
	for _, mode := range access {
		key := "restriction:" + mode
		if mode == "access" {
			key = "restriction"
		}
		if v := tags.Find(key); v != "" {
			active = v
		}
	}
	return active
}

func (p *HighwayProfile) variant() HighwayVariant {
	if p.Variant != nil {
		return p.Variant
	}
	return defaultVariant{}
}

func (p *HighwayProfile) WayPenalty(tags feature.Tags) (float64, bool) {
	h := p.variant().ActiveHighwayValue(tags)
	penalty, ok := p.Penalties[h]
	if !ok {
		return 0, false
	}
	if !p.isAllowed(tags) {
		return 0, false
	}
	return penalty, true
}

func (p *HighwayProfile) isAllowed(tags feature.Tags) bool {
	if !p.variant().ExtraAccessCheck(tags) {
		return false
	}
	allowed := true
	for _, key := range p.AccessTags {
		value := tags.Find(key)
		if !tags.HasTag(key) {
			continue
		}
		if value == "no" || value == "private" {
			allowed = false
		} else {
			allowed = true
		}
	}
	return allowed
}

func (p *HighwayProfile) WayDirection(tags feature.Tags) (forward, backward bool) {
	if f, b, ok := p.variant().OverrideDirection(tags); ok {
		return f, b
	}

	forward, backward = true, true

	if tags.Find("highway") == "motorway" || tags.Find("highway") == "motorway_link" ||
		junctionIsRoundabout(tags) {
		backward = false
	}

	mostSpecific := p.mostSpecificOneway(tags)
	switch mostSpecific {
	case "yes", "true", "1":
		forward, backward = true, false
	case "-1", "reverse":
		forward, backward = false, true
	case "no":
		forward, backward = true, true
	}

	return forward, backward
}

func junctionIsRoundabout(tags feature.Tags) bool {
	j := tags.Find("junction")
	return j == "roundabout" || j == "circular"
}

// mostSpecificOneway walks AccessTags from most to least specific looking
// for oneway:<mode>, falling back to the plain oneway tag.
func (p *HighwayProfile) mostSpecificOneway(tags feature.Tags) string {
	for i := len(p.AccessTags) - 1; i >= 0; i-- {
		mode := p.AccessTags[i]
		if mode == "access" {
			continue
		}
		if v := tags.Find("oneway:" + mode); v != "" {
			return v
		}
	}
	return tags.Find("oneway")
}

func (p *HighwayProfile) IsTurnRestriction(tags feature.Tags) TurnRestriction {
	if tags.Find("type") != "restriction" || p.isExempted(tags) {
		return Inapplicable
	}

	restriction := p.variant().ActiveRestrictionValue(tags, p.AccessTags)
	kind, description, found := strings.Cut(restriction, "_")
	if !found {
		return Inapplicable
	}
	if kind != "no" && kind != "only" {
		return Inapplicable
	}
	switch description {
	case "right_turn", "left_turn", "u_turn", "straight_on":
	default:
		return Inapplicable
	}

	if kind == "only" {
		return Mandatory
	}
	return Prohibitory
}

func (p *HighwayProfile) isExempted(tags feature.Tags) bool {
	except := tags.Find("except")
	if except == "" {
		return false
	}
	for _, exemptedMode := range strings.Split(except, ";") {
		for _, mode := range p.AccessTags {
			if exemptedMode == mode {
				return true
			}
		}
	}
	return false
}
