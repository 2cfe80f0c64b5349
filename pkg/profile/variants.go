package profile

import (
	"strings"

	"turnrouter/pkg/feature"
)

// nonMotorroadVariant adds the rule that motorroad=yes ways are closed to
// the current mode, on top of whatever the embedded variant already does.
type nonMotorroadVariant struct {
	HighwayVariant
}

func (v nonMotorroadVariant) ExtraAccessCheck(tags feature.Tags) bool {
	if tags.Find("motorroad") == "yes" {
		return false
	}
	return v.HighwayVariant.ExtraAccessCheck(tags)
}

// NonMotorroad wraps a HighwayVariant (or nil, for the default behaviour)
// so motorroad=yes ways are excluded. Bicycle and Foot profiles use it.
func NonMotorroad(base HighwayVariant) HighwayVariant {
	if base == nil {
		base = defaultVariant{}
	}
	return nonMotorroadVariant{HighwayVariant: base}
}

// footVariant implements the Foot profile's extra rules: platform tags
// count as highway=platform for penalty lookup, oneway is only honoured on
// footway/path/steps/platform (and further overridden by oneway:foot), and
// only restriction:foot relations are considered.
type footVariant struct {
	nonMotorroadVariant
}

// Foot returns the HighwayVariant used by the Foot profile.
func Foot() HighwayVariant {
	return footVariant{nonMotorroadVariant{HighwayVariant: defaultVariant{}}}
}

func (footVariant) ActiveHighwayValue(tags feature.Tags) string {
	if tags.Find("public_transport") == "platform" || tags.Find("railway") == "platform" {
		return "platform"
	}
	return defaultVariant{}.ActiveHighwayValue(tags)
}

var footOnewayHighways = map[string]bool{
	"footway":  true,
	"path":     true,
	"steps":    true,
	"platform": true,
}

func (v footVariant) OverrideDirection(tags feature.Tags) (forward, backward, ok bool) {
	hw := v.ActiveHighwayValue(tags)
	if !footOnewayHighways[hw] {
		return true, true, true
	}

	forward, backward = true, true
	oneway := tags.Find("oneway")
	if v := tags.Find("oneway:foot"); v != "" {
		oneway = v
	}
	switch oneway {
	case "yes", "true", "1":
		forward, backward = true, false
	case "-1", "reverse":
		forward, backward = false, true
	case "no":
		forward, backward = true, true
	}
	return forward, backward, true
}

func (footVariant) ActiveRestrictionValue(tags feature.Tags, _ []string) string {
	return tags.Find("restriction:foot")
}

// RailwayProfile implements Profile directly rather than through
// HighwayProfile/HighwayVariant: its access rule, penalty key (railway=*
// instead of highway=*), oneway defaults and restriction matching are all
// different enough from the highway family that composing it through
// HighwayVariant would need more escape hatches than it would save.
type RailwayProfile struct {
	Name       string
	Penalties  map[string]float64
	AccessTags []string
}

func (p *RailwayProfile) WayPenalty(tags feature.Tags) (float64, bool) {
	for _, key := range p.AccessTags {
		if v := tags.Find(key); v == "no" || v == "private" {
			return 0, false
		}
	}
	penalty, ok := p.Penalties[tags.Find("railway")]
	if !ok {
		return 0, false
	}
	return penalty, true
}

func (p *RailwayProfile) WayDirection(tags feature.Tags) (forward, backward bool) {
	switch tags.Find("oneway") {
	case "yes":
		return true, false
	case "-1":
		return false, true
	default:
		return true, true
	}
}

func (p *RailwayProfile) IsTurnRestriction(tags feature.Tags) TurnRestriction {
	if tags.Find("type") != "restriction" {
		return Inapplicable
	}
	restriction := tags.Find("restriction")
	kind, description, found := strings.Cut(restriction, "_")
	if !found || (kind != "no" && kind != "only") {
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

// Car is a HighwayProfile preset for car routing.
func Car() *HighwayProfile {
	return &HighwayProfile{
		Name: "motorcar",
		Penalties: map[string]float64{
			"motorway":      1.0,
			"trunk":         1.0,
			"primary":       5.0,
			"secondary":     6.5,
			"tertiary":      10.0,
			"unclassified":  10.0,
			"residential":   15.0,
			"living_street": 20.0,
			"track":         20.0,
			"service":       20.0,
		},
		AccessTags: []string{"access", "vehicle", "motor_vehicle", "motorcar"},
	}
}

// Bus is a HighwayProfile preset for bus routing.
func Bus() *HighwayProfile {
	return &HighwayProfile{
		Name: "bus",
		Penalties: map[string]float64{
			"motorway":      1.0,
			"trunk":         1.0,
			"primary":       1.1,
			"secondary":     1.15,
			"tertiary":      1.15,
			"unclassified":  1.5,
			"residential":   2.5,
			"living_street": 2.5,
			"track":         5.0,
			"service":       5.0,
		},
		AccessTags: []string{"access", "vehicle", "motor_vehicle", "psv", "bus", "routing:ztm"},
	}
}

// Bicycle is a HighwayProfile preset for bicycle routing. motorroad=yes
// ways are excluded.
func Bicycle() *HighwayProfile {
	return &HighwayProfile{
		Name: "bicycle",
		Penalties: map[string]float64{
			"trunk":         50.0,
			"primary":       10.0,
			"secondary":     3.0,
			"tertiary":      2.5,
			"unclassified":  2.5,
			"cycleway":      1.0,
			"residential":   1.0,
			"living_street": 1.5,
			"track":         2.0,
			"service":       2.0,
			"bridleway":     3.0,
			"footway":       3.0,
			"steps":         5.0,
			"path":          2.0,
		},
		AccessTags: []string{"access", "vehicle", "bicycle"},
		Variant:    NonMotorroad(nil),
	}
}

// FootProfile is a HighwayProfile preset for on-foot routing. It treats
// public_transport=platform/railway=platform as highway=platform, only
// honours oneway on footway/path/steps/platform ways (overridden by
// oneway:foot), and only considers restriction:foot relations.
func FootProfile() *HighwayProfile {
	return &HighwayProfile{
		Name: "foot",
		Penalties: map[string]float64{
			"trunk":         4.0,
			"primary":       2.0,
			"secondary":     1.3,
			"tertiary":      1.2,
			"unclassified":  1.2,
			"residential":   1.2,
			"living_street": 1.2,
			"track":         1.2,
			"service":       1.2,
			"bridleway":     1.2,
			"footway":       1.05,
			"path":          1.05,
			"steps":         1.15,
			"pedestrian":    1.0,
			"platform":      1.1,
		},
		AccessTags: []string{"access", "foot"},
		Variant:    Foot(),
	}
}

// Rail is a RailwayProfile preset for heavy/light rail routing.
func Rail() *RailwayProfile {
	return &RailwayProfile{
		Name: "rail",
		Penalties: map[string]float64{
			"rail":         1.0,
			"light_rail":   1.2,
			"narrow_gauge": 1.5,
		},
		AccessTags: []string{"access", "railway"},
	}
}

// Tram is a RailwayProfile preset for tram routing.
func Tram() *RailwayProfile {
	return &RailwayProfile{
		Name: "tram",
		Penalties: map[string]float64{
			"tram": 1.0,
		},
		AccessTags: []string{"access", "railway"},
	}
}

// Subway is a RailwayProfile preset for metro/subway routing.
func Subway() *RailwayProfile {
	return &RailwayProfile{
		Name: "subway",
		Penalties: map[string]float64{
			"subway": 1.0,
		},
		AccessTags: []string{"access", "railway"},
	}
}
