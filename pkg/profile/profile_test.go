package profile

import (
	"testing"

	"turnrouter/pkg/feature"
)

func tags(kv ...string) feature.Tags {
	t := feature.Tags{}
	for i := 0; i+1 < len(kv); i += 2 {
		t[kv[i]] = kv[i+1]
	}
	return t
}

func TestSkeletonProfile(t *testing.T) {
	p := SkeletonProfile{}

	if penalty, ok := p.WayPenalty(tags()); !ok || penalty != 1 {
		t.Errorf("WayPenalty = (%v, %v), want (1, true)", penalty, ok)
	}

	tests := []struct {
		name         string
		tags         feature.Tags
		fwd, bwd     bool
	}{
		{"no oneway", tags(), true, true},
		{"oneway yes", tags("oneway", "yes"), true, false},
		{"oneway -1", tags("oneway", "-1"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd, bwd := p.WayDirection(tt.tags)
			if fwd != tt.fwd || bwd != tt.bwd {
				t.Errorf("WayDirection = (%v, %v), want (%v, %v)", fwd, bwd, tt.fwd, tt.bwd)
			}
		})
	}

	if p.IsTurnRestriction(tags("type", "restriction", "restriction", "no_left_turn")) != Inapplicable {
		t.Errorf("SkeletonProfile should ignore all relations")
	}
}

func TestHighwayProfileWayPenalty(t *testing.T) {
	car := Car()

	tests := []struct {
		name       string
		tags       feature.Tags
		wantOK     bool
		wantVal    float64
	}{
		{"unknown highway", tags("highway", "made_up"), false, 0},
		{"primary road", tags("highway", "primary"), true, 5.0},
		{"motorway_link normalises to motorway", tags("highway", "motorway_link"), true, 1.0},
		{"access=no forbids", tags("highway", "primary", "access", "no"), false, 0},
		{"access=private forbids", tags("highway", "primary", "access", "private"), false, 0},
		{"vehicle=no overrides access=yes", tags("highway", "primary", "access", "yes", "vehicle", "no"), false, 0},
		{"motorcar=yes re-allows after vehicle=no", tags("highway", "primary", "vehicle", "no", "motorcar", "yes"), true, 5.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := car.WayPenalty(tt.tags)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.wantVal {
				t.Errorf("penalty = %v, want %v", got, tt.wantVal)
			}
		})
	}
}

func TestHighwayProfileWayDirection(t *testing.T) {
	car := Car()

	tests := []struct {
		name     string
		tags     feature.Tags
		fwd, bwd bool
	}{
		{"two-way default", tags("highway", "residential"), true, true},
		{"motorway implies oneway", tags("highway", "motorway"), true, false},
		{"roundabout implies oneway", tags("highway", "residential", "junction", "roundabout"), true, false},
		{"oneway=yes", tags("highway", "residential", "oneway", "yes"), true, false},
		{"oneway=-1", tags("highway", "residential", "oneway", "-1"), false, true},
		{"oneway=no overrides motorway default", tags("highway", "motorway", "oneway", "no"), true, true},
		{"oneway:motorcar overrides oneway", tags("highway", "residential", "oneway", "yes", "oneway:motorcar", "no"), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd, bwd := car.WayDirection(tt.tags)
			if fwd != tt.fwd || bwd != tt.bwd {
				t.Errorf("WayDirection = (%v, %v), want (%v, %v)", fwd, bwd, tt.fwd, tt.bwd)
			}
		})
	}
}

func TestHighwayProfileTurnRestriction(t *testing.T) {
	car := Car()

	tests := []struct {
		name string
		tags feature.Tags
		want TurnRestriction
	}{
		{"not a restriction", tags("type", "multipolygon"), Inapplicable},
		{"no_left_turn", tags("type", "restriction", "restriction", "no_left_turn"), Prohibitory},
		{"only_straight_on", tags("type", "restriction", "restriction", "only_straight_on"), Mandatory},
		{"unknown description", tags("type", "restriction", "restriction", "no_teleport"), Inapplicable},
		{"exempted via except", tags("type", "restriction", "restriction", "no_left_turn", "except", "motorcar"), Inapplicable},
		{"restriction:motorcar overrides restriction", tags("type", "restriction", "restriction", "no_left_turn", "restriction:motorcar", "only_straight_on"), Mandatory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := car.IsTurnRestriction(tt.tags); got != tt.want {
				t.Errorf("IsTurnRestriction = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBicycleMotorroadExcluded(t *testing.T) {
	bike := Bicycle()
	if _, ok := bike.WayPenalty(tags("highway", "primary", "motorroad", "yes")); ok {
		t.Error("motorroad=yes should forbid bicycle access")
	}
}

func TestFootProfilePlatform(t *testing.T) {
	foot := FootProfile()

	if _, ok := foot.WayPenalty(tags("railway", "platform")); !ok {
		t.Error("railway=platform should be routable for foot")
	}
	if _, ok := foot.WayPenalty(tags("public_transport", "platform")); !ok {
		t.Error("public_transport=platform should be routable for foot")
	}
}

func TestFootProfileOnewayOnlyOnFootwayLike(t *testing.T) {
	foot := FootProfile()

	// oneway on a residential road shouldn't restrict foot traffic.
	fwd, bwd := foot.WayDirection(tags("highway", "residential", "oneway", "yes"))
	if !fwd || !bwd {
		t.Errorf("oneway should be ignored on non-footway highways for Foot, got (%v, %v)", fwd, bwd)
	}

	// oneway on a footway does restrict.
	fwd, bwd = foot.WayDirection(tags("highway", "footway", "oneway", "yes"))
	if !fwd || bwd {
		t.Errorf("oneway should apply on footway for Foot, got (%v, %v)", fwd, bwd)
	}

	// oneway:foot overrides oneway even on footway.
	fwd, bwd = foot.WayDirection(tags("highway", "footway", "oneway", "yes", "oneway:foot", "no"))
	if !fwd || !bwd {
		t.Errorf("oneway:foot=no should override oneway=yes, got (%v, %v)", fwd, bwd)
	}
}

func TestFootProfileRestrictionMode(t *testing.T) {
	foot := FootProfile()

	// A restriction with only the generic "restriction" tag doesn't apply to Foot.
	got := foot.IsTurnRestriction(tags("type", "restriction", "restriction", "no_left_turn"))
	if got != Inapplicable {
		t.Errorf("generic restriction tag should not apply to Foot, got %v", got)
	}

	got = foot.IsTurnRestriction(tags("type", "restriction", "restriction:foot", "no_left_turn"))
	if got != Prohibitory {
		t.Errorf("restriction:foot should apply to Foot, got %v", got)
	}
}

func TestRailwayProfile(t *testing.T) {
	rail := Rail()

	if penalty, ok := rail.WayPenalty(tags("railway", "rail")); !ok || penalty != 1.0 {
		t.Errorf("WayPenalty = (%v, %v), want (1.0, true)", penalty, ok)
	}
	if _, ok := rail.WayPenalty(tags("railway", "rail", "access", "no")); ok {
		t.Error("access=no should forbid rail access")
	}
	if _, ok := rail.WayPenalty(tags("railway", "platform")); ok {
		t.Error("railway=platform is not in Rail's penalty table")
	}

	fwd, bwd := rail.WayDirection(tags("railway", "rail"))
	if !fwd || !bwd {
		t.Errorf("rail default direction should be bidirectional, got (%v, %v)", fwd, bwd)
	}
	fwd, bwd = rail.WayDirection(tags("railway", "rail", "oneway", "yes"))
	if !fwd || bwd {
		t.Errorf("explicit oneway=yes should restrict rail, got (%v, %v)", fwd, bwd)
	}

	if got := rail.IsTurnRestriction(tags("type", "restriction", "restriction", "no_u_turn")); got != Prohibitory {
		t.Errorf("IsTurnRestriction = %v, want Prohibitory", got)
	}
}
