package osmsource

import (
	"testing"

	"github.com/paulmach/osm"

	"turnrouter/pkg/feature"
)

func TestBBoxIsZero(t *testing.T) {
	var b BBox
	if !b.IsZero() {
		t.Error("zero-value BBox should report IsZero")
	}
	b = BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}
	if b.IsZero() {
		t.Error("populated BBox should not report IsZero")
	}
}

func TestBBoxContains(t *testing.T) {
	b := BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}
	if !b.Contains(1.3, 103.8) {
		t.Error("point inside box should be contained")
	}
	if b.Contains(1.5, 103.8) {
		t.Error("point outside box (lat) should not be contained")
	}
	if b.Contains(1.3, 105.0) {
		t.Error("point outside box (lng) should not be contained")
	}
}

func TestTagsOf(t *testing.T) {
	got := tagsOf(osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "oneway", Value: "yes"},
	})
	if got.Find("highway") != "residential" || got.Find("oneway") != "yes" {
		t.Errorf("tagsOf() = %v, want highway=residential oneway=yes", got)
	}
	if tagsOf(nil) != nil {
		t.Error("tagsOf(nil) should be nil, not an empty map")
	}
}

func TestMemberType(t *testing.T) {
	tests := []struct {
		in   osm.Type
		want feature.MemberType
	}{
		{osm.TypeNode, feature.MemberNode},
		{osm.TypeWay, feature.MemberWay},
		{osm.TypeRelation, feature.MemberRelation},
	}
	for _, tt := range tests {
		if got := memberType(tt.in); got != tt.want {
			t.Errorf("memberType(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPositionOf(t *testing.T) {
	n := &osm.Node{Lat: 1.3, Lon: 103.8}
	p := positionOf(n)
	if p.Lat != 1.3 || p.Lon != 103.8 {
		t.Errorf("positionOf() = %+v, want {1.3 103.8}", p)
	}
}

func TestMemorySourceScan(t *testing.T) {
	src := &MemorySource{features: []feature.Feature{
		feature.Node{ID: 1},
		feature.Way{ID: 10},
	}}
	if src.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", src.Len())
	}

	var got []feature.Feature
	for src.Scan() {
		got = append(got, src.Feature())
	}
	if len(got) != 2 {
		t.Fatalf("scanned %d features, want 2", len(got))
	}
	if _, ok := got[0].(feature.Node); !ok {
		t.Errorf("first feature = %T, want feature.Node", got[0])
	}
	if _, ok := got[1].(feature.Way); !ok {
		t.Errorf("second feature = %T, want feature.Way", got[1])
	}
	if src.Scan() {
		t.Error("Scan() should return false once exhausted")
	}
	if src.Err() != nil {
		t.Errorf("Err() = %v, want nil", src.Err())
	}
}

func TestMemorySourceEmpty(t *testing.T) {
	src := &MemorySource{}
	if src.Scan() {
		t.Error("Scan() on an empty source should return false")
	}
}
