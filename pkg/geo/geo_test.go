package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name             string
		a, b             Position
		wantKm           float64
		tolerancePercent float64
	}{
		{
			name:             "Singapore CBD to Changi Airport",
			a:                Position{1.2830, 103.8513}, // Raffles Place
			b:                Position{1.3644, 103.9915}, // Changi Airport
			wantKm:           18.023,
			tolerancePercent: 1,
		},
		{
			name:   "Same point",
			a:      Position{1.3521, 103.8198},
			b:      Position{1.3521, 103.8198},
			wantKm: 0,
		},
		{
			name:             "London to Paris",
			a:                Position{51.5074, -0.1278},
			b:                Position{48.8566, 2.3522},
			wantKm:           343.5,
			tolerancePercent: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.a, tt.b)
			if tt.wantKm == 0 {
				if got != 0 {
					t.Errorf("Haversine = %f, want 0", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantKm) / tt.wantKm * 100
			if diff > tt.tolerancePercent {
				t.Errorf("Haversine = %f km, want ~%f km (diff %.1f%%)", got, tt.wantKm, diff)
			}
		})
	}
}

func TestEuclidean(t *testing.T) {
	got := Euclidean(Position{0, 0}, Position{3, 4})
	if got != 5 {
		t.Errorf("Euclidean = %f, want 5", got)
	}
}

func TestTaxicab(t *testing.T) {
	got := Taxicab(Position{0, 0}, Position{3, -4})
	if got != 7 {
		t.Errorf("Taxicab = %f, want 7", got)
	}
}

// TestHaversineSymmetric checks that the distance does not depend on the
// order of its arguments.
func TestHaversineSymmetric(t *testing.T) {
	a := Position{1.3521, 103.8198}
	b := Position{1.36, 103.83}
	if Haversine(a, b) != Haversine(b, a) {
		t.Errorf("Haversine is not symmetric")
	}
}
