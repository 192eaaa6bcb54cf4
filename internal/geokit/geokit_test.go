package geokit

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestInBounds(t *testing.T) {
	b := DefaultBounds()
	if !b.InBounds(127.0, 37.5) {
		t.Fatal("expected Seoul coordinate inside regional bounds")
	}
	if b.InBounds(139.7, 35.7) {
		t.Fatal("expected Tokyo coordinate outside regional bounds")
	}
}

func TestIsValidWGS84(t *testing.T) {
	if !IsValidWGS84(127.0, 37.5) {
		t.Fatal("expected valid coordinate to pass")
	}
	if IsValidWGS84(200, 37.5) {
		t.Fatal("expected out-of-range longitude to fail")
	}
}

func TestDistanceKnownPoints(t *testing.T) {
	seoul := NewPoint(127.0, 37.5)
	busan := NewPoint(129.0, 35.1)
	d := Distance(seoul, busan)
	if d < 300_000 || d > 350_000 {
		t.Fatalf("expected ~325km between Seoul and Busan, got %.0fm", d)
	}
}

func TestCentroid(t *testing.T) {
	pts := []orb.Point{NewPoint(127.0, 37.0), NewPoint(127.2, 37.2)}
	c := Centroid(pts)
	if c[0] < 127.0 || c[0] > 127.2 || c[1] < 37.0 || c[1] > 37.2 {
		t.Fatalf("expected centroid between inputs, got %v", c)
	}
}

func TestClosePairsFindsNearDuplicates(t *testing.T) {
	pts := []orb.Point{
		NewPoint(127.0, 37.5),
		NewPoint(127.0, 37.500001), // ~0.1m away
		NewPoint(129.0, 35.1),      // far away
	}
	pairs := ClosePairs(pts, 10)
	if len(pairs) != 1 {
		t.Fatalf("expected exactly 1 close pair, got %d: %v", len(pairs), pairs)
	}
	if pairs[0] != [2]int{0, 1} {
		t.Fatalf("expected pair (0,1), got %v", pairs[0])
	}
}
