// Package geokit implements CoordinateKit: WGS84 validity, regional bounds
// checking, haversine distance, and centroid computation for the clustering
// and sequencing cores. Distance uses github.com/paulmach/orb/geo rather
// than a hand-rolled haversine formula; proximity-pair detection uses
// github.com/uber/h3-go/v4 to bucket points instead of an O(n^2) scan.
package geokit

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/uber/h3-go/v4"
)

// Bounds describes a regional validity box in degrees.
type Bounds struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// DefaultBounds matches spec.md's configured regional bound.
func DefaultBounds() Bounds {
	return Bounds{MinLon: 124, MaxLon: 132, MinLat: 33, MaxLat: 43}
}

// IsValidWGS84 reports whether lon/lat are within the WGS84 coordinate
// space, independent of any regional restriction.
func IsValidWGS84(lon, lat float64) bool {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// InBounds reports whether lon/lat fall within b.
func (b Bounds) InBounds(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// NewPoint builds an orb.Point from (lon, lat), the order orb expects.
func NewPoint(lon, lat float64) orb.Point {
	return orb.Point{lon, lat}
}

// Distance returns the haversine great-circle distance between a and b, in meters.
func Distance(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b)
}

// RoadDistance applies a straight-line-to-road degradation factor, as used
// by ClusterBuilder's Lloyd assignment step (spec.md §4.2).
func RoadDistance(a, b orb.Point, roadFactor float64) float64 {
	return Distance(a, b) * roadFactor
}

// Centroid returns the arithmetic mean longitude/latitude of points. For an
// empty slice both coordinates are NaN; callers must guard non-empty
// clusters themselves.
func Centroid(points []orb.Point) orb.Point {
	var sumLon, sumLat float64
	for _, p := range points {
		sumLon += p[0]
		sumLat += p[1]
	}
	n := float64(len(points))
	return orb.Point{sumLon / n, sumLat / n}
}

// h3Resolution is tuned so that a cell's edge is on the order of tens of
// meters, coarse enough to bucket a 10 m proximity scan without excessive
// cell counts across a metro-scale delivery area.
const h3Resolution = 12

// Bucket returns the H3 cell containing (lon, lat) at the fixed bucketing
// resolution used for proximity detection.
func Bucket(lon, lat float64) h3.Cell {
	return h3.LatLngToCell(h3.NewLatLng(lat, lon), h3Resolution)
}

// ClosePairs finds every pair of indices (i, j), i<j, into points whose
// haversine distance is <= thresholdMeters, among points that share an H3
// bucket or lie in adjacent buckets. Buckets use the fixed h3Resolution
// whatever the threshold; pairs whose buckets are not adjacent are never
// distance-checked and so are not reported, which can happen for a
// threshold larger than about one cell edge. The scan is near-linear
// instead of O(n^2) for well-separated inputs.
func ClosePairs(points []orb.Point, thresholdMeters float64) [][2]int {
	type bucketed struct {
		cell h3.Cell
		idx  int
	}
	buckets := make(map[h3.Cell][]int, len(points))
	order := make([]bucketed, len(points))
	for i, p := range points {
		cell := Bucket(p[0], p[1])
		order[i] = bucketed{cell: cell, idx: i}
		buckets[cell] = append(buckets[cell], i)
	}

	seen := make(map[[2]int]struct{})
	var pairs [][2]int
	for _, b := range order {
		neighbors, err := h3.GridDisk(b.cell, 1)
		if err != nil {
			neighbors = []h3.Cell{b.cell}
		}
		for _, nc := range neighbors {
			for _, j := range buckets[nc] {
				if j <= b.idx {
					continue
				}
				if Distance(points[b.idx], points[j]) <= thresholdMeters {
					key := [2]int{b.idx, j}
					if _, dup := seen[key]; !dup {
						seen[key] = struct{}{}
						pairs = append(pairs, key)
					}
				}
			}
		}
	}
	return pairs
}
