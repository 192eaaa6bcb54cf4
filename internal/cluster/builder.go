// Package cluster implements the global clustering and sequencing core:
// ClusterBuilder, ClusterSequencer, ClusterEndpointPicker, and
// InternalOrderer (spec.md §4.2-4.5). Hand-implemented: no clustering
// library in the retrieval pack exposes farthest-first seeding, a
// road-factor-weighted haversine metric, and post-hoc size balancing
// without fighting its own API (see DESIGN.md). Distance and centroid
// primitives come from internal/geokit, which is itself built on
// paulmach/orb/geo.
package cluster

import (
	"sort"

	"frameworks/courierplan/internal/geokit"
	"frameworks/courierplan/internal/planmodel"
)

// BuilderConfig tunes ClusterBuilder. RoadFactor and MaxClusterSize are
// exposed rather than hardcoded, resolving spec.md §9's open question on
// whether the 1.3 road-distance multiplier is configurable.
type BuilderConfig struct {
	RoadFactor      float64
	MaxClusterSize  int
	MaxLloydRounds  int
	ProximityMeters float64
}

func (c BuilderConfig) withDefaults() BuilderConfig {
	if c.RoadFactor == 0 {
		c.RoadFactor = 1.3
	}
	if c.MaxClusterSize == 0 {
		c.MaxClusterSize = 30
	}
	if c.MaxLloydRounds == 0 {
		c.MaxLloydRounds = 10
	}
	if c.ProximityMeters == 0 {
		c.ProximityMeters = 10
	}
	return c
}

// ProximityWarning records a pair of points within the builder's proximity
// threshold, surfaced for logging; clusters are never merged because of one
// (spec.md §4.2: "do not merge, merging loses orders").
type ProximityWarning struct {
	ClusterID int
	A, B      planmodel.Point
	Meters    float64
}

// BuildResult is ClusterBuilder's output: the partition plus any proximity
// warnings collected across all clusters.
type BuildResult struct {
	Clusters []planmodel.Cluster
	Warnings []ProximityWarning
}

// Builder implements ClusterBuilder.
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder constructs a Builder with cfg, applying defaults.
func NewBuilder(cfg BuilderConfig) *Builder {
	cfg = cfg.withDefaults()
	return &Builder{cfg: cfg}
}

// Build partitions points into at most k non-empty clusters (spec.md §4.2).
// Clusters left empty after the Lloyd rounds are discarded, so fewer than k
// can come back (for example when points share coordinates). Callers must
// ensure 1 <= k <= len(points); Build clamps k into that range otherwise.
func (b *Builder) Build(points []planmodel.Point, k int) BuildResult {
	if len(points) == 0 {
		return BuildResult{}
	}
	if k > len(points) {
		k = len(points)
	}
	if k < 1 {
		k = 1
	}

	centroids := seedFarthestFirst(points, k)
	assignments := make([]int, len(points))

	for round := 0; round < b.cfg.MaxLloydRounds; round++ {
		for i, p := range points {
			assignments[i] = nearestCentroid(p, centroids, b.cfg.RoadFactor)
		}

		moved := 0.0
		newCentroids := recomputeCentroids(points, assignments, len(centroids))
		for i := range centroids {
			if newCentroids[i] != nil {
				moved += geokit.Distance(centroids[i], *newCentroids[i])
				centroids[i] = *newCentroids[i]
			}
		}
		if moved < 1.0 {
			break
		}
	}

	clusters := assembleClusters(points, assignments, len(centroids))
	clusters = discardEmpty(clusters)
	clusters = b.balanceSizes(clusters)

	renumber(clusters)
	warnings := b.collectProximityWarnings(clusters)

	return BuildResult{Clusters: clusters, Warnings: warnings}
}

// seedFarthestFirst implements the farthest-first traversal seed (spec.md
// §4.2 step 1): centroid0 = points[0]; each subsequent centroid is the
// remaining point maximizing its minimum distance to the existing set.
func seedFarthestFirst(points []planmodel.Point, k int) []geokitPoint {
	centroids := make([]geokitPoint, 0, k)
	centroids = append(centroids, toGeo(points[0]))

	for len(centroids) < k {
		bestIdx := -1
		bestMinDist := -1.0
		for i, p := range points {
			gp := toGeo(p)
			minDist := minDistanceTo(gp, centroids)
			if minDist > bestMinDist {
				bestMinDist = minDist
				bestIdx = i
			}
		}
		centroids = append(centroids, toGeo(points[bestIdx]))
	}
	return centroids
}

func minDistanceTo(p geokitPoint, set []geokitPoint) float64 {
	min := -1.0
	for _, c := range set {
		d := geokit.Distance(p, c)
		if min < 0 || d < min {
			min = d
		}
	}
	return min
}

func nearestCentroid(p planmodel.Point, centroids []geokitPoint, roadFactor float64) int {
	gp := toGeo(p)
	best := 0
	bestDist := geokit.RoadDistance(gp, centroids[0], roadFactor)
	for i := 1; i < len(centroids); i++ {
		d := geokit.RoadDistance(gp, centroids[i], roadFactor)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func recomputeCentroids(points []planmodel.Point, assignments []int, k int) []*geokitPoint {
	groups := make([][]geokitPoint, k)
	for i, p := range points {
		a := assignments[i]
		groups[a] = append(groups[a], toGeo(p))
	}
	out := make([]*geokitPoint, k)
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		c := geokit.Centroid(g)
		out[i] = &c
	}
	return out
}

func assembleClusters(points []planmodel.Point, assignments []int, k int) []planmodel.Cluster {
	clusters := make([]planmodel.Cluster, k)
	for i := range clusters {
		clusters[i].ID = i
	}
	for i, p := range points {
		a := assignments[i]
		clusters[a].Members = append(clusters[a].Members, p)
	}
	return clusters
}

func discardEmpty(clusters []planmodel.Cluster) []planmodel.Cluster {
	out := clusters[:0]
	for _, c := range clusters {
		if len(c.Members) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// balanceSizes implements spec.md §4.2 step 4: while any cluster exceeds
// MaxClusterSize, move its farthest-from-centroid member into the smallest
// under-capacity cluster, breaking ties by proximity of that cluster's
// centroid. Terminates when a full pass makes no move.
func (b *Builder) balanceSizes(clusters []planmodel.Cluster) []planmodel.Cluster {
	for {
		moved := false
		for i := range clusters {
			if len(clusters[i].Members) <= b.cfg.MaxClusterSize {
				continue
			}
			targetIdx := smallestUnderCapacity(clusters, i, b.cfg.MaxClusterSize, clusters[i].Members)
			if targetIdx < 0 {
				continue
			}
			farIdx := farthestFromCentroid(clusters[i].Members)
			member := clusters[i].Members[farIdx]
			clusters[i].Members = append(clusters[i].Members[:farIdx], clusters[i].Members[farIdx+1:]...)
			clusters[targetIdx].Members = append(clusters[targetIdx].Members, member)
			moved = true
		}
		if !moved {
			break
		}
	}
	return clusters
}

func farthestFromCentroid(members []planmodel.Point) int {
	pts := make([]geokitPoint, len(members))
	for i, m := range members {
		pts[i] = toGeo(m)
	}
	c := geokit.Centroid(pts)
	best := 0
	bestDist := geokit.Distance(pts[0], c)
	for i := 1; i < len(pts); i++ {
		d := geokit.Distance(pts[i], c)
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func smallestUnderCapacity(clusters []planmodel.Cluster, exclude int, maxSize int, movingFrom []planmodel.Point) int {
	best := -1
	bestSize := maxSize + 1
	bestDist := -1.0
	farIdx := farthestFromCentroid(movingFrom)
	movingPoint := toGeo(movingFrom[farIdx])
	for i := range clusters {
		if i == exclude || len(clusters[i].Members) >= maxSize {
			continue
		}
		size := len(clusters[i].Members)
		pts := make([]geokitPoint, len(clusters[i].Members))
		for j, m := range clusters[i].Members {
			pts[j] = toGeo(m)
		}
		centroid := geokit.Centroid(pts)
		dist := geokit.Distance(movingPoint, centroid)
		if size < bestSize || (size == bestSize && dist < bestDist) {
			best = i
			bestSize = size
			bestDist = dist
		}
	}
	return best
}

func renumber(clusters []planmodel.Cluster) {
	for i := range clusters {
		clusters[i].ID = i
	}
}

func (b *Builder) collectProximityWarnings(clusters []planmodel.Cluster) []ProximityWarning {
	var warnings []ProximityWarning
	for _, c := range clusters {
		if len(c.Members) < 2 {
			continue
		}
		pts := make([]geokitPoint, len(c.Members))
		for i, m := range c.Members {
			pts[i] = toGeo(m)
		}
		for _, pair := range geokit.ClosePairs(pts, b.cfg.ProximityMeters) {
			warnings = append(warnings, ProximityWarning{
				ClusterID: c.ID,
				A:         c.Members[pair[0]],
				B:         c.Members[pair[1]],
				Meters:    geokit.Distance(pts[pair[0]], pts[pair[1]]),
			})
		}
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].ClusterID < warnings[j].ClusterID })
	return warnings
}
