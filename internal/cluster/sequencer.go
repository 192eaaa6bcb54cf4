package cluster

import (
	"frameworks/courierplan/internal/geokit"
	"frameworks/courierplan/internal/planmodel"
)

// Sequence implements ClusterSequencer (spec.md §4.3): returns clusters
// reordered so that the sum of straight-line centroid-to-centroid distances
// along the sequence is minimized, via nearest-neighbor greedy tried from
// every possible start. Ties broken by the lower starting index. For K<=2
// the identity order is already optimal.
func Sequence(clusters []planmodel.Cluster) []planmodel.Cluster {
	k := len(clusters)
	if k <= 2 {
		return clusters
	}

	centroids := make([]geokitPoint, k)
	for i, c := range clusters {
		pts := make([]geokitPoint, len(c.Members))
		for j, m := range c.Members {
			pts[j] = toGeo(m)
		}
		centroids[i] = geokit.Centroid(pts)
	}

	var bestOrder []int
	bestTotal := -1.0

	for start := 0; start < k; start++ {
		order := nearestNeighborTour(centroids, start)
		total := tourLength(centroids, order)
		if bestTotal < 0 || total < bestTotal {
			bestTotal = total
			bestOrder = order
		}
	}

	out := make([]planmodel.Cluster, k)
	for i, idx := range bestOrder {
		out[i] = clusters[idx]
	}
	return out
}

func nearestNeighborTour(centroids []geokitPoint, start int) []int {
	k := len(centroids)
	visited := make([]bool, k)
	order := make([]int, 0, k)

	current := start
	visited[current] = true
	order = append(order, current)

	for len(order) < k {
		best := -1
		bestDist := -1.0
		for i := 0; i < k; i++ {
			if visited[i] {
				continue
			}
			d := geokit.Distance(centroids[current], centroids[i])
			if bestDist < 0 || d < bestDist {
				bestDist = d
				best = i
			}
		}
		visited[best] = true
		order = append(order, best)
		current = best
	}
	return order
}

func tourLength(centroids []geokitPoint, order []int) float64 {
	total := 0.0
	for i := 0; i < len(order)-1; i++ {
		total += geokit.Distance(centroids[order[i]], centroids[order[i+1]])
	}
	return total
}
