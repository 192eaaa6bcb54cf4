package cluster

import (
	"frameworks/courierplan/internal/geokit"
	"frameworks/courierplan/internal/planmodel"
)

// AssignEndpoints implements ClusterEndpointPicker (spec.md §4.4): given a
// fixed cluster sequence, assigns each cluster an entry and exit member.
// Mutates and returns clusters in place.
func AssignEndpoints(clusters []planmodel.Cluster) []planmodel.Cluster {
	k := len(clusters)
	if k == 0 {
		return clusters
	}
	if k == 1 {
		clusters[0].Entry = clusters[0].Members[0]
		clusters[0].Exit = clusters[0].Members[len(clusters[0].Members)-1]
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

	for i := range clusters {
		switch {
		case i == 0:
			clusters[i].Exit = nearestMember(clusters[i].Members, centroids[1])
		case i == k-1:
			clusters[i].Entry = nearestMember(clusters[i].Members, centroids[k-2])
		default:
			clusters[i].Entry = nearestMember(clusters[i].Members, centroids[i-1])
			clusters[i].Exit = nearestMember(clusters[i].Members, centroids[i+1])
		}
	}

	bestStart, bestEnd := 0, 0
	bestDist := -1.0
	for si, start := range clusters[0].Members {
		for ei, end := range clusters[k-1].Members {
			d := geokit.Distance(toGeo(start), toGeo(end))
			if bestDist < 0 || d < bestDist {
				bestDist = d
				bestStart = si
				bestEnd = ei
			}
		}
	}
	clusters[0].Entry = clusters[0].Members[bestStart]
	clusters[k-1].Exit = clusters[k-1].Members[bestEnd]

	return clusters
}

// nearestMember returns the member of members nearest to target, ties broken
// by the lower member index (spec.md §4.4's tie-breaking rule).
func nearestMember(members []planmodel.Point, target geokitPoint) planmodel.Point {
	best := 0
	bestDist := geokit.Distance(toGeo(members[0]), target)
	for i := 1; i < len(members); i++ {
		d := geokit.Distance(toGeo(members[i]), target)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return members[best]
}
