package cluster

import (
	"frameworks/courierplan/internal/geokit"
	"frameworks/courierplan/internal/logging"
	"frameworks/courierplan/internal/planmodel"
)

// Order implements InternalOrderer (spec.md §4.5): given a cluster with a
// fixed entry and exit, returns the visiting order [entry, interior..., exit]
// via nearest-neighbor greedy over the interior points. logger may be nil;
// when non-nil it records the safety-net fallback if one ever fires.
func Order(c planmodel.Cluster, logger logging.Logger) []planmodel.Point {
	members := c.Members
	if len(members) <= 2 {
		return append([]planmodel.Point(nil), members...)
	}

	entry, exit := c.Entry, c.Exit
	interior := make([]planmodel.Point, 0, len(members))
	for _, m := range members {
		if m.ID == entry.ID || m.ID == exit.ID {
			continue
		}
		interior = append(interior, m)
	}

	ordered := nearestNeighborInterior(entry, interior)

	if entry.ID == exit.ID {
		result := append([]planmodel.Point{entry}, ordered...)
		if len(result) != len(members) {
			return safetyNet(members, logger, "entry==exit result length mismatch")
		}
		return result
	}

	result := append([]planmodel.Point{entry}, ordered...)
	result = append(result, exit)
	if len(result) != len(members) {
		return safetyNet(members, logger, "interior tour result length mismatch")
	}
	return result
}

func nearestNeighborInterior(from planmodel.Point, interior []planmodel.Point) []planmodel.Point {
	remaining := append([]planmodel.Point(nil), interior...)
	ordered := make([]planmodel.Point, 0, len(interior))
	current := from

	for len(remaining) > 0 {
		best := 0
		bestDist := geokit.Distance(toGeo(current), toGeo(remaining[0]))
		for i := 1; i < len(remaining); i++ {
			d := geokit.Distance(toGeo(current), toGeo(remaining[i]))
			if d < bestDist {
				bestDist = d
				best = i
			}
		}
		ordered = append(ordered, remaining[best])
		current = remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return ordered
}

// safetyNet returns the original member order and logs, per spec.md §4.5's
// "Result length must equal |members|; otherwise the original order is
// returned and an error is logged."
func safetyNet(members []planmodel.Point, logger logging.Logger, reason string) []planmodel.Point {
	if logger != nil {
		logger.WithFields(logging.Fields{"reason": reason}).Error("internal orderer safety net triggered")
	}
	return append([]planmodel.Point(nil), members...)
}
