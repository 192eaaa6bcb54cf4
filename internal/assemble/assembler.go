// Package assemble implements ResultAssembler (spec.md §4.8): turning the
// winning Plan plus its per-leg directions results into the flat
// AssembledWaypoint sequence with correct kind tagging and monotonic
// cumulative distance/duration.
package assemble

import (
	"frameworks/courierplan/internal/directions"
	"frameworks/courierplan/internal/planmodel"
)

// LegLookup resolves the directions Result for a cluster's internal route or
// an inter-cluster hop, keyed the same way evaluator.Evaluator builds jobs.
type LegLookup interface {
	Cluster(clusterID int) (directions.Result, bool)
	Hop(fromIndex int) (directions.Result, bool)
}

// MapLookup is a LegLookup backed by plain maps, the shape evaluator.Evaluate
// can trivially populate for the winning scenario.
type MapLookup struct {
	Clusters map[int]directions.Result
	Hops     map[int]directions.Result
}

func (m MapLookup) Cluster(clusterID int) (directions.Result, bool) {
	r, ok := m.Clusters[clusterID]
	return r, ok
}

func (m MapLookup) Hop(fromIndex int) (directions.Result, bool) {
	r, ok := m.Hops[fromIndex]
	return r, ok
}

// Assemble builds the flat AssembledWaypoint sequence for plan, given the
// directions results keyed by lookup. A missing or unsuccessful hop entry
// falls back to the fixed degenerate values, matching the degraded-plan path
// where no live Result was ever recorded for a leg. A cluster with no
// successful entry, or one without sections, gives its interior points zero
// prior-leg values.
func Assemble(plan planmodel.Plan, lookup LegLookup) []planmodel.AssembledWaypoint {
	total := plan.PointCount()
	if total == 0 {
		return nil
	}

	out := make([]planmodel.AssembledWaypoint, 0, total)
	var cumDist, cumDur float64
	index := 0
	single := total == 1

	for ci, c := range plan.Clusters {
		order := c.Order
		if len(order) == 0 {
			order = c.Members
		}

		sectionDur, sectionDist := clusterSections(lookup, c.ID)

		for pi, p := range order {
			var priorDist, priorDur float64
			switch {
			case index == 0:
				priorDist, priorDur = 0, 0
			case pi == 0:
				priorDist, priorDur = hopLegValues(lookup, ci-1)
			default:
				si := pi - 1
				if si < len(sectionDur) {
					priorDur = sectionDur[si]
					priorDist = sectionDist[si]
				}
			}
			cumDist += priorDist
			cumDur += priorDur

			kind := planmodel.KindWaypoint
			switch {
			case single:
				kind = planmodel.KindSingle
			case index == 0:
				kind = planmodel.KindOrigin
			case index == total-1:
				kind = planmodel.KindDestination
			}

			out = append(out, planmodel.AssembledWaypoint{
				Point:              p,
				Index:              index,
				Kind:               kind,
				PriorLegDistance:   priorDist,
				PriorLegDuration:   priorDur,
				CumulativeDistance: cumDist,
				CumulativeDuration: cumDur,
			})
			index++
		}
	}

	return out
}

// hopLegValues returns the inter-cluster hop measurement between cluster
// fromIndex's exit and cluster fromIndex+1's entry, falling back to the
// fixed degenerate values when no successful Result was recorded.
func hopLegValues(lookup LegLookup, fromIndex int) (meters, seconds float64) {
	if lookup == nil {
		return directions.DegenerateMeters, directions.DegenerateSeconds
	}
	res, ok := lookup.Hop(fromIndex)
	if !ok || !res.Succeeded() {
		return directions.DegenerateMeters, directions.DegenerateSeconds
	}
	return res.DistanceMeters, res.DurationSeconds
}

// clusterSections returns the positional per-interior-point duration and
// distance arrays for clusterID's directions response, or nil if none was
// recorded (size-1 clusters and degenerate entry==exit clusters never call
// the provider, so their interior legs have no sections to map).
func clusterSections(lookup LegLookup, clusterID int) (seconds, meters []float64) {
	if lookup == nil {
		return nil, nil
	}
	res, ok := lookup.Cluster(clusterID)
	if !ok || !res.Succeeded() {
		return nil, nil
	}
	return res.SectionSeconds, res.SectionMeters
}
