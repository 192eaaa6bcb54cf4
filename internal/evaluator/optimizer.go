package evaluator

import (
	"context"
	"math"

	"frameworks/courierplan/internal/cluster"
	"frameworks/courierplan/internal/geokit"
	"frameworks/courierplan/internal/planmodel"
)

// Optimizer implements GlobalOptimizer (spec.md §4.7): sweeps candidate K
// values sequentially (bounding total provider request volume and keeping
// selection deterministic, per §5) and keeps the best-so-far scenario.
type Optimizer struct {
	eval *Evaluator
	cfg  Config
}

// NewOptimizer constructs an Optimizer around eval.
func NewOptimizer(eval *Evaluator, cfg Config) *Optimizer {
	cfg = cfg.withDefaults()
	return &Optimizer{eval: eval, cfg: cfg}
}

// Optimize implements GlobalOptimizer's contract: given N points, return the
// winning scenario outcome.
func (o *Optimizer) Optimize(ctx context.Context, points []planmodel.Point) ScenarioOutcome {
	n := len(points)
	if n == 0 {
		return ScenarioOutcome{}
	}
	if n <= 3 {
		build := o.eval.builder.Build(points, 1)
		clusters := cluster.AssignEndpoints(build.Clusters)
		for i := range clusters {
			clusters[i].Order = cluster.Order(clusters[i], o.cfg.Logger)
		}
		return ScenarioOutcome{
			K:        1,
			Plan:     planmodel.Plan{Clusters: clusters},
			Warnings: build.Warnings,
		}
	}

	maxK := int(math.Ceil(float64(n) / 2))
	if maxK < 2 {
		maxK = 2
	}

	var best *ScenarioOutcome
	for k := 2; k <= maxK; k++ {
		outcome := o.eval.Evaluate(ctx, points, k)
		if outcome.Failed {
			continue
		}
		if best == nil || o.better(outcome, *best) {
			oc := outcome
			best = &oc
		}
	}

	if best == nil {
		if ctx.Err() != nil {
			return ScenarioOutcome{Failed: true, FailureMsg: "cancelled before any scenario completed"}
		}
		return o.degradedFallback(points, n)
	}
	return *best
}

// better implements spec.md §4.7's selection rule: a scenario with any
// degraded hop (straight-line fallback) is inferior to one whose hops all
// succeeded, regardless of estimated seconds (§4.6, §9: "An estimated
// scenario cannot beat a measured one on time"). Among two candidates with
// the same degraded/measured status, lower measured total seconds wins;
// within TieToleranceSeconds, the smaller global start-to-end straight-line
// distance wins; otherwise the earlier (already-evaluated, so: lower) K
// wins, which holds automatically since candidates are tried in increasing
// K order and only a strictly better outcome ever replaces the incumbent.
func (o *Optimizer) better(candidate, incumbent ScenarioOutcome) bool {
	if candidate.Measurement.Degraded != incumbent.Measurement.Degraded {
		return incumbent.Measurement.Degraded
	}

	delta := incumbent.Measurement.TotalSeconds - candidate.Measurement.TotalSeconds
	if delta > o.cfg.TieToleranceSeconds {
		return true
	}
	if delta < -o.cfg.TieToleranceSeconds {
		return false
	}
	return globalClosureDistance(candidate) < globalClosureDistance(incumbent)
}

func globalClosureDistance(o ScenarioOutcome) float64 {
	cs := o.Plan.Clusters
	if len(cs) == 0 {
		return 0
	}
	start := cs[0].Entry
	end := cs[len(cs)-1].Exit
	return geokit.Distance(start.LonLat(), end.LonLat())
}

// degradedFallback implements spec.md §4.7's last resort: the simplest
// viable plan, K=ceil(N/30) clusters, measured with the straight-line
// estimator instead of live provider calls.
func (o *Optimizer) degradedFallback(points []planmodel.Point, n int) ScenarioOutcome {
	k := int(math.Ceil(float64(n) / 30))
	if k < 1 {
		k = 1
	}
	build := o.eval.builder.Build(points, k)
	clusters := cluster.Sequence(build.Clusters)
	clusters = cluster.AssignEndpoints(clusters)
	for i := range clusters {
		clusters[i].Order = cluster.Order(clusters[i], o.cfg.Logger)
	}

	var m planmodel.Measurement
	for _, c := range clusters {
		if c.Size() <= 1 {
			m.TotalSeconds += 30
			m.TotalMeters += 10
			continue
		}
		seconds, meters := straightLineClusterEstimate(c, o.cfg.RoadFactor, o.cfg.FallbackSpeedKMH)
		m.TotalSeconds += seconds
		m.TotalMeters += meters
	}
	for i := 0; i < len(clusters)-1; i++ {
		seconds, meters := o.eval.straightLineEstimate(clusters[i].Exit, clusters[i+1].Entry)
		m.TotalSeconds += seconds
		m.TotalMeters += meters
	}
	m.Degraded = true
	m.DegradedHops = len(clusters) - 1

	return ScenarioOutcome{
		K:           k,
		Plan:        planmodel.Plan{Clusters: clusters},
		Measurement: m,
		Warnings:    build.Warnings,
		Failed:      false,
	}
}

func straightLineClusterEstimate(c planmodel.Cluster, roadFactor, speedKMH float64) (seconds, meters float64) {
	order := c.Order
	if len(order) == 0 {
		order = c.Members
	}
	speedMPS := speedKMH * 1000 / 3600
	for i := 0; i < len(order)-1; i++ {
		d := geokit.RoadDistance(order[i].LonLat(), order[i+1].LonLat(), roadFactor)
		meters += d
		seconds += d / speedMPS
	}
	return
}
