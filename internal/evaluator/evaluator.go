// Package evaluator implements ScenarioEvaluator and GlobalOptimizer
// (spec.md §4.6-4.7): the coupling between the clustering/sequencing core
// and DirectionsClient. The bounded worker pool dispatching concurrent
// directions calls is grounded on the semaphore-channel + sync.WaitGroup
// idiom from api_tenants/internal/handlers/poller.go's health-check fan-out.
package evaluator

import (
	"context"
	"fmt"
	"sync"

	"frameworks/courierplan/internal/cluster"
	"frameworks/courierplan/internal/directions"
	"frameworks/courierplan/internal/geokit"
	"frameworks/courierplan/internal/logging"
	"frameworks/courierplan/internal/planmodel"
)

// Config tunes ScenarioEvaluator/GlobalOptimizer.
type Config struct {
	// WorkerPoolSize bounds concurrent DirectionsClient calls per scenario
	// (spec.md §5 recommends 2-4).
	WorkerPoolSize int
	BuilderConfig  cluster.BuilderConfig
	Logger         logging.Logger
	// TieToleranceSeconds is the selection-rule tolerance below which the
	// smaller global closure distance breaks the tie (spec.md §4.7: 6s).
	TieToleranceSeconds float64
	// FallbackSpeedKMH is the degraded straight-line estimator's assumed
	// travel speed (spec.md §4.6: 30 km/h).
	FallbackSpeedKMH float64
	// RoadFactor is applied to the degraded straight-line estimate, matching
	// ClusterBuilder's road-distance factor.
	RoadFactor float64
	// Priority selects the provider's route optimization objective for every
	// DirectionsClient call (spec.md §6.4's --priority flag).
	Priority directions.Priority
}

func (c Config) withDefaults() Config {
	if c.WorkerPoolSize == 0 {
		c.WorkerPoolSize = 4
	}
	if c.TieToleranceSeconds == 0 {
		c.TieToleranceSeconds = 6
	}
	if c.FallbackSpeedKMH == 0 {
		c.FallbackSpeedKMH = 30
	}
	if c.RoadFactor == 0 {
		c.RoadFactor = 1.3
	}
	if c.Priority == "" {
		c.Priority = directions.PriorityTime
	}
	return c
}

// ScenarioOutcome is the result of evaluating one candidate K.
type ScenarioOutcome struct {
	K           int
	Plan        planmodel.Plan
	Measurement planmodel.Measurement
	Warnings    []cluster.ProximityWarning
	Requests    int
	Retries     int
	// PlausibilityWarnings counts directions.Result values in this scenario
	// whose Plausible is false, distinct from Warnings (ClusterBuilder's
	// proximity pairs).
	PlausibilityWarnings int
	Failed                bool
	FailureMsg            string

	// legResults holds every directions call outcome keyed by clusterKey/
	// hopKey, letting Cluster/Hop satisfy assemble.LegLookup structurally
	// without this package importing internal/assemble.
	legResults map[string]directions.Result
}

// Cluster implements assemble.LegLookup.
func (o ScenarioOutcome) Cluster(clusterID int) (directions.Result, bool) {
	r, ok := o.legResults[clusterKey(clusterID)]
	return r, ok
}

// Hop implements assemble.LegLookup.
func (o ScenarioOutcome) Hop(fromIndex int) (directions.Result, bool) {
	r, ok := o.legResults[hopKey(fromIndex)]
	return r, ok
}

// Evaluator implements ScenarioEvaluator.
type Evaluator struct {
	cfg     Config
	client  *directions.Client
	builder *cluster.Builder
}

// NewEvaluator constructs an Evaluator backed by client for directions calls.
func NewEvaluator(cfg Config, client *directions.Client) *Evaluator {
	cfg = cfg.withDefaults()
	return &Evaluator{
		cfg:     cfg,
		client:  client,
		builder: cluster.NewBuilder(cfg.BuilderConfig),
	}
}

type legJob struct {
	key    string
	origin planmodel.Point
	dest   planmodel.Point
	interm []directions.Waypoint
}


// Evaluate implements ScenarioEvaluator's contract (spec.md §4.6): given N
// points and a candidate K, produce a full plan and its measured totals, or
// report failure.
func (e *Evaluator) Evaluate(ctx context.Context, points []planmodel.Point, k int) ScenarioOutcome {
	build := e.builder.Build(points, k)
	clusters := cluster.Sequence(build.Clusters)
	clusters = cluster.AssignEndpoints(clusters)
	for i := range clusters {
		clusters[i].Order = cluster.Order(clusters[i], e.cfg.Logger)
	}

	jobs := e.planJobs(clusters)

	before := e.client.Stats()
	results := e.runJobs(ctx, jobs)
	after := e.client.Stats()

	measurement, failed, failMsg := e.accumulate(clusters, results)

	return ScenarioOutcome{
		K:                     k,
		Plan:                  planmodel.Plan{Clusters: clusters},
		Measurement:           measurement,
		Warnings:              build.Warnings,
		legResults:            results,
		Requests:              int(after.TotalRequests - before.TotalRequests),
		Retries:               int(after.TotalRetries - before.TotalRetries),
		PlausibilityWarnings:  countImplausible(results),
		Failed:                failed,
		FailureMsg:            failMsg,
	}
}

// countImplausible returns how many leg results were accepted but flagged
// implausible (directions.Result.Plausible == false), for Summary's
// plausibility-warning count (SPEC_FULL.md supplement 2).
func countImplausible(results map[string]directions.Result) int {
	n := 0
	for _, r := range results {
		if r.Succeeded() && !r.Plausible {
			n++
		}
	}
	return n
}

// planJobs builds the set of directions calls needed for this scenario:
// one per cluster with size > 1, plus one per inter-cluster hop. Hops whose
// endpoints are within the degenerate threshold are queued too;
// DirectionsClient.Get resolves them without a network call (spec.md §4.6
// degenerate rules).
func (e *Evaluator) planJobs(clusters []planmodel.Cluster) []legJob {
	var jobs []legJob
	for _, c := range clusters {
		if c.Size() <= 1 {
			continue
		}
		if c.Entry.ID == c.Exit.ID && len(c.Order) <= 1 {
			continue
		}
		interior := c.Order
		if len(interior) > 2 {
			interior = interior[1 : len(interior)-1]
		} else {
			interior = nil
		}
		jobs = append(jobs, legJob{
			key:    clusterKey(c.ID),
			origin: c.Entry,
			dest:   c.Exit,
			interm: toWaypoints(interior),
		})
	}
	for i := 0; i < len(clusters)-1; i++ {
		a, b := clusters[i], clusters[i+1]
		jobs = append(jobs, legJob{key: hopKey(i), origin: a.Exit, dest: b.Entry})
	}
	return jobs
}

func clusterKey(id int) string { return fmt.Sprintf("cluster:%d", id) }
func hopKey(i int) string      { return fmt.Sprintf("hop:%d", i) }

func toWaypoints(points []planmodel.Point) []directions.Waypoint {
	out := make([]directions.Waypoint, len(points))
	for i, p := range points {
		out[i] = directions.Waypoint{Lon: p.Lon, Lat: p.Lat, Name: p.ID}
	}
	return out
}

// runJobs dispatches jobs through a bounded worker pool, keyed by a
// completion map so the caller can reassemble results regardless of
// completion order (spec.md §5's ordering guarantee). Every call uses the
// evaluator's configured Priority (spec.md §6.4's --priority flag).
func (e *Evaluator) runJobs(ctx context.Context, jobs []legJob) map[string]directions.Result {
	results := make(map[string]directions.Result, len(jobs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.cfg.WorkerPoolSize)

	for _, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(j legJob) {
			defer wg.Done()
			defer func() { <-sem }()
			res := e.client.Get(ctx, geokit.NewPoint(j.origin.Lon, j.origin.Lat), geokit.NewPoint(j.dest.Lon, j.dest.Lat), j.interm, e.cfg.Priority)
			mu.Lock()
			results[j.key] = res
			mu.Unlock()
		}(job)
	}
	wg.Wait()
	return results
}

// accumulate sums leg results into a Measurement, applying the degenerate
// short-circuit rules and the straight-line fallback for failed hops.
func (e *Evaluator) accumulate(clusters []planmodel.Cluster, results map[string]directions.Result) (planmodel.Measurement, bool, string) {
	var m planmodel.Measurement

	for _, c := range clusters {
		if c.Size() <= 1 || (c.Entry.ID == c.Exit.ID && len(c.Order) <= 1) {
			m.TotalSeconds += directions.DegenerateSeconds
			m.TotalMeters += directions.DegenerateMeters
			continue
		}
		res, ok := results[clusterKey(c.ID)]
		if !ok || !res.Succeeded() {
			return m, true, fmt.Sprintf("cluster %d directions call failed", c.ID)
		}
		m.TotalSeconds += res.DurationSeconds
		m.TotalMeters += res.DistanceMeters
	}

	for i := 0; i < len(clusters)-1; i++ {
		a, b := clusters[i], clusters[i+1]
		res, ok := results[hopKey(i)]
		if !ok || !res.Succeeded() {
			estSeconds, estMeters := e.straightLineEstimate(a.Exit, b.Entry)
			m.TotalSeconds += estSeconds
			m.TotalMeters += estMeters
			m.Degraded = true
			m.DegradedHops++
			continue
		}
		m.TotalSeconds += res.DurationSeconds
		m.TotalMeters += res.DistanceMeters
	}

	return m, false, ""
}

func (e *Evaluator) straightLineEstimate(a, b planmodel.Point) (seconds, meters float64) {
	meters = geokit.RoadDistance(a.LonLat(), b.LonLat(), e.cfg.RoadFactor)
	speedMPS := e.cfg.FallbackSpeedKMH * 1000 / 3600
	seconds = meters / speedMPS
	return
}
