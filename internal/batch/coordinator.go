// Package batch implements BatchCoordinator (spec.md §4 overview, §6.4): the
// top-level entry point that validates input points, delegates to
// GlobalOptimizer, assembles the winning plan, and produces the aggregate
// Summary and ValidationReport. Constructor shape grounded on the teacher's
// Config/NewClient pattern (pkg/clients/commodore/client.go).
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"frameworks/courierplan/internal/assemble"
	"frameworks/courierplan/internal/directions"
	"frameworks/courierplan/internal/evaluator"
	"frameworks/courierplan/internal/geokit"
	"frameworks/courierplan/internal/logging"
	"frameworks/courierplan/internal/planmodel"
	"frameworks/courierplan/internal/ratelimit"
)

// Config configures a Coordinator.
type Config struct {
	DirectionsBaseURL string
	APIKey            string
	Logger            logging.Logger
	Bounds            geokit.Bounds
	EvaluatorConfig   evaluator.Config
	RateLimit         ratelimit.Config
}

func (c Config) withDefaults() Config {
	if c.Bounds == (geokit.Bounds{}) {
		c.Bounds = geokit.DefaultBounds()
	}
	return c
}

// Coordinator is the top-level planning entry point.
type Coordinator struct {
	cfg Config
	opt *evaluator.Optimizer
}

// NewCoordinator builds a Coordinator. cfg.APIKey must be non-empty; callers
// resolve it from the environment before construction (spec.md §6.4: "exit
// non-zero ... if credentials are missing").
func NewCoordinator(cfg Config) *Coordinator {
	cfg = cfg.withDefaults()

	limiter := ratelimit.New(cfg.RateLimit)
	client := directions.NewClient(directions.Config{
		BaseURL:   cfg.DirectionsBaseURL,
		APIKey:    cfg.APIKey,
		Logger:    cfg.Logger,
		RateLimit: limiter,
	})

	evalCfg := cfg.EvaluatorConfig
	evalCfg.Logger = cfg.Logger
	ev := evaluator.NewEvaluator(evalCfg, client)
	opt := evaluator.NewOptimizer(ev, evalCfg)

	return &Coordinator{cfg: cfg, opt: opt}
}

// Plan runs the full pipeline over raw points: validate, optimize, assemble,
// and summarize. On cancellation (spec.md §5), in-flight DirectionsClient
// calls already dispatched are given a grace period to finish or time out
// rather than being aborted instantly; if no scenario managed to complete by
// then, Plan reports a cancellation failure instead of a partial plan.
func (co *Coordinator) Plan(ctx context.Context, raw []planmodel.Point) ([]planmodel.AssembledWaypoint, planmodel.Summary, planmodel.ValidationReport) {
	report := co.validate(raw)

	batchID := uuid.NewString()

	if len(report.Accepted) == 0 {
		return nil, planmodel.Summary{BatchID: batchID, FailureMessages: []string{"no valid points after validation"}}, report
	}

	runCtx, stop := withGracePeriod(ctx, cancellationGrace)
	defer stop()

	outcome := co.opt.Optimize(runCtx, report.Accepted)

	if ctx.Err() != nil && outcome.Failed {
		return nil, planmodel.Summary{
			BatchID:         batchID,
			FailureMessages: []string{"cancelled: no scenario completed within the grace period"},
		}, report
	}

	waypoints := assemble.Assemble(outcome.Plan, outcome)

	summary := co.summarize(batchID, outcome)
	return waypoints, summary, report
}

// validate implements the pre-planning filter (spec.md §6.1): accepts either
// raw or pre-resolved records, rejects coordinates outside regional bounds
// with a warning instead of failing the run.
func (co *Coordinator) validate(raw []planmodel.Point) planmodel.ValidationReport {
	var report planmodel.ValidationReport
	for _, p := range raw {
		if !geokit.IsValidWGS84(p.Lon, p.Lat) {
			report.Rejected = append(report.Rejected, planmodel.RejectedPoint{ID: p.ID, Reason: "not a valid WGS84 coordinate"})
			if co.cfg.Logger != nil {
				co.cfg.Logger.WithFields(logging.Fields{"point_id": p.ID}).Warn("rejected point: invalid coordinate")
			}
			continue
		}
		if !co.cfg.Bounds.InBounds(p.Lon, p.Lat) {
			report.Rejected = append(report.Rejected, planmodel.RejectedPoint{ID: p.ID, Reason: "outside configured regional bounds"})
			if co.cfg.Logger != nil {
				co.cfg.Logger.WithFields(logging.Fields{"point_id": p.ID, "lon": p.Lon, "lat": p.Lat}).Warn("rejected point: outside regional bounds")
			}
			continue
		}
		report.Accepted = append(report.Accepted, p)
	}
	return report
}

func (co *Coordinator) summarize(batchID string, outcome evaluator.ScenarioOutcome) planmodel.Summary {
	s := planmodel.Summary{
		BatchID:       batchID,
		TotalSeconds:  outcome.Measurement.TotalSeconds,
		TotalMeters:   outcome.Measurement.TotalMeters,
		Degraded:      outcome.Measurement.Degraded,
		DegradedHops:  outcome.Measurement.DegradedHops,
		TotalRequests: outcome.Requests,
		TotalRetries:  outcome.Retries,
		// PlausibilityWarnings counts DirectionsClient's speed/duration/
		// distance sanity-check failures; ProximityWarnings counts
		// ClusterBuilder's separate 10m proximity pairs. The two are
		// never the same count.
		PlausibilityWarnings: outcome.PlausibilityWarnings,
		ProximityWarnings:    len(outcome.Warnings),
	}
	if s.TotalSeconds > 0 {
		s.AverageSpeedKMH = (s.TotalMeters / 1000) / (s.TotalSeconds / 3600)
	}

	for _, c := range outcome.Plan.Clusters {
		cs := planmodel.ClusterSummary{
			ClusterID:     c.ID,
			WaypointCount: c.Size(),
			Success:       true,
		}
		if res, ok := outcome.Cluster(c.ID); ok {
			cs.Seconds = res.DurationSeconds
			cs.Meters = res.DistanceMeters
			cs.Success = res.Succeeded()
			if !res.Succeeded() && res.Err != nil {
				cs.FailureReason = res.Err.Error()
			}
		} else if c.Size() <= 1 {
			cs.Seconds, cs.Meters = directions.DegenerateSeconds, directions.DegenerateMeters
		}
		if cs.Seconds > 0 {
			cs.AverageSpeedKMH = (cs.Meters / 1000) / (cs.Seconds / 3600)
		}
		if cs.Success {
			s.SuccessCount++
		} else {
			s.FailureCount++
			s.FailureMessages = append(s.FailureMessages, fmt.Sprintf("cluster %d: %s", c.ID, cs.FailureReason))
		}
		s.Clusters = append(s.Clusters, cs)
	}

	if outcome.Failed {
		s.FailureMessages = append(s.FailureMessages, outcome.FailureMsg)
	}

	return s
}
