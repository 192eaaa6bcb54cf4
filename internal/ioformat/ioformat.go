// Package ioformat implements the external-collaborator contracts of
// §6.1 (raw/pre-resolved order records in) and §6.3 (assembled waypoint
// sequence plus summary table out). JSON via the standard library, not a
// spreadsheet format: no spreadsheet library exists anywhere in the
// retrieval pack, so JSON is the closest in-pack substitute for the
// original's Excel-based tabular I/O (see DESIGN.md).
package ioformat

import (
	"encoding/json"
	"fmt"
	"io"

	"frameworks/courierplan/internal/planmodel"
)

// InputRecord is one raw or pre-resolved order record (spec.md §6.1). Either
// Lon/Lat are already populated, or Address is present and a geocoding
// collaborator must resolve it before planning; this package only decodes
// the wire shape, it never geocodes.
type InputRecord struct {
	ID      string            `json:"id"`
	Lon     *float64          `json:"lon,omitempty"`
	Lat     *float64          `json:"lat,omitempty"`
	Address string            `json:"address,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// ReadInput decodes a JSON array of InputRecord from r.
func ReadInput(r io.Reader) ([]InputRecord, error) {
	var records []InputRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("ioformat: decode input: %w", err)
	}
	return records, nil
}

// ToPoints converts pre-resolved InputRecords (Lon/Lat both set) into
// planmodel.Points. Records missing coordinates are returned separately as
// unresolved so a geocoding collaborator (or the caller) can fill them in;
// this package does not reject them itself (spec.md §6.1: "the core accepts
// either raw or pre-resolved records").
func ToPoints(records []InputRecord) (resolved []planmodel.Point, unresolved []InputRecord) {
	for _, r := range records {
		if r.Lon == nil || r.Lat == nil {
			unresolved = append(unresolved, r)
			continue
		}
		resolved = append(resolved, planmodel.Point{
			ID:      r.ID,
			Lon:     *r.Lon,
			Lat:     *r.Lat,
			Address: r.Address,
			Meta:    planmodel.Meta(r.Meta),
		})
	}
	return
}

// OutputWaypoint is the wire shape of one AssembledWaypoint (spec.md §6.3).
type OutputWaypoint struct {
	Index              int     `json:"index"`
	ID                 string  `json:"id"`
	Kind               string  `json:"kind"`
	Lon                float64 `json:"lon"`
	Lat                float64 `json:"lat"`
	Address            string  `json:"address,omitempty"`
	PriorLegDistance   float64 `json:"prior_leg_distance_m"`
	PriorLegDuration   float64 `json:"prior_leg_duration_s"`
	CumulativeDistance float64 `json:"cumulative_distance_m"`
	CumulativeDuration float64 `json:"cumulative_duration_s"`
}

// OutputClusterSummary is the wire shape of one per-cluster summary row.
type OutputClusterSummary struct {
	ClusterID       int     `json:"cluster_id"`
	WaypointCount   int     `json:"waypoint_count"`
	Seconds         float64 `json:"seconds"`
	Meters          float64 `json:"meters"`
	AverageSpeedKMH float64 `json:"average_speed_kmh"`
	Success         bool    `json:"success"`
	FailureReason   string  `json:"failure_reason,omitempty"`
}

// OutputSummary is the wire shape of the per-batch summary (spec.md §6.3:
// "batch id, success flag, waypoint count, totals, average speed km/h").
type OutputSummary struct {
	BatchID               string                 `json:"batch_id"`
	Clusters              []OutputClusterSummary `json:"clusters"`
	TotalSeconds          float64                `json:"total_seconds"`
	TotalMeters           float64                `json:"total_meters"`
	AverageSpeedKMH       float64                `json:"average_speed_kmh"`
	SuccessCount          int                     `json:"success_count"`
	FailureCount          int                     `json:"failure_count"`
	FailureMessages       []string                `json:"failure_messages,omitempty"`
	PlausibilityWarnings  int                     `json:"plausibility_warnings"`
	ProximityWarnings     int                     `json:"proximity_warnings"`
	Degraded              bool                    `json:"degraded"`
	DegradedHops          int                     `json:"degraded_hops"`
	TotalRequests         int                     `json:"total_requests"`
	TotalRetries          int                     `json:"total_retries"`
}

// Output is the full §6.3 payload: the assembled sequence alongside its
// summary.
type Output struct {
	Waypoints []OutputWaypoint `json:"waypoints"`
	Summary   OutputSummary    `json:"summary"`
}

// WriteOutput encodes waypoints and summary to w as a single JSON document.
func WriteOutput(w io.Writer, waypoints []planmodel.AssembledWaypoint, summary planmodel.Summary) error {
	out := Output{
		Waypoints: make([]OutputWaypoint, len(waypoints)),
		Summary:   toOutputSummary(summary),
	}
	for i, wp := range waypoints {
		out.Waypoints[i] = OutputWaypoint{
			Index:              wp.Index,
			ID:                 wp.Point.ID,
			Kind:               string(wp.Kind),
			Lon:                wp.Point.Lon,
			Lat:                wp.Point.Lat,
			Address:            wp.Point.Address,
			PriorLegDistance:   wp.PriorLegDistance,
			PriorLegDuration:   wp.PriorLegDuration,
			CumulativeDistance: wp.CumulativeDistance,
			CumulativeDuration: wp.CumulativeDuration,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("ioformat: encode output: %w", err)
	}
	return nil
}

func toOutputSummary(s planmodel.Summary) OutputSummary {
	clusters := make([]OutputClusterSummary, len(s.Clusters))
	for i, c := range s.Clusters {
		clusters[i] = OutputClusterSummary{
			ClusterID:       c.ClusterID,
			WaypointCount:   c.WaypointCount,
			Seconds:         c.Seconds,
			Meters:          c.Meters,
			AverageSpeedKMH: c.AverageSpeedKMH,
			Success:         c.Success,
			FailureReason:   c.FailureReason,
		}
	}
	return OutputSummary{
		BatchID:              s.BatchID,
		Clusters:             clusters,
		TotalSeconds:         s.TotalSeconds,
		TotalMeters:          s.TotalMeters,
		AverageSpeedKMH:      s.AverageSpeedKMH,
		SuccessCount:         s.SuccessCount,
		FailureCount:         s.FailureCount,
		FailureMessages:      s.FailureMessages,
		PlausibilityWarnings: s.PlausibilityWarnings,
		ProximityWarnings:    s.ProximityWarnings,
		Degraded:             s.Degraded,
		DegradedHops:         s.DegradedHops,
		TotalRequests:        s.TotalRequests,
		TotalRetries:         s.TotalRetries,
	}
}
