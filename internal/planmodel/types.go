// Package planmodel holds the data types shared across the clustering,
// evaluation, and assembly cores (spec.md §3): Point, Cluster, Plan,
// Measurement, AssembledWaypoint, and Summary. These are plain structs —
// no generic "domain model" library in the retrieval pack fits a bespoke,
// invariant-heavy record set better than explicit fields, matching the
// teacher's own pkg/models package (plain structs, no ORM/active-record
// layer).
package planmodel

import "github.com/paulmach/orb"

// Meta carries free-form, opaque carry-through fields (contact metadata,
// original address text, etc.) that the planning core never inspects.
type Meta map[string]string

// Point is an immutable delivery stop: a stable id, WGS84 coordinates, and
// opaque metadata. Created at ingest, immutable through planning.
type Point struct {
	ID      string
	Lon     float64
	Lat     float64
	Address string
	Meta    Meta
}

// LonLat returns the point as an orb.Point for use with geokit.
func (p Point) LonLat() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Kind classifies an AssembledWaypoint's role in the final sequence.
type Kind string

const (
	KindOrigin      Kind = "ORIGIN"
	KindWaypoint    Kind = "WAYPOINT"
	KindDestination Kind = "DESTINATION"
	KindSingle      Kind = "SINGLE"
)

// Cluster is a set of points visited contiguously, with a designated entry
// and exit point and a fixed internal visit order. Mutated only by the
// stage that owns it: ClusterBuilder sets Members, ClusterEndpointPicker
// sets Entry/Exit, InternalOrderer sets Order.
type Cluster struct {
	ID      int
	Members []Point
	Entry   Point
	Exit    Point
	// Order is the full internal visit order [Entry, interior..., Exit],
	// populated by InternalOrderer. Empty until that stage runs.
	Order []Point
}

// Size returns the member count.
func (c Cluster) Size() int { return len(c.Members) }

// HasMember reports whether id is a member of c.
func (c Cluster) HasMember(id string) bool {
	for _, m := range c.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Plan is an ordered sequence of clusters with fixed entries, exits, and
// internal orders — spec.md §3's Plan invariants (conservation, K bound)
// are verified by the stages that build one, not re-checked here.
type Plan struct {
	Clusters []Cluster
}

// PointCount returns the total number of points across all clusters.
func (p Plan) PointCount() int {
	n := 0
	for _, c := range p.Clusters {
		n += len(c.Members)
	}
	return n
}

// LegKind classifies a directions call result as measured against the
// provider or estimated via the straight-line degraded fallback (spec.md
// DESIGN NOTES: "measured" and "estimated" must never be mixed silently).
type LegKind int

const (
	LegMeasured LegKind = iota
	LegEstimated
	LegDegenerate
)

// Leg is one priced leg of a Plan: either a cluster's internal route or an
// inter-cluster hop.
type Leg struct {
	Kind            LegKind
	Seconds         float64
	Meters          float64
	SectionSeconds  []float64 // positional per-interior-point durations, when available
	SectionMeters   []float64
}

// Measurement is the summed outcome of every Leg in a Plan (spec.md §3). A
// Measurement is valid only if every constituent leg succeeded or was
// resolved by the degenerate-distance rule; Degraded marks a Measurement
// that had to fall back to straight-line estimates for at least one hop.
type Measurement struct {
	TotalSeconds float64
	TotalMeters  float64
	Degraded     bool
	DegradedHops int
}

// AssembledWaypoint is a Point enriched with its position in the final
// sequence and cumulative travel figures (spec.md §4.8).
type AssembledWaypoint struct {
	Point                Point
	Index                int
	Kind                 Kind
	PriorLegDistance     float64
	PriorLegDuration     float64
	CumulativeDistance   float64
	CumulativeDuration   float64
}

// RejectedPoint records a raw input record that failed validation, with the
// reason, for the pre-flight validation report (SPEC_FULL.md supplement 4).
type RejectedPoint struct {
	ID     string
	Reason string
}

// ValidationReport is BatchCoordinator's pre-planning filtering result.
type ValidationReport struct {
	Accepted []Point
	Rejected []RejectedPoint
}

// ClusterSummary holds the per-cluster rollup for the output Summary table.
type ClusterSummary struct {
	ClusterID     int
	WaypointCount int
	Seconds       float64
	Meters        float64
	AverageSpeedKMH float64
	Success       bool
	FailureReason string
}

// Summary is the aggregate result surfaced to the output writer collaborator
// (spec.md §6.3) and to callers of BatchCoordinator.
type Summary struct {
	BatchID              string
	Clusters             []ClusterSummary
	TotalSeconds         float64
	TotalMeters          float64
	AverageSpeedKMH      float64
	SuccessCount         int
	FailureCount         int
	FailureMessages      []string
	PlausibilityWarnings int
	ProximityWarnings    int
	Degraded             bool
	DegradedHops         int
	TotalRequests        int
	TotalRetries         int
}
