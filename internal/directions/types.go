// Package directions implements DirectionsClient (spec.md §4.1): the
// outbound waypoint-directions provider integration, with result-code
// interpretation, HTTP classification, asymmetric retry/backoff, a shared
// rate limiter, and a circuit breaker. Grounded on the teacher's
// pkg/clients/retry.go (DoWithRetry / doRetryAttempts backoff shape),
// pkg/clients/failsafe.go (failsafe-go circuit breaker wrapping), and
// pkg/clients/commodore/client.go (Config/NewClient constructor shape).
package directions

// Priority selects the provider's route optimization objective.
type Priority string

const (
	PriorityTime      Priority = "TIME"
	PriorityDistance  Priority = "DISTANCE"
	PriorityRecommend Priority = "RECOMMEND"
)

// waypoint is the wire shape of a single coordinate in a request (§6.2).
type waypoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Name string  `json:"name"`
}

// requestBody is the exact outbound JSON shape for a directions call.
type requestBody struct {
	Origin       waypoint   `json:"origin"`
	Destination  waypoint   `json:"destination"`
	Waypoints    []waypoint `json:"waypoints,omitempty"`
	Priority     Priority   `json:"priority"`
	CarFuel      string     `json:"car_fuel"`
	CarHipass    bool       `json:"car_hipass"`
	Alternatives bool       `json:"alternatives"`
	RoadDetails  bool       `json:"road_details"`
}

type routeSummary struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Fare     float64 `json:"fare,omitempty"`
}

type routeSection struct {
	Summary routeSummary `json:"summary"`
}

type route struct {
	ResultCode int           `json:"result_code"`
	ResultMsg  string        `json:"result_msg"`
	Summary    *routeSummary `json:"summary,omitempty"`
	Sections   []routeSection `json:"sections,omitempty"`
}

type responseBody struct {
	Routes []route `json:"routes"`
}

// Kind discriminates the outcome of a directions call (spec.md DESIGN NOTES
// §9: "sum types over polymorphic returns").
type Kind int

const (
	// KindUnspecified is the zero value and never a valid outcome; its
	// presence signals a Result that was never populated by doOnce.
	KindUnspecified Kind = iota
	KindOk
	KindDegenerate
	KindNoRouteFound
	KindProviderError
	KindInvalidRequest
	KindMalformedResponse
	KindNetworkError
	KindAuthFailure
	KindForbidden
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindUnspecified:
		return "Unspecified"
	case KindOk:
		return "Ok"
	case KindDegenerate:
		return "Degenerate"
	case KindNoRouteFound:
		return "NoRouteFound"
	case KindProviderError:
		return "ProviderError"
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindMalformedResponse:
		return "MalformedResponse"
	case KindNetworkError:
		return "NetworkError"
	case KindAuthFailure:
		return "AuthFailure"
	case KindForbidden:
		return "Forbidden"
	case KindRateLimited:
		return "RateLimited"
	default:
		return "Unknown"
	}
}

// Result is the outcome of one directions call. For KindOk and
// KindDegenerate, DurationSeconds/DistanceMeters are populated; KindOk also
// carries SectionSeconds/SectionMeters when the response had sections,
// while KindDegenerate never does. For every other Kind, Err describes the
// classified failure. Plausible is
// true unless the result tripped one of spec.md §4.1's plausibility checks
// (speed/duration/distance sanity), in which case it is false and
// PlausibilityNote explains why; either way the result is still accepted.
type Result struct {
	Kind             Kind
	DurationSeconds  float64
	DistanceMeters   float64
	SectionSeconds   []float64
	SectionMeters    []float64
	ProviderCode     int
	ProviderMessage  string
	Plausible        bool
	PlausibilityNote string
	Err              error
}

// Succeeded reports whether the call produced a usable duration/distance.
func (r Result) Succeeded() bool {
	return r.Kind == KindOk || r.Kind == KindDegenerate
}

// Waypoint is the coordinate+label input to a directions call.
type Waypoint struct {
	Lon  float64
	Lat  float64
	Name string
}
