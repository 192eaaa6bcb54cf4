package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"

	"frameworks/courierplan/internal/geokit"
	"frameworks/courierplan/internal/logging"
	"frameworks/courierplan/internal/ratelimit"
)

// degenerateThresholdMeters is the distance below which two endpoints are
// treated as the same stop without ever calling the provider (spec.md §4.1,
// result_code 104's client-side mirror for zero-length legs).
const degenerateThresholdMeters = 5.0

// DegenerateSeconds and DegenerateMeters are the fixed values substituted for
// any degenerate pair or single-point leg (spec.md §8 round-trip law).
const (
	DegenerateSeconds = 30.0
	DegenerateMeters  = 10.0
)

// Config configures a Client. Grounded on the teacher's
// pkg/clients/commodore/client.go Config/NewClient shape.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Logger     logging.Logger
	RateLimit  *ratelimit.Bucket
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.RateLimit == nil {
		c.RateLimit = ratelimit.New(ratelimit.Config{})
	}
	return c
}

// Client is the waypoint-directions provider integration.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logging.Logger
	limiter    *ratelimit.Bucket
	breaker    *circuitBreaker
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration

	requestCount    atomic.Int64
	retryCount      atomic.Int64
	degenerateCount atomic.Int64
}

// ClientStats is a snapshot of a Client's cumulative call accounting
// (SPEC_FULL.md supplement 1: request/usage accounting, grounded on the
// original Python client's get_api_usage_info).
type ClientStats struct {
	TotalRequests           int64
	TotalRetries            int64
	DegenerateShortCircuits int64
}

// Stats returns the Client's cumulative request/retry/degenerate-shortcut
// counts since construction. Safe to call concurrently with Get.
func (c *Client) Stats() ClientStats {
	return ClientStats{
		TotalRequests:           c.requestCount.Load(),
		TotalRetries:            c.retryCount.Load(),
		DegenerateShortCircuits: c.degenerateCount.Load(),
	}
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
		limiter:    cfg.RateLimit,
		breaker:    newCircuitBreaker(defaultCircuitBreakerConfig(), cfg.Logger),
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
	}
}

// Get requests a route from origin to destination via waypoints, in that
// order, with the given priority. It is safe to call concurrently from a
// bounded worker pool (spec.md §4.1's concurrency note).
func (c *Client) Get(ctx context.Context, origin, destination orb.Point, waypoints []Waypoint, priority Priority) Result {
	if geokit.Distance(origin, destination) <= degenerateThresholdMeters && len(waypoints) == 0 {
		c.degenerateCount.Add(1)
		return Result{Kind: KindDegenerate, DurationSeconds: DegenerateSeconds, DistanceMeters: DegenerateMeters, Plausible: true}
	}

	body := requestBody{
		Origin:       waypoint{X: origin[0], Y: origin[1], Name: "origin"},
		Destination:  waypoint{X: destination[0], Y: destination[1], Name: "destination"},
		Priority:     priority,
		CarFuel:      "GASOLINE",
		CarHipass:    false,
		Alternatives: false,
		RoadDetails:  false,
	}
	for i, w := range waypoints {
		body.Waypoints = append(body.Waypoints, waypoint{X: w.Lon, Y: w.Lat, Name: nameOrDefault(w.Name, i)})
	}

	res, err := c.breaker.call(func() (Result, error) {
		return c.doWithRetry(ctx, body)
	})
	if res.Kind == KindUnspecified {
		// The breaker rejected the call before doWithRetry ever ran (circuit
		// open): no classified Result exists, so build one from the error.
		return Result{Kind: KindProviderError, Err: fmt.Errorf("directions: circuit breaker: %w", err)}
	}
	return res
}

func nameOrDefault(name string, idx int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("waypoint-%d", idx)
}

// doWithRetry executes the HTTP call with up to c.maxRetries retries,
// exponential backoff (baseDelay * 2^(attempt-1), capped at maxDelay) except
// 429 which always waits a fixed 5 s, and plausibility-based requeues.
// Grounded on pkg/clients/retry.go's doRetryAttempts loop shape. A provider
// result-code error (KindProviderError) is retried at most once, per
// spec.md §7; HTTP 400 (KindInvalidRequest) is never retried at all.
func (c *Client) doWithRetry(ctx context.Context, body requestBody) (Result, error) {
	var last Result
	providerErrorRetries := 0

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.retryCount.Add(1)
			delay := c.backoffFor(attempt, last)
			select {
			case <-ctx.Done():
				return Result{Kind: KindNetworkError, Err: ctx.Err()}, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return Result{Kind: KindNetworkError, Err: err}, err
		}

		res := c.doOnce(ctx, body)
		last = res

		if res.Kind == KindRateLimited {
			c.limiter.Cooldown(5 * time.Second)
			if attempt == c.maxRetries {
				return res, ErrRateLimited
			}
			continue
		}
		if res.Succeeded() {
			if requeueOnImplausibility(res, len(body.Waypoints)) {
				if attempt == c.maxRetries {
					return res, nil
				}
				continue
			}
			res.Plausible, res.PlausibilityNote = assessPlausibility(c.logger, res, len(body.Waypoints))
			return res, nil
		}
		if !retryableKind(res.Kind) {
			return res, res.Err
		}
		if res.Kind == KindProviderError {
			providerErrorRetries++
			if providerErrorRetries > 1 {
				return res, res.Err
			}
		}
		if attempt == c.maxRetries {
			return res, res.Err
		}
	}
	return last, last.Err
}

func (c *Client) backoffFor(attempt int, last Result) time.Duration {
	if last.Kind == KindRateLimited {
		return 5 * time.Second
	}
	delay := time.Duration(float64(c.baseDelay) * math.Pow(2, float64(attempt-1)))
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	jitter := time.Duration(float64(delay) * 0.1 * (2*rand.Float64() - 1))
	delay += jitter
	if delay < 0 {
		delay = 0
	}
	return delay
}

func retryableKind(k Kind) bool {
	switch k {
	case KindNetworkError, KindProviderError, KindMalformedResponse:
		return true
	default:
		return false
	}
}

// requeueOnImplausibility reports whether a "successful" result is so
// implausible it should be retried as if it had failed (spec.md §4.1): a
// zero-duration response with ≥2 waypoints, or a computed average speed
// exceeding 800 km/h.
func requeueOnImplausibility(res Result, waypointCount int) bool {
	if res.DurationSeconds == 0 && waypointCount >= 2 {
		return true
	}
	if res.DurationSeconds > 0 {
		speedKMH := (res.DistanceMeters / 1000) / (res.DurationSeconds / 3600)
		if speedKMH > 800 {
			return true
		}
	}
	return false
}

// assessPlausibility checks an accepted result against spec.md §4.1's
// plausibility-warning thresholds (>150 km/h, duration < 10s per waypoint,
// or total distance > 1000 km), logs a warning when one trips, and reports
// the Plausible/PlausibilityNote pair to carry on the Result. The result is
// accepted either way; only requeueOnImplausibility's harsher checks cause
// a retry.
func assessPlausibility(logger logging.Logger, res Result, waypointCount int) (bool, string) {
	if res.DurationSeconds <= 0 {
		return true, ""
	}
	speedKMH := (res.DistanceMeters / 1000) / (res.DurationSeconds / 3600)
	minPlausibleSeconds := float64(10 * waypointCount)

	var note string
	switch {
	case speedKMH > 150:
		note = fmt.Sprintf("speed %.0f km/h exceeds 150 km/h", speedKMH)
	case res.DurationSeconds < minPlausibleSeconds:
		note = fmt.Sprintf("duration %.0fs implausibly short for %d waypoint(s)", res.DurationSeconds, waypointCount)
	case res.DistanceMeters > 1_000_000:
		note = fmt.Sprintf("distance %.0fm exceeds 1000 km", res.DistanceMeters)
	default:
		return true, ""
	}

	if logger != nil {
		logger.WithFields(logging.Fields{"note": note}).Warn("directions: plausibility warning")
	}
	return false, note
}

// doOnce performs a single HTTP round trip and classifies the outcome.
func (c *Client) doOnce(ctx context.Context, body requestBody) Result {
	c.requestCount.Add(1)

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{Kind: KindMalformedResponse, Err: fmt.Errorf("directions: encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return Result{Kind: KindNetworkError, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Kind: KindNetworkError, Err: fmt.Errorf("%w: %v", ErrNetworkError, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return Result{Kind: KindAuthFailure, Err: ErrAuthFailure}
	case resp.StatusCode == http.StatusForbidden:
		return Result{Kind: KindForbidden, Err: ErrForbidden}
	case resp.StatusCode == http.StatusBadRequest:
		return Result{Kind: KindInvalidRequest, Err: ErrInvalidRequest}
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{Kind: KindRateLimited, Err: ErrRateLimited}
	case resp.StatusCode >= 500:
		return Result{Kind: KindNetworkError, Err: fmt.Errorf("%w: status %d", ErrNetworkError, resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return Result{Kind: KindProviderError, Err: fmt.Errorf("%w: unexpected status %d", ErrProviderError, resp.StatusCode)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Kind: KindNetworkError, Err: fmt.Errorf("%w: %v", ErrNetworkError, err)}
	}

	var decoded responseBody
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{Kind: KindMalformedResponse, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if len(decoded.Routes) == 0 {
		return Result{Kind: KindMalformedResponse, Err: ErrMalformedResponse}
	}

	r := decoded.Routes[0]
	kind, _ := interpretResultCode(r.ResultCode)
	switch kind {
	case KindDegenerate:
		return Result{Kind: KindDegenerate, DurationSeconds: DegenerateSeconds, DistanceMeters: DegenerateMeters, ProviderCode: r.ResultCode, ProviderMessage: r.ResultMsg}
	case KindNoRouteFound:
		return Result{Kind: KindNoRouteFound, ProviderCode: r.ResultCode, ProviderMessage: r.ResultMsg, Err: fmt.Errorf("%w: code %d: %s", ErrNoRouteFound, r.ResultCode, r.ResultMsg)}
	case KindProviderError:
		return Result{Kind: KindProviderError, ProviderCode: r.ResultCode, ProviderMessage: r.ResultMsg, Err: fmt.Errorf("%w: code %d: %s", ErrProviderError, r.ResultCode, r.ResultMsg)}
	}

	// result_code == 0: parse summary, falling back to summing sections. The
	// per-section values are kept either way.
	var totalSeconds, totalMeters float64
	secSeconds := make([]float64, len(r.Sections))
	secMeters := make([]float64, len(r.Sections))
	for i, s := range r.Sections {
		secSeconds[i] = s.Summary.Duration
		secMeters[i] = s.Summary.Distance
		totalSeconds += s.Summary.Duration
		totalMeters += s.Summary.Distance
	}
	if r.Summary != nil {
		return Result{Kind: KindOk, DurationSeconds: r.Summary.Duration, DistanceMeters: r.Summary.Distance, SectionSeconds: secSeconds, SectionMeters: secMeters}
	}
	if len(r.Sections) > 0 {
		return Result{Kind: KindOk, DurationSeconds: totalSeconds, DistanceMeters: totalMeters, SectionSeconds: secSeconds, SectionMeters: secMeters}
	}
	return Result{Kind: KindMalformedResponse, Err: ErrMalformedResponse}
}
