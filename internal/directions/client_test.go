package directions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"frameworks/courierplan/internal/ratelimit"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewClient(Config{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		RateLimit: ratelimit.New(ratelimit.Config{RequestsPerSecond: 1000, Burst: 1000}),
		BaseDelay: 5 * time.Millisecond,
		MaxDelay:  20 * time.Millisecond,
	})
	return c, srv
}

func writeRoutes(w http.ResponseWriter, routes ...route) {
	json.NewEncoder(w).Encode(responseBody{Routes: routes})
}

func TestGetDegenerateResultCode(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeRoutes(w, route{ResultCode: 104, ResultMsg: "origin and destination too close"})
	})
	defer srv.Close()

	res := c.Get(context.Background(), orb.Point{127.0, 37.5}, orb.Point{127.01, 37.51}, nil, PriorityTime)
	if res.Kind != KindDegenerate {
		t.Fatalf("expected KindDegenerate, got %v (%v)", res.Kind, res.Err)
	}
	if res.DurationSeconds != DegenerateSeconds || res.DistanceMeters != DegenerateMeters {
		t.Fatalf("expected fixed degenerate values, got %v/%v", res.DurationSeconds, res.DistanceMeters)
	}
}

func TestGetDegenerateDistanceShortCircuitsWithoutNetworkCall(t *testing.T) {
	calls := int32(0)
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeRoutes(w, route{ResultCode: 0, Summary: &routeSummary{Distance: 1000, Duration: 100}})
	})
	defer srv.Close()

	res := c.Get(context.Background(), orb.Point{127.0, 37.5}, orb.Point{127.0, 37.500001}, nil, PriorityTime)
	if res.Kind != KindDegenerate {
		t.Fatalf("expected KindDegenerate, got %v", res.Kind)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no network call for a sub-5m pair, got %d", calls)
	}
}

func TestGetRetriesOn429ThenSucceeds(t *testing.T) {
	attempt := int32(0)
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempt, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeRoutes(w, route{ResultCode: 0, Summary: &routeSummary{Distance: 5000, Duration: 600}})
	})
	defer srv.Close()
	c.maxRetries = 3

	start := time.Now()
	res := c.Get(context.Background(), orb.Point{127.0, 37.5}, orb.Point{128.0, 38.5}, nil, PriorityTime)
	elapsed := time.Since(start)

	if res.Kind != KindOk {
		t.Fatalf("expected eventual success, got %v (%v)", res.Kind, res.Err)
	}
	if elapsed < 5*time.Second {
		t.Fatalf("expected at least 5s of 429 cooldown before success, took %v", elapsed)
	}
}

func TestGetNonRetryableAuthFailure(t *testing.T) {
	calls := int32(0)
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer srv.Close()

	res := c.Get(context.Background(), orb.Point{127.0, 37.5}, orb.Point{128.0, 38.5}, nil, PriorityTime)
	if res.Kind != KindAuthFailure {
		t.Fatalf("expected KindAuthFailure, got %v", res.Kind)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one call for a non-retryable 401, got %d", calls)
	}
}

func TestGetMissingSummaryFallsBackToSectionSum(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeRoutes(w, route{
			ResultCode: 0,
			Sections: []routeSection{
				{Summary: routeSummary{Distance: 1000, Duration: 100}},
				{Summary: routeSummary{Distance: 2000, Duration: 200}},
			},
		})
	})
	defer srv.Close()

	res := c.Get(context.Background(), orb.Point{127.0, 37.5}, orb.Point{128.0, 38.5}, nil, PriorityTime)
	if res.Kind != KindOk {
		t.Fatalf("expected KindOk via section fallback, got %v (%v)", res.Kind, res.Err)
	}
	if res.DistanceMeters != 3000 || res.DurationSeconds != 300 {
		t.Fatalf("expected summed section totals 3000m/300s, got %v/%v", res.DistanceMeters, res.DurationSeconds)
	}
}

func TestGetInvalidRequestIsNotRetried(t *testing.T) {
	calls := int32(0)
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})
	defer srv.Close()

	res := c.Get(context.Background(), orb.Point{127.0, 37.5}, orb.Point{128.0, 38.5}, nil, PriorityTime)
	if res.Kind != KindInvalidRequest {
		t.Fatalf("expected KindInvalidRequest, got %v", res.Kind)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one call for a non-retryable 400, got %d", calls)
	}
}

func TestGetProviderErrorRetriedOnce(t *testing.T) {
	calls := int32(0)
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeRoutes(w, route{ResultCode: 999, ResultMsg: "unexpected provider failure"})
	})
	defer srv.Close()
	c.maxRetries = 3

	res := c.Get(context.Background(), orb.Point{127.0, 37.5}, orb.Point{128.0, 38.5}, nil, PriorityTime)
	if res.Kind != KindProviderError {
		t.Fatalf("expected KindProviderError, got %v", res.Kind)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected exactly 2 calls (1 retry) for a provider error, got %d", got)
	}
}

func TestStatsTracksRequestsRetriesAndDegenerates(t *testing.T) {
	attempt := int32(0)
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempt, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeRoutes(w, route{ResultCode: 0, Summary: &routeSummary{Distance: 5000, Duration: 600}})
	})
	defer srv.Close()
	c.maxRetries = 3

	c.Get(context.Background(), orb.Point{127.0, 37.5}, orb.Point{127.0, 37.500001}, nil, PriorityTime)
	c.Get(context.Background(), orb.Point{127.0, 37.5}, orb.Point{128.0, 38.5}, nil, PriorityTime)

	stats := c.Stats()
	if stats.DegenerateShortCircuits != 1 {
		t.Fatalf("expected 1 degenerate short circuit, got %d", stats.DegenerateShortCircuits)
	}
	if stats.TotalRequests != 2 {
		t.Fatalf("expected 2 HTTP requests (degenerate pair never calls out), got %d", stats.TotalRequests)
	}
	if stats.TotalRetries != 1 {
		t.Fatalf("expected 1 retry from the 500-then-success call, got %d", stats.TotalRetries)
	}
}

func TestGetNoRouteFound(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeRoutes(w, route{ResultCode: 1, ResultMsg: "no route"})
	})
	defer srv.Close()

	res := c.Get(context.Background(), orb.Point{127.0, 37.5}, orb.Point{128.0, 38.5}, nil, PriorityTime)
	if res.Kind != KindNoRouteFound {
		t.Fatalf("expected KindNoRouteFound, got %v", res.Kind)
	}
}
