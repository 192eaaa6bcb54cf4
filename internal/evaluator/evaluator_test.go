package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"frameworks/courierplan/internal/directions"
	"frameworks/courierplan/internal/planmodel"
	"frameworks/courierplan/internal/ratelimit"
)

func mockDirectionsServer(t *testing.T, seconds, meters float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"routes": []map[string]any{
				{"result_code": 0, "summary": map[string]any{"distance": meters, "duration": seconds}},
			},
		})
	}))
}

func seoulGrid(n int) []planmodel.Point {
	pts := make([]planmodel.Point, n)
	for i := 0; i < n; i++ {
		pts[i] = planmodel.Point{ID: fmt.Sprintf("p%d", i), Lon: 127.0 + 0.001*float64(i), Lat: 37.50 + 0.001*float64(i)}
	}
	return pts
}

func TestEvaluateTightClusterSingleK(t *testing.T) {
	srv := mockDirectionsServer(t, 600, 5000)
	defer srv.Close()

	client := directions.NewClient(directions.Config{
		BaseURL:   srv.URL,
		APIKey:    "k",
		RateLimit: ratelimit.New(ratelimit.Config{RequestsPerSecond: 1000, Burst: 1000}),
	})
	ev := NewEvaluator(Config{}, client)

	outcome := ev.Evaluate(context.Background(), seoulGrid(10), 1)
	if outcome.Failed {
		t.Fatalf("expected success, got failure: %s", outcome.FailureMsg)
	}
	if len(outcome.Plan.Clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(outcome.Plan.Clusters))
	}
	if outcome.Requests != 1 {
		t.Fatalf("expected exactly 1 directions request for a single cluster with no hops, got %d", outcome.Requests)
	}
}

func TestEvaluatePassesConfiguredPriorityToDirectionsClient(t *testing.T) {
	var gotPriority string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if p, ok := body["priority"].(string); ok {
			gotPriority = p
		}
		json.NewEncoder(w).Encode(map[string]any{
			"routes": []map[string]any{
				{"result_code": 0, "summary": map[string]any{"distance": 5000, "duration": 600}},
			},
		})
	}))
	defer srv.Close()

	client := directions.NewClient(directions.Config{
		BaseURL:   srv.URL,
		APIKey:    "k",
		RateLimit: ratelimit.New(ratelimit.Config{RequestsPerSecond: 1000, Burst: 1000}),
	})
	ev := NewEvaluator(Config{Priority: directions.PriorityDistance}, client)

	outcome := ev.Evaluate(context.Background(), seoulGrid(10), 1)
	if outcome.Failed {
		t.Fatalf("expected success, got failure: %s", outcome.FailureMsg)
	}
	if gotPriority != string(directions.PriorityDistance) {
		t.Fatalf("expected outbound priority %q, got %q", directions.PriorityDistance, gotPriority)
	}
}

func TestOptimizeSmallNShortcutsSingleCluster(t *testing.T) {
	srv := mockDirectionsServer(t, 600, 5000)
	defer srv.Close()

	client := directions.NewClient(directions.Config{
		BaseURL:   srv.URL,
		APIKey:    "k",
		RateLimit: ratelimit.New(ratelimit.Config{RequestsPerSecond: 1000, Burst: 1000}),
	})
	ev := NewEvaluator(Config{}, client)
	opt := NewOptimizer(ev, Config{})

	pts := []planmodel.Point{
		{ID: "a", Lon: 127.0, Lat: 37.0},
		{ID: "b", Lon: 127.01, Lat: 37.01},
		{ID: "c", Lon: 127.02, Lat: 37.02},
	}
	outcome := opt.Optimize(context.Background(), pts)
	if outcome.K != 1 {
		t.Fatalf("expected K=1 shortcut for N<=3, got K=%d", outcome.K)
	}
	if len(outcome.Plan.Clusters) != 1 {
		t.Fatalf("expected a single cluster, got %d", len(outcome.Plan.Clusters))
	}
}
