package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"frameworks/courierplan/internal/planmodel"
	"frameworks/courierplan/internal/ratelimit"
)

func mockServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"routes": []map[string]any{{"result_code": 0, "summary": map[string]any{"distance": 5000, "duration": 600}}},
		})
	}))
}

func gridPoints(n int) []planmodel.Point {
	pts := make([]planmodel.Point, n)
	for i := 0; i < n; i++ {
		pts[i] = planmodel.Point{ID: fmt.Sprintf("p%d", i), Lon: 127.0 + 0.001*float64(i), Lat: 37.50 + 0.001*float64(i)}
	}
	return pts
}

func TestPlanRejectsOutOfBoundsPoints(t *testing.T) {
	srv := mockServer(t)
	defer srv.Close()

	co := NewCoordinator(Config{
		DirectionsBaseURL: srv.URL,
		APIKey:            "k",
		RateLimit:         ratelimit.Config{RequestsPerSecond: 1000, Burst: 1000},
	})

	points := gridPoints(3)
	points = append(points, planmodel.Point{ID: "tokyo", Lon: 139.7, Lat: 35.7})

	waypoints, summary, report := co.Plan(context.Background(), points)
	if len(report.Rejected) != 1 || report.Rejected[0].ID != "tokyo" {
		t.Fatalf("expected tokyo rejected, got %+v", report.Rejected)
	}
	if len(report.Accepted) != 3 {
		t.Fatalf("expected 3 accepted points, got %d", len(report.Accepted))
	}
	if len(waypoints) != 3 {
		t.Fatalf("expected 3 assembled waypoints, got %d", len(waypoints))
	}
	if summary.BatchID == "" {
		t.Fatal("expected a non-empty batch id")
	}
}

func TestPlanEmptyInputYieldsNoOutput(t *testing.T) {
	srv := mockServer(t)
	defer srv.Close()

	co := NewCoordinator(Config{DirectionsBaseURL: srv.URL, APIKey: "k"})
	waypoints, summary, report := co.Plan(context.Background(), nil)
	if len(waypoints) != 0 {
		t.Fatalf("expected no waypoints for empty input, got %d", len(waypoints))
	}
	if len(report.Accepted) != 0 || len(report.Rejected) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
	if len(summary.FailureMessages) == 0 {
		t.Fatal("expected a failure message explaining the empty result")
	}
}
