package config

import "testing"

func TestLoadMissingAPIKeyReturnsError(t *testing.T) {
	t.Setenv("COURIERPLAN_TEST_KEY", "")
	if _, err := Load(nil, "COURIERPLAN_TEST_KEY"); err == nil {
		t.Fatal("expected error for missing required env var")
	}
}

func TestLoadResolvesDefaults(t *testing.T) {
	t.Setenv("COURIERPLAN_TEST_KEY", "secret")
	t.Setenv("DIRECTIONS_BASE_URL", "")
	t.Setenv("DIRECTIONS_RATE_LIMIT_RPS", "")
	t.Setenv("EVALUATOR_WORKER_POOL_SIZE", "")

	settings, err := Load(nil, "COURIERPLAN_TEST_KEY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.APIKey != "secret" {
		t.Fatalf("expected api key to round trip, got %q", settings.APIKey)
	}
	if settings.RateLimit.RequestsPerSecond != 10 {
		t.Fatalf("expected default rate limit of 10 req/s, got %v", settings.RateLimit.RequestsPerSecond)
	}
	if settings.WorkerPoolSize != 4 {
		t.Fatalf("expected default worker pool size 4, got %d", settings.WorkerPoolSize)
	}
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("COURIERPLAN_TEST_KEY", "secret")
	t.Setenv("DIRECTIONS_RATE_LIMIT_RPS", "25")
	t.Setenv("EVALUATOR_WORKER_POOL_SIZE", "8")

	settings, err := Load(nil, "COURIERPLAN_TEST_KEY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.RateLimit.RequestsPerSecond != 25 {
		t.Fatalf("expected overridden rate limit 25, got %v", settings.RateLimit.RequestsPerSecond)
	}
	if settings.WorkerPoolSize != 8 {
		t.Fatalf("expected overridden worker pool size 8, got %d", settings.WorkerPoolSize)
	}
}
