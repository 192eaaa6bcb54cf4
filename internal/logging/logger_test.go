package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWritesJSON(t *testing.T) {
	logger := New(InfoLevel)
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.WithFields(Fields{"waypoint_id": "w1"}).Info("planning started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got error: %v (line: %q)", err, buf.String())
	}
	if entry["waypoint_id"] != "w1" {
		t.Fatalf("expected waypoint_id field to survive, got %v", entry["waypoint_id"])
	}
	if entry["level"] != "info" {
		t.Fatalf("expected level=info, got %v", entry["level"])
	}
}

func TestNewWithComponentTagsEveryEntry(t *testing.T) {
	logger := NewWithComponent(InfoLevel, "cluster-builder")
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.Info("seeded centroids")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry["component"] != "cluster-builder" {
		t.Fatalf("expected component field, got %v", entry["component"])
	}
}
