package cluster

import (
	"testing"

	"frameworks/courierplan/internal/planmodel"
)

func TestOrderTwoOrFewerUnchanged(t *testing.T) {
	c := planmodel.Cluster{
		Members: []planmodel.Point{{ID: "a"}, {ID: "b"}},
		Entry:   planmodel.Point{ID: "a"},
		Exit:    planmodel.Point{ID: "b"},
	}
	out := Order(c, nil)
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("expected members unchanged for size<=2, got %+v", out)
	}
}

func TestOrderInteriorNearestNeighbor(t *testing.T) {
	entry := planmodel.Point{ID: "entry", Lon: 127.0, Lat: 37.0}
	exit := planmodel.Point{ID: "exit", Lon: 127.3, Lat: 37.0}
	near := planmodel.Point{ID: "near", Lon: 127.05, Lat: 37.0}
	far := planmodel.Point{ID: "far", Lon: 127.25, Lat: 37.0}

	c := planmodel.Cluster{
		Members: []planmodel.Point{entry, exit, near, far},
		Entry:   entry,
		Exit:    exit,
	}
	out := Order(c, nil)
	if len(out) != 4 {
		t.Fatalf("expected 4 points in order, got %d", len(out))
	}
	if out[0].ID != "entry" || out[len(out)-1].ID != "exit" {
		t.Fatalf("expected entry first and exit last, got %+v", out)
	}
	if out[1].ID != "near" || out[2].ID != "far" {
		t.Fatalf("expected nearest-neighbor order [entry,near,far,exit], got %+v", out)
	}
}

func TestOrderEntryEqualsExitDropsDuplicate(t *testing.T) {
	shared := planmodel.Point{ID: "shared", Lon: 127.0, Lat: 37.0}
	interior := planmodel.Point{ID: "interior", Lon: 127.1, Lat: 37.0}
	c := planmodel.Cluster{
		Members: []planmodel.Point{shared, interior},
		Entry:   shared,
		Exit:    shared,
	}
	out := Order(c, nil)
	if len(out) != 2 {
		t.Fatalf("expected result length 2 (matching member count), got %d: %+v", len(out), out)
	}
	if out[0].ID != "shared" || out[1].ID != "interior" {
		t.Fatalf("expected [shared, interior], got %+v", out)
	}
}
