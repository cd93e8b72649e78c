package perf

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestCollector_RecordAndSnapshot verifies record and snapshot aggregation.
func TestCollector_RecordAndSnapshot(t *testing.T) {
	c := NewCollector(100, nil)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /api/bills", StatusCode: 200, DurationMs: 10, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /api/bills", StatusCode: 200, DurationMs: 30, Timestamp: now})
	c.Record(Entry{Kind: KindQuery, Path: "QueryContext", DurationMs: 5, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.TotalRecorded != 3 {
		t.Errorf("TotalRecorded = %d, want 3", snap.TotalRecorded)
	}
	if len(snap.SlowestRoutes) != 1 || snap.SlowestRoutes[0].AvgMs != 20 || snap.SlowestRoutes[0].MaxMs != 30 {
		t.Fatalf("SlowestRoutes = %+v", snap.SlowestRoutes)
	}
	if len(snap.SlowestQueries) != 1 {
		t.Fatalf("SlowestQueries len = %d, want 1", len(snap.SlowestQueries))
	}
}

// TestCollector_RingBufferOverwrites verifies the oldest entries are dropped.
func TestCollector_RingBufferOverwrites(t *testing.T) {
	c := NewCollector(3, nil)
	now := time.Now()
	for i := 0; i < 5; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /x", DurationMs: float64(i), Timestamp: now})
	}
	if c.TotalRecorded() != 5 {
		t.Errorf("TotalRecorded = %d, want 5", c.TotalRecorded())
	}
	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.SlowestRoutes[0].Count != 3 {
		t.Errorf("Count = %d, want 3", snap.SlowestRoutes[0].Count)
	}
}

// TestCollector_Percentiles verifies P50/P95/P99.
func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector(200, nil)
	now := time.Now()
	for i := 1; i <= 100; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /p", DurationMs: float64(i), Timestamp: now})
	}
	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.RequestP50Ms < 49 || snap.RequestP50Ms > 51 {
		t.Errorf("P50 = %v, want ~50", snap.RequestP50Ms)
	}
	if snap.RequestP99Ms < 98 || snap.RequestP99Ms > 100 {
		t.Errorf("P99 = %v, want ~99", snap.RequestP99Ms)
	}
}

// TestCollector_SnapshotSince verifies old entries are excluded.
func TestCollector_SnapshotSince(t *testing.T) {
	c := NewCollector(10, nil)
	now := time.Now()
	c.Record(Entry{Kind: KindRequest, Path: "GET /old", DurationMs: 1, Timestamp: now.Add(-time.Hour)})
	c.Record(Entry{Kind: KindRequest, Path: "GET /new", DurationMs: 1, Timestamp: now})
	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if len(snap.SlowestRoutes) != 1 || snap.SlowestRoutes[0].Path != "GET /new" {
		t.Errorf("SlowestRoutes = %+v", snap.SlowestRoutes)
	}
}

// TestCollector_ConcurrentRecord verifies Record is safe under concurrency.
func TestCollector_ConcurrentRecord(t *testing.T) {
	c := NewCollector(50, NewMetrics())
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Record(Entry{Kind: KindQuery, Path: "ExecContext", DurationMs: 1, Timestamp: time.Now()})
			}
		}()
	}
	wg.Wait()
	if c.TotalRecorded() != 800 {
		t.Errorf("TotalRecorded = %d, want 800", c.TotalRecorded())
	}
}

// TestMetrics_Observe verifies entries reach the Prometheus registry.
func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()
	c := NewCollector(10, m)
	c.Record(Entry{Kind: KindRequest, Path: "POST /api/bills", StatusCode: 201, DurationMs: 12, Timestamp: time.Now()})
	c.Record(Entry{Kind: KindQuery, Path: "ExecContext", DurationMs: 1, Timestamp: time.Now()})
	m.CountEvent("bill_created")
	m.CountEvent("bill_created")

	if n := testutil.CollectAndCount(m.requestDuration); n != 1 {
		t.Errorf("request series = %d, want 1", n)
	}
	if n := testutil.CollectAndCount(m.queryDuration); n != 1 {
		t.Errorf("query series = %d, want 1", n)
	}
	if v := testutil.ToFloat64(m.businessEvents.WithLabelValues("bill_created")); v != 2 {
		t.Errorf("bill_created = %v, want 2", v)
	}
	var nilMetrics *Metrics
	nilMetrics.CountEvent("ignored")
}

// TestRouteLabel verifies id segments are collapsed.
func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/api/bills":                                          "/api/bills",
		"/api/bills/6f1c2b0e-1d2a-4c55-9a51-0b8f0f3e2d11/pay": "/api/bills/{id}/pay",
		"/api/reports/members":                                "/api/reports/members",
		"/uploads/members/abc/photo.jpg":                      "/uploads/{file}",
		"/api/notifications":                                  "/api/notifications",
	}
	for in, want := range tests {
		if got := RouteLabel(in); got != want {
			t.Errorf("RouteLabel(%q) = %q, want %q", in, got, want)
		}
	}
	if strings.Contains(RouteLabel("/api/members/12345678"), "12345678") {
		t.Error("numeric id not collapsed")
	}
}
