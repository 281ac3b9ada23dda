package authcore

import (
	"context"
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics()

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginFailure)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("login_success = %d, want 2", got)
	}
	if got := m.Value(MetricLoginFailure); got != 1 {
		t.Fatalf("login_failure = %d, want 1", got)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("snapshot login_success = %d", snap.Counters[MetricLoginSuccess])
	}
	if len(snap.Counters) != int(metricIDCount) {
		t.Fatalf("snapshot has %d counters, want %d", len(snap.Counters), metricIDCount)
	}
}

func TestMetricsNilReceiverIsInert(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLogout)
	if m.Value(MetricLogout) != 0 {
		t.Fatal("nil metrics should read zero")
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("nil snapshot = %v", snap.Counters)
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricRefreshSuccess); got != 8000 {
		t.Fatalf("refresh_success = %d, want 8000", got)
	}
}

func TestMetricNames(t *testing.T) {
	seen := make(map[string]struct{})
	for _, id := range MetricIDs() {
		name := id.Name()
		if name == "" || name == "unknown" {
			t.Fatalf("metric %d has no name", id)
		}
		if _, dup := seen[name]; dup {
			t.Fatalf("duplicate metric name %q", name)
		}
		seen[name] = struct{}{}
	}
	if MetricID(250).Name() != "unknown" {
		t.Fatal("out-of-range id should read unknown")
	}
}

func TestEngineCountsAuditActions(t *testing.T) {
	e, env := newTestEngine(t)
	ctx := context.Background()

	mustRegister(t, e, env, "alice@example.com")
	if _, err := e.Login(ctx, "alice@example.com", testPassword); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if _, err := e.Login(ctx, "alice@example.com", "Wr0ng-Guess!"); err == nil {
		t.Fatal("expected login failure")
	}

	if got := e.Metric(MetricRegisterSuccess); got != 1 {
		t.Fatalf("register_success = %d, want 1", got)
	}
	if got := e.Metric(MetricLoginSuccess); got != 1 {
		t.Fatalf("login_success = %d, want 1", got)
	}
	if got := e.Metric(MetricLoginFailure); got != 1 {
		t.Fatalf("login_failure = %d, want 1", got)
	}
}
