package goToken

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricIssueSuccess)

	if got := m.Value(MetricIssueSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricIssueSuccess)
	m.Inc(MetricIssueSuccess)
	m.Inc(MetricIssueSuccess)

	if got := m.Value(MetricIssueSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricReissueSuccess)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricReissueSuccess); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricVerifyLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricVerifyLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricIssueSuccess)
	m.Inc(MetricIssueFailure)
	m.Inc(MetricIssueFailure)
	m.Observe(MetricVerifyLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricIssueSuccess] != 1 {
		t.Fatalf("expected MetricIssueSuccess=1 got %d", snap.Counters[MetricIssueSuccess])
	}
	if snap.Counters[MetricIssueFailure] != 2 {
		t.Fatalf("expected MetricIssueFailure=2 got %d", snap.Counters[MetricIssueFailure])
	}
	if len(snap.Histograms[MetricVerifyLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricVerifyLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricVerifyLatency][0])
	}
}

func TestMetricsIgnoresUnknownAndNonHistogramIDs(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Inc(metricIDCount)
	m.Observe(MetricIssueSuccess, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricIssueSuccess]; ok {
		t.Fatal("expected counter id to have no histogram")
	}
	if m.Value(metricIDCount) != 0 {
		t.Fatal("expected unknown id to read 0")
	}
}

func TestEngineMetricsTrackLifecycle(t *testing.T) {
	engine, _, done := newTestEngine(t, func(cfg *Config, _ *Builder) {
		cfg.Metrics.EnableLatencyHistograms = true
	})
	defer done()
	ctx := context.Background()

	pair, err := engine.Issue(ctx, mustPrincipal(t, 1, "ROLE_USER"))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	engine.VerifyAccess(pair.AccessToken)
	engine.VerifyAccess("garbage")
	if _, err := engine.ReissueAccess(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("reissue failed: %v", err)
	}
	if err := engine.Logout(ctx, 1); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	_, _ = engine.ReissueAccess(ctx, pair.RefreshToken)

	snap := engine.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricIssueSuccess:   1,
		MetricVerifyValid:    1,
		MetricVerifyInvalid:  1,
		MetricReissueSuccess: 1,
		MetricReissueNotLive: 1,
		MetricLogout:         1,
	}
	for id, v := range want {
		if snap.Counters[id] != v {
			t.Fatalf("metric %d: expected %d, got %d", id, v, snap.Counters[id])
		}
	}

	var verifyObs uint64
	for _, c := range snap.Histograms[MetricVerifyLatency] {
		verifyObs += c
	}
	if verifyObs != 2 {
		t.Fatalf("expected 2 verify latency observations, got %d", verifyObs)
	}
}

func TestEngineMetricsDisabled(t *testing.T) {
	engine, _, done := newTestEngine(t, func(cfg *Config, _ *Builder) {
		cfg.Metrics.Enabled = false
	})
	defer done()

	if _, err := engine.Issue(context.Background(), mustPrincipal(t, 1, "ROLE_USER")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(engine.MetricsSnapshot().Counters) != 0 {
		t.Fatal("expected empty snapshot when metrics are disabled")
	}
}
