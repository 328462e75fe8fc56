package aggregate

import (
	"testing"
	"time"

	"secdash/internal/classify"
	"secdash/pkg/models"
)

func testAggregator() *Aggregator {
	return New(classify.New(classify.DefaultThresholds))
}

func sampleAlerts(base time.Time) []*models.AlertRecord {
	return []*models.AlertRecord{
		{ID: "1", AgentName: "web-01", RuleDescription: "SSH brute force", RuleLevel: 10, Timestamp: base},
		{ID: "2", AgentName: "web-01", RuleDescription: "SSH brute force", RuleLevel: 10, Timestamp: base},
		{ID: "3", AgentName: "db-01", RuleDescription: "Rootkit detected", RuleLevel: 15, Timestamp: base.AddDate(0, 0, -1)},
		{ID: "4", AgentName: "", RuleDescription: "", RuleLevel: 3, Timestamp: base},
	}
}

func sumCounts(buckets []models.AggregateBucket) int {
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	return total
}

func TestSumInvariantAcrossDimensions(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	records := sampleAlerts(base)
	agg := testAggregator()

	for _, dim := range []Dimension{DimensionAgent, DimensionRule, DimensionDay, DimensionSeverity} {
		buckets := agg.Alerts(records, dim)
		if got := sumCounts(buckets); got != len(records) {
			t.Fatalf("dimension %s: expected bucket counts to sum to %d, got %d", dim, len(records), got)
		}
	}
}

func TestMissingKeysGetDefaults(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	agg := testAggregator()

	agents := agg.Alerts(sampleAlerts(base), DimensionAgent)
	foundUnknown := false
	for _, b := range agents {
		if b.Key == "Unknown" {
			foundUnknown = true
		}
	}
	if !foundUnknown {
		t.Fatalf("expected Unknown bucket for missing agent name: %+v", agents)
	}

	rules := agg.Alerts(sampleAlerts(base), DimensionRule)
	foundNoTitle := false
	for _, b := range rules {
		if b.Key == "No Title" {
			foundNoTitle = true
		}
	}
	if !foundNoTitle {
		t.Fatalf("expected No Title bucket for missing description: %+v", rules)
	}
}

func TestUnparsableTimestampSkippedForDayDimension(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	records := append(sampleAlerts(base), &models.AlertRecord{ID: "5", AgentName: "web-01"})
	agg := testAggregator()

	buckets := agg.Alerts(records, DimensionDay)
	if got := sumCounts(buckets); got != len(records)-1 {
		t.Fatalf("expected zero-time record to be skipped, sum=%d", got)
	}
}

func TestSortDescendingByCountThenAscendingByKey(t *testing.T) {
	records := []*models.AlertRecord{
		{ID: "1", AgentName: "bravo"},
		{ID: "2", AgentName: "bravo"},
		{ID: "3", AgentName: "alpha"},
		{ID: "4", AgentName: "charlie"},
	}
	buckets := testAggregator().Alerts(records, DimensionAgent)

	if buckets[0].Key != "bravo" || buckets[0].Count != 2 {
		t.Fatalf("expected bravo first, got %+v", buckets)
	}
	if buckets[1].Key != "alpha" || buckets[2].Key != "charlie" {
		t.Fatalf("expected ties broken lexicographically: %+v", buckets)
	}
}

func TestTopAlertsDefaultsToFive(t *testing.T) {
	var records []*models.AlertRecord
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		records = append(records, &models.AlertRecord{AgentName: name})
	}
	top := testAggregator().TopAlerts(records, DimensionAgent, 0)
	if len(top) != DefaultTopN {
		t.Fatalf("expected %d buckets, got %d", DefaultTopN, len(top))
	}
}

func TestDailySeriesZeroFillsWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
	records := []*models.AlertRecord{
		{ID: "1", Timestamp: now},
		{ID: "2", Timestamp: now.AddDate(0, 0, -3)},
	}

	series := testAggregator().DailySeries(records, 10, now)
	if len(series) != 10 {
		t.Fatalf("expected 10 day buckets, got %d", len(series))
	}
	if series[0].Key != "2026-03-01" {
		t.Fatalf("expected window to start 9 days back, got %s", series[0].Key)
	}
	if series[9].Key != "2026-03-10" || series[9].Count != 1 {
		t.Fatalf("expected today last with count 1, got %+v", series[9])
	}
	if series[6].Key != "2026-03-07" || series[6].Count != 1 {
		t.Fatalf("expected count on -3 day, got %+v", series[6])
	}

	zeros := 0
	for _, b := range series {
		if b.Count == 0 {
			zeros++
		}
	}
	if zeros != 8 {
		t.Fatalf("expected 8 empty days, got %d", zeros)
	}
}

func TestIdenticalInputYieldsIdenticalBuckets(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	agg := testAggregator()

	first := agg.Alerts(sampleAlerts(base), DimensionRule)
	second := agg.Alerts(sampleAlerts(base), DimensionRule)
	if len(first) != len(second) {
		t.Fatalf("bucket count differs between runs")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("bucket %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestVulnerabilitySeverityBuckets(t *testing.T) {
	records := []*models.VulnerabilityRecord{
		{Severity: models.SeverityCritical},
		{Severity: models.SeverityCritical},
		{Severity: models.SeverityUnknown},
	}
	buckets := testAggregator().Vulnerabilities(records, DimensionSeverity)
	if got := sumCounts(buckets); got != len(records) {
		t.Fatalf("expected sum %d, got %d", len(records), got)
	}
	if buckets[0].Key != "Critical" || buckets[0].Count != 2 {
		t.Fatalf("unexpected top bucket: %+v", buckets[0])
	}
}

func TestAgentStatusCounts(t *testing.T) {
	agents := []models.Agent{
		{Status: models.AgentActive},
		{Status: models.AgentActive},
		{Status: models.AgentDisconnected},
	}
	buckets := AgentStatusCounts(agents)
	if buckets[0].Key != "active" || buckets[0].Count != 2 {
		t.Fatalf("unexpected status counts: %+v", buckets)
	}
}
