package aggregate

import (
	"sort"
	"time"

	"secdash/internal/classify"
	"secdash/pkg/models"
)

// Dimension selects the grouping key for an aggregation.
type Dimension string

const (
	DimensionAgent    Dimension = "agent"
	DimensionRule     Dimension = "rule"
	DimensionDay      Dimension = "day"
	DimensionSeverity Dimension = "severity"
)

const (
	// DefaultTopN is the ranking size when none is configured.
	DefaultTopN = 5
	// DefaultWindowDays is the trailing daily-series window, today included.
	DefaultWindowDays = 10

	dayLayout = "2006-01-02"

	unknownAgentKey = "Unknown"
	noTitleKey      = "No Title"
)

// Aggregator computes grouped counts and rankings over classified records.
type Aggregator struct {
	classifier *classify.Classifier
}

// New creates an aggregator backed by the given classifier.
func New(c *classify.Classifier) *Aggregator {
	if c == nil {
		c = classify.New(classify.DefaultThresholds)
	}
	return &Aggregator{classifier: c}
}

// Alerts groups alert records along one dimension. Buckets are sorted
// descending by count, ties ascending by key. Records with unparsable
// timestamps are skipped for the day dimension only; every other dimension
// counts every record.
func (a *Aggregator) Alerts(records []*models.AlertRecord, dim Dimension) []models.AggregateBucket {
	counts := make(map[string]int)
	for _, r := range records {
		key, ok := a.alertKey(r, dim)
		if !ok {
			continue
		}
		counts[key]++
	}
	return sortBuckets(counts)
}

// Vulnerabilities groups vulnerability records along one dimension. The day
// dimension does not apply to scan findings and yields no buckets.
func (a *Aggregator) Vulnerabilities(records []*models.VulnerabilityRecord, dim Dimension) []models.AggregateBucket {
	counts := make(map[string]int)
	for _, r := range records {
		key, ok := a.vulnerabilityKey(r, dim)
		if !ok {
			continue
		}
		counts[key]++
	}
	return sortBuckets(counts)
}

// TopAlerts returns the n highest-count buckets for a dimension. A
// non-positive n falls back to DefaultTopN.
func (a *Aggregator) TopAlerts(records []*models.AlertRecord, dim Dimension, n int) []models.AggregateBucket {
	if n <= 0 {
		n = DefaultTopN
	}
	buckets := a.Alerts(records, dim)
	if len(buckets) > n {
		buckets = buckets[:n]
	}
	return buckets
}

// DailySeries emits one bucket per calendar day for a trailing window ending
// today, zero-filled so charts render a continuous axis. Buckets are in
// chronological order, oldest first.
func (a *Aggregator) DailySeries(records []*models.AlertRecord, days int, now time.Time) []models.AggregateBucket {
	if days <= 0 {
		days = DefaultWindowDays
	}

	counts := make(map[string]int)
	for _, r := range records {
		if r == nil || r.Timestamp.IsZero() {
			continue
		}
		counts[r.Timestamp.Format(dayLayout)]++
	}

	out := make([]models.AggregateBucket, 0, days)
	start := now.AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format(dayLayout)
		out = append(out, models.AggregateBucket{Key: day, Count: counts[day]})
	}
	return out
}

// AgentStatusCounts summarizes the agent inventory by connection status.
func AgentStatusCounts(agents []models.Agent) []models.AggregateBucket {
	counts := make(map[string]int)
	for _, ag := range agents {
		counts[string(ag.Status)]++
	}
	return sortBuckets(counts)
}

func (a *Aggregator) alertKey(r *models.AlertRecord, dim Dimension) (string, bool) {
	if r == nil {
		return "", false
	}
	switch dim {
	case DimensionAgent:
		if r.AgentName == "" {
			return unknownAgentKey, true
		}
		return r.AgentName, true
	case DimensionRule:
		if r.RuleDescription == "" {
			return noTitleKey, true
		}
		return r.RuleDescription, true
	case DimensionDay:
		if r.Timestamp.IsZero() {
			return "", false
		}
		return r.Timestamp.Format(dayLayout), true
	case DimensionSeverity:
		return a.classifier.Alert(r).String(), true
	default:
		return "", false
	}
}

func (a *Aggregator) vulnerabilityKey(r *models.VulnerabilityRecord, dim Dimension) (string, bool) {
	if r == nil {
		return "", false
	}
	switch dim {
	case DimensionAgent:
		if r.AgentName == "" {
			return unknownAgentKey, true
		}
		return r.AgentName, true
	case DimensionRule:
		if r.PackageName == "" {
			return noTitleKey, true
		}
		return r.PackageName, true
	case DimensionSeverity:
		return a.classifier.Vulnerability(r).String(), true
	default:
		return "", false
	}
}

func sortBuckets(counts map[string]int) []models.AggregateBucket {
	out := make([]models.AggregateBucket, 0, len(counts))
	for key, count := range counts {
		out = append(out, models.AggregateBucket{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
