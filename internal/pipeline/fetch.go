package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"secdash/internal/access"
	"secdash/internal/aggregate"
	"secdash/internal/classify"
	"secdash/internal/compliance"
	"secdash/internal/input/backend"
	"secdash/internal/logger"
	"secdash/internal/metrics"
	"secdash/internal/mitre"
	"secdash/internal/normalize"
	"secdash/pkg/models"
)

// ErrStale means a newer fetch superseded this one; its results must be
// discarded, not rendered.
var ErrStale = errors.New("fetch superseded by a newer request")

const backendWarning = "monitoring backend unavailable; showing empty results"

// Source is the slice of the backend the fetch pipeline consumes.
type Source interface {
	SearchAlerts(ctx context.Context, req backend.SearchRequest) ([]normalize.Hit, error)
	SearchVulnerabilities(ctx context.Context, query map[string]interface{}) ([]normalize.Hit, error)
	AssignedAgents(ctx context.Context, userEmail string) ([]models.AgentAssignment, error)
}

// Config controls rankings and the daily window.
type Config struct {
	TopN       int
	WindowDays int
}

// Fetcher runs one dashboard fetch cycle: fetch, normalize, filter,
// classify, then aggregate, score and cross-reference. Two racing cycles
// for the same viewer's view resolve last-request-wins via a monotonically
// increasing token per view and record kind; fetches for different viewers
// are independent and never supersede each other.
type Fetcher struct {
	source     Source
	classifier *classify.Classifier
	aggregator *aggregate.Aggregator
	table      *mitre.Table
	cfg        Config

	alertTokens tokenTable
	vulnTokens  tokenTable

	now func() time.Time
}

// tokenTable issues monotonically increasing fetch tokens per view key.
type tokenTable struct {
	mu     sync.Mutex
	tokens map[string]uint64
}

func (t *tokenTable) next(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tokens == nil {
		t.tokens = make(map[string]uint64)
	}
	t.tokens[key]++
	return t.tokens[key]
}

func (t *tokenTable) current(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tokens[key]
}

// viewKey identifies one viewer's view for supersession purposes.
func viewKey(v models.Viewer) string {
	if v.Email != "" {
		return v.Email
	}
	return "role:" + string(v.Role)
}

// NewFetcher creates a fetch pipeline.
func NewFetcher(source Source, classifier *classify.Classifier, table *mitre.Table, cfg Config) *Fetcher {
	if classifier == nil {
		classifier = classify.New(classify.DefaultThresholds)
	}
	if table == nil {
		table = mitre.BuiltinTable()
	}
	if cfg.TopN <= 0 {
		cfg.TopN = aggregate.DefaultTopN
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = aggregate.DefaultWindowDays
	}
	return &Fetcher{
		source:     source,
		classifier: classifier,
		aggregator: aggregate.New(classifier),
		table:      table,
		cfg:        cfg,
		now:        time.Now,
	}
}

// AlertSnapshot is the aggregated alert view handed to presentation.
type AlertSnapshot struct {
	GeneratedAt        time.Time                `json:"generated_at"`
	Total              int                      `json:"total"`
	Severity           []models.AggregateBucket `json:"severity"`
	TopAgents          []models.AggregateBucket `json:"top_agents"`
	TopRules           []models.AggregateBucket `json:"top_rules"`
	Daily              []models.AggregateBucket `json:"daily"`
	Compliance         compliance.Score         `json:"compliance"`
	MitreEntries       []models.MitreEntry      `json:"mitre_entries,omitempty"`
	TacticDistribution []models.AggregateBucket `json:"tactic_distribution,omitempty"`
	Warning            string                   `json:"warning,omitempty"`
}

// VulnerabilitySnapshot is the aggregated vulnerability view.
type VulnerabilitySnapshot struct {
	GeneratedAt        time.Time                `json:"generated_at"`
	Total              int                      `json:"total"`
	Severity           []models.AggregateBucket `json:"severity"`
	TopAgents          []models.AggregateBucket `json:"top_agents"`
	TopPackages        []models.AggregateBucket `json:"top_packages"`
	Compliance         compliance.Score         `json:"compliance"`
	SeverityMismatches int                      `json:"severity_mismatches,omitempty"`
	Warning            string                   `json:"warning,omitempty"`
}

// FetchAlerts runs a full alert fetch cycle for a viewer.
func (f *Fetcher) FetchAlerts(ctx context.Context, viewer models.Viewer) (*AlertSnapshot, error) {
	key := viewKey(viewer)
	token := f.alertTokens.next(key)

	var warning string
	var records []*models.AlertRecord
	hits, err := f.source.SearchAlerts(ctx, backend.SearchRequest{})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warnf("Alert search failed: %v", err)
		metrics.FetchCycles.WithLabelValues(string(models.KindAlert), "network_failure").Inc()
		warning = backendWarning
	} else {
		records = normalize.Alerts(hits)
	}

	assignments, authWarning := f.resolveAssignments(ctx, viewer)
	if warning == "" {
		warning = authWarning
	}
	filtered := access.Filter(records, viewer, assignments)

	bands := make([]models.SeverityBand, len(filtered))
	for i, r := range filtered {
		bands[i] = f.classifier.Alert(r)
	}

	// A newer fetch for this view owns the screen now.
	if f.alertTokens.current(key) != token {
		return nil, ErrStale
	}
	for _, b := range bands {
		metrics.RecordsClassified.WithLabelValues(string(models.KindAlert), b.String()).Inc()
	}

	topRules := f.aggregator.TopAlerts(filtered, aggregate.DimensionRule, f.cfg.TopN)
	snapshot := &AlertSnapshot{
		GeneratedAt:        f.now().UTC(),
		Total:              len(filtered),
		Severity:           f.aggregator.Alerts(filtered, aggregate.DimensionSeverity),
		TopAgents:          f.aggregator.TopAlerts(filtered, aggregate.DimensionAgent, f.cfg.TopN),
		TopRules:           topRules,
		Daily:              f.aggregator.DailySeries(filtered, f.cfg.WindowDays, f.now().UTC()),
		Compliance:         compliance.Evaluate(bands),
		MitreEntries:       f.table.CrossReference(topRules),
		TacticDistribution: mitre.TacticDistribution(topRules),
		Warning:            warning,
	}

	if warning == "" {
		metrics.FetchCycles.WithLabelValues(string(models.KindAlert), "ok").Inc()
	}
	return snapshot, nil
}

// FetchVulnerabilities runs a full vulnerability fetch cycle for a viewer.
func (f *Fetcher) FetchVulnerabilities(ctx context.Context, viewer models.Viewer) (*VulnerabilitySnapshot, error) {
	key := viewKey(viewer)
	token := f.vulnTokens.next(key)

	var warning string
	var records []*models.VulnerabilityRecord
	hits, err := f.source.SearchVulnerabilities(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warnf("Vulnerability search failed: %v", err)
		metrics.FetchCycles.WithLabelValues(string(models.KindVulnerability), "network_failure").Inc()
		warning = backendWarning
	} else {
		records = normalize.Vulnerabilities(hits)
	}

	assignments, authWarning := f.resolveAssignments(ctx, viewer)
	if warning == "" {
		warning = authWarning
	}
	filtered := access.Filter(records, viewer, assignments)

	bands := make([]models.SeverityBand, len(filtered))
	mismatches := 0
	for i, r := range filtered {
		bands[i] = f.classifier.Vulnerability(r)
		if r.SeverityMismatch {
			mismatches++
		}
	}
	if mismatches > 0 {
		logger.Warnf("%d vulnerability records have a severity label disagreeing with their base score", mismatches)
	}

	if f.vulnTokens.current(key) != token {
		return nil, ErrStale
	}
	for _, b := range bands {
		metrics.RecordsClassified.WithLabelValues(string(models.KindVulnerability), b.String()).Inc()
	}

	snapshot := &VulnerabilitySnapshot{
		GeneratedAt:        f.now().UTC(),
		Total:              len(filtered),
		Severity:           f.aggregator.Vulnerabilities(filtered, aggregate.DimensionSeverity),
		TopAgents:          topN(f.aggregator.Vulnerabilities(filtered, aggregate.DimensionAgent), f.cfg.TopN),
		TopPackages:        topN(f.aggregator.Vulnerabilities(filtered, aggregate.DimensionRule), f.cfg.TopN),
		Compliance:         compliance.Evaluate(bands),
		SeverityMismatches: mismatches,
		Warning:            warning,
	}

	if warning == "" {
		metrics.FetchCycles.WithLabelValues(string(models.KindVulnerability), "ok").Inc()
	}
	return snapshot, nil
}

// resolveAssignments looks up the viewer's agent assignments. Admins skip
// the lookup. A failed lookup means identity cannot be trusted, so the
// working set fails closed with a visible warning.
func (f *Fetcher) resolveAssignments(ctx context.Context, viewer models.Viewer) ([]models.AgentAssignment, string) {
	if viewer.Role == models.RoleAdmin || !viewer.Resolved() {
		return nil, ""
	}
	assignments, err := f.source.AssignedAgents(ctx, viewer.Email)
	if err != nil {
		logger.Warnf("Assignment lookup failed for %s: %v", viewer.Email, err)
		return nil, "could not resolve agent assignments; no records shown"
	}
	return assignments, ""
}

func topN(buckets []models.AggregateBucket, n int) []models.AggregateBucket {
	if n > 0 && len(buckets) > n {
		return buckets[:n]
	}
	return buckets
}
