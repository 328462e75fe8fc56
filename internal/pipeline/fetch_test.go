package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"secdash/internal/input/backend"
	"secdash/internal/metrics"
	"secdash/internal/normalize"
	"secdash/pkg/models"
)

type fakeSource struct {
	alertHits []normalize.Hit
	vulnHits  []normalize.Hit
	alertErr  error
	vulnErr   error

	assignments   []models.AgentAssignment
	assignmentErr error

	// gate, when set, blocks the next SearchAlerts call until closed.
	gate    chan struct{}
	started chan struct{}
}

func (s *fakeSource) SearchAlerts(ctx context.Context, _ backend.SearchRequest) ([]normalize.Hit, error) {
	if s.gate != nil {
		gate := s.gate
		s.gate = nil
		close(s.started)
		<-gate
	}
	return s.alertHits, s.alertErr
}

func (s *fakeSource) SearchVulnerabilities(ctx context.Context, _ map[string]interface{}) ([]normalize.Hit, error) {
	return s.vulnHits, s.vulnErr
}

func (s *fakeSource) AssignedAgents(ctx context.Context, _ string) ([]models.AgentAssignment, error) {
	return s.assignments, s.assignmentErr
}

func alertHit(id, agentID string, level int, ts time.Time) normalize.Hit {
	return normalize.Hit{
		ID: id,
		Source: map[string]interface{}{
			"timestamp": ts.Format(time.RFC3339),
			"rule": map[string]interface{}{
				"description": fmt.Sprintf("rule for %s", id),
				"level":       float64(level),
			},
			"agent": map[string]interface{}{"id": agentID, "name": "host-" + agentID},
		},
	}
}

func admin() models.Viewer {
	return models.Viewer{Email: "ops@example.com", Role: models.RoleAdmin}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func newTestFetcher(source *fakeSource) *Fetcher {
	f := NewFetcher(source, nil, nil, Config{})
	f.now = fixedNow
	return f
}

func TestFetchAlertsBuildsSnapshot(t *testing.T) {
	now := fixedNow()
	source := &fakeSource{
		alertHits: []normalize.Hit{
			alertHit("a1", "001", 15, now),
			alertHit("a2", "001", 10, now),
			alertHit("a3", "002", 3, now.AddDate(0, 0, -2)),
		},
	}
	f := newTestFetcher(source)

	snap, err := f.FetchAlerts(context.Background(), admin())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Total != 3 {
		t.Fatalf("expected total 3, got %d", snap.Total)
	}
	if snap.Warning != "" {
		t.Fatalf("unexpected warning: %q", snap.Warning)
	}
	if len(snap.Daily) != 10 {
		t.Fatalf("expected 10-day series, got %d", len(snap.Daily))
	}
	if snap.TopAgents[0].Key != "host-001" || snap.TopAgents[0].Count != 2 {
		t.Fatalf("unexpected top agent: %+v", snap.TopAgents)
	}
	// One record at level 15 out of three: 67% compliant.
	if snap.Compliance.Percentage != 67 {
		t.Fatalf("unexpected compliance: %+v", snap.Compliance)
	}
	if !snap.GeneratedAt.Equal(fixedNow()) {
		t.Fatalf("unexpected generated time: %v", snap.GeneratedAt)
	}
}

func TestFetchAlertsNetworkFailureYieldsEmptySnapshotWithWarning(t *testing.T) {
	source := &fakeSource{alertErr: errors.New("connection refused")}
	f := newTestFetcher(source)

	snap, err := f.FetchAlerts(context.Background(), admin())
	if err != nil {
		t.Fatalf("network failure must not be a fetch error: %v", err)
	}
	if snap.Total != 0 {
		t.Fatalf("expected empty snapshot, got total %d", snap.Total)
	}
	if snap.Warning == "" {
		t.Fatalf("expected a visible warning")
	}
	if snap.Compliance.Band != "NoData" {
		t.Fatalf("expected NoData compliance for empty set, got %s", snap.Compliance.Band)
	}
}

func TestFetchAlertsFailsClosedWhenAssignmentLookupFails(t *testing.T) {
	now := fixedNow()
	source := &fakeSource{
		alertHits:     []normalize.Hit{alertHit("a1", "001", 10, now)},
		assignmentErr: errors.New("auth service down"),
	}
	f := newTestFetcher(source)

	viewer := models.Viewer{Email: "ana@example.com", Role: models.RoleAnalyst}
	snap, err := f.FetchAlerts(context.Background(), viewer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Total != 0 {
		t.Fatalf("expected no records when assignments cannot be resolved, got %d", snap.Total)
	}
	if snap.Warning == "" {
		t.Fatalf("expected a warning about unresolved assignments")
	}
}

func TestFetchAlertsRestrictsAnalystToAssignments(t *testing.T) {
	now := fixedNow()
	source := &fakeSource{
		alertHits: []normalize.Hit{
			alertHit("a1", "001", 10, now),
			alertHit("a2", "002", 10, now),
		},
		assignments: []models.AgentAssignment{{UserEmail: "ana@example.com", AgentID: "002"}},
	}
	f := newTestFetcher(source)

	viewer := models.Viewer{Email: "ana@example.com", Role: models.RoleAnalyst}
	snap, err := f.FetchAlerts(context.Background(), viewer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Total != 1 {
		t.Fatalf("expected 1 visible record, got %d", snap.Total)
	}
	if snap.TopAgents[0].Key != "host-002" {
		t.Fatalf("unexpected visible agent: %+v", snap.TopAgents)
	}
}

func TestFetchAlertsSupersededRequestReturnsErrStale(t *testing.T) {
	now := fixedNow()
	gate := make(chan struct{})
	started := make(chan struct{})
	source := &fakeSource{
		alertHits: []normalize.Hit{alertHit("a1", "001", 10, now)},
		gate:      gate,
		started:   started,
	}
	f := newTestFetcher(source)

	type result struct {
		snap *AlertSnapshot
		err  error
	}
	first := make(chan result, 1)
	go func() {
		snap, err := f.FetchAlerts(context.Background(), admin())
		first <- result{snap, err}
	}()

	<-started
	// A second fetch for the same view lands while the first is in flight.
	snap, err := f.FetchAlerts(context.Background(), admin())
	if err != nil {
		t.Fatalf("newer fetch must win: %v", err)
	}
	if snap.Total != 1 {
		t.Fatalf("unexpected newer snapshot: %+v", snap)
	}

	close(gate)
	got := <-first
	if !errors.Is(got.err, ErrStale) {
		t.Fatalf("expected ErrStale for the superseded fetch, got snap=%v err=%v", got.snap, got.err)
	}
}

func TestFetchAlertsIndependentViewersDoNotSupersede(t *testing.T) {
	now := fixedNow()
	gate := make(chan struct{})
	started := make(chan struct{})
	source := &fakeSource{
		alertHits: []normalize.Hit{alertHit("a1", "001", 10, now)},
		gate:      gate,
		started:   started,
	}
	f := newTestFetcher(source)

	type result struct {
		snap *AlertSnapshot
		err  error
	}
	first := make(chan result, 1)
	go func() {
		snap, err := f.FetchAlerts(context.Background(), models.Viewer{Email: "a@example.com", Role: models.RoleAdmin})
		first <- result{snap, err}
	}()

	<-started
	// A different viewer fetches while the first is in flight. Supersession
	// is scoped per view, so this must not discard the other viewer's fetch.
	_, err := f.FetchAlerts(context.Background(), models.Viewer{Email: "b@example.com", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("unexpected error for second viewer: %v", err)
	}

	close(gate)
	got := <-first
	if got.err != nil {
		t.Fatalf("independent viewer's fetch must not be superseded: %v", got.err)
	}
	if got.snap.Total != 1 {
		t.Fatalf("unexpected snapshot for first viewer: %+v", got.snap)
	}
}

func TestFetchAlertsDailyWindowUsesUTC(t *testing.T) {
	// 2026-03-10T23:30Z is already 2026-03-11 in this zone. Day keys are
	// formatted from UTC timestamps, so the window must be anchored in UTC.
	utcNow := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	source := &fakeSource{alertHits: []normalize.Hit{alertHit("a1", "001", 10, utcNow)}}
	f := newTestFetcher(source)
	f.now = func() time.Time { return utcNow.In(time.FixedZone("NZDT", 13*3600)) }

	snap, err := f.FetchAlerts(context.Background(), admin())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := snap.Daily[len(snap.Daily)-1]
	if last.Key != "2026-03-10" || last.Count != 1 {
		t.Fatalf("expected window to end on the UTC day with the record counted, got %+v", last)
	}
}

func TestSupersededFetchDoesNotCountClassifiedRecords(t *testing.T) {
	now := fixedNow()
	gate := make(chan struct{})
	started := make(chan struct{})
	source := &fakeSource{
		alertHits: []normalize.Hit{alertHit("a1", "001", 10, now)},
		gate:      gate,
		started:   started,
	}
	f := newTestFetcher(source)

	counter := metrics.RecordsClassified.WithLabelValues("alert", "Medium")
	before := testutil.ToFloat64(counter)

	errCh := make(chan error, 1)
	go func() {
		_, err := f.FetchAlerts(context.Background(), admin())
		errCh <- err
	}()

	<-started
	if _, err := f.FetchAlerts(context.Background(), admin()); err != nil {
		t.Fatalf("newer fetch must win: %v", err)
	}
	close(gate)
	if err := <-errCh; !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale for the superseded fetch, got %v", err)
	}

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("expected only the winning cycle to count its record, got delta %v", got)
	}
}

func TestFetchVulnerabilitiesBuildsSnapshot(t *testing.T) {
	source := &fakeSource{
		vulnHits: []normalize.Hit{
			{ID: "v1", Source: map[string]interface{}{
				"severity":   "Critical",
				"score_base": 9.8,
				"agent":      map[string]interface{}{"id": "001", "name": "host-001"},
				"data": map[string]interface{}{"vulnerability": map[string]interface{}{
					"package": map[string]interface{}{"name": "openssl"},
				}},
			}},
			{ID: "v2", Source: map[string]interface{}{
				"severity":   "Low",
				"score_base": 9.1,
				"agent":      map[string]interface{}{"id": "001", "name": "host-001"},
			}},
		},
	}
	f := newTestFetcher(source)

	snap, err := f.FetchVulnerabilities(context.Background(), admin())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Total != 2 {
		t.Fatalf("expected total 2, got %d", snap.Total)
	}
	if snap.SeverityMismatches != 1 {
		t.Fatalf("expected 1 label/score mismatch, got %d", snap.SeverityMismatches)
	}
	if snap.Severity[0].Count+snap.Severity[1].Count != 2 {
		t.Fatalf("severity buckets must sum to total: %+v", snap.Severity)
	}
	// One Critical of two records: 50% compliant.
	if snap.Compliance.Percentage != 50 {
		t.Fatalf("unexpected compliance: %+v", snap.Compliance)
	}
}

func TestFetchVulnerabilitiesNetworkFailure(t *testing.T) {
	source := &fakeSource{vulnErr: errors.New("dial tcp: timeout")}
	f := newTestFetcher(source)

	snap, err := f.FetchVulnerabilities(context.Background(), admin())
	if err != nil {
		t.Fatalf("network failure must not be a fetch error: %v", err)
	}
	if snap.Total != 0 || snap.Warning == "" {
		t.Fatalf("expected empty snapshot with warning, got %+v", snap)
	}
}

func TestFetchAlertsCancelledContextIsAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{alertErr: context.Canceled}
	f := newTestFetcher(source)

	_, err := f.FetchAlerts(ctx, admin())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
