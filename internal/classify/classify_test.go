package classify

import (
	"testing"

	"secdash/pkg/models"
)

func TestLevelBoundariesUseCanonicalTable(t *testing.T) {
	c := New(DefaultThresholds)

	cases := []struct {
		level int
		want  models.SeverityBand
	}{
		{16, models.SeverityCritical},
		{15, models.SeverityCritical},
		{14, models.SeverityHigh},
		{12, models.SeverityHigh},
		{11, models.SeverityMedium},
		{7, models.SeverityMedium},
		{6, models.SeverityLow},
		{1, models.SeverityLow},
		{0, models.SeverityLow},
	}
	for _, tc := range cases {
		if got := c.Level(tc.level); got != tc.want {
			t.Fatalf("level %d: expected %s, got %s", tc.level, tc.want, got)
		}
	}
}

func TestLevelNegativeTreatedAsZero(t *testing.T) {
	c := New(DefaultThresholds)
	if got := c.Level(-5); got != models.SeverityLow {
		t.Fatalf("expected Low for negative level, got %s", got)
	}
}

func TestAlertMissingLevelDefaultsToLow(t *testing.T) {
	c := New(DefaultThresholds)
	if got := c.Alert(&models.AlertRecord{}); got != models.SeverityLow {
		t.Fatalf("expected Low for zero-value record, got %s", got)
	}
	if got := c.Alert(nil); got != models.SeverityLow {
		t.Fatalf("expected Low for nil record, got %s", got)
	}
}

func TestExactlyOneBandPerLevel(t *testing.T) {
	c := New(DefaultThresholds)
	for level := -2; level <= 20; level++ {
		band := c.Level(level)
		switch band {
		case models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow:
		default:
			t.Fatalf("level %d classified outside the alert band set: %s", level, band)
		}
	}
}

func TestInvalidThresholdsFallBackToDefaults(t *testing.T) {
	c := New(Thresholds{Critical: 5, High: 10, Medium: 15})
	if c.Thresholds() != DefaultThresholds {
		t.Fatalf("expected default thresholds, got %+v", c.Thresholds())
	}
}

func TestVulnerabilityUsesProviderLabel(t *testing.T) {
	c := New(DefaultThresholds)

	r := &models.VulnerabilityRecord{Severity: models.SeverityHigh, ScoreBase: 2.1}
	if got := c.Vulnerability(r); got != models.SeverityHigh {
		t.Fatalf("expected provider label to win, got %s", got)
	}
	if got := c.Vulnerability(&models.VulnerabilityRecord{}); got != models.SeverityUnknown {
		t.Fatalf("expected Unknown for missing label, got %s", got)
	}
}
