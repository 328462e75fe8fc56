package classify

import (
	"secdash/pkg/models"
)

// Thresholds are the ordered cut points mapping an alert rule level to a
// severity band. The dashboard historically carried two divergent tables;
// exactly one table is applied everywhere now.
type Thresholds struct {
	Critical int
	High     int
	Medium   int
}

// DefaultThresholds is the canonical alert-level table.
var DefaultThresholds = Thresholds{Critical: 15, High: 12, Medium: 7}

// Valid reports whether the cut points are strictly descending and positive.
func (t Thresholds) Valid() bool {
	return t.Critical > t.High && t.High > t.Medium && t.Medium > 0
}

// Classifier assigns canonical records to severity bands. Pure and
// stateless after construction.
type Classifier struct {
	thresholds Thresholds
}

// New creates a classifier. Invalid threshold tables fall back to the
// canonical defaults.
func New(t Thresholds) *Classifier {
	if !t.Valid() {
		t = DefaultThresholds
	}
	return &Classifier{thresholds: t}
}

// Thresholds returns the active table.
func (c *Classifier) Thresholds() Thresholds { return c.thresholds }

// Level classifies a raw alert rule level. Negative levels are treated as
// zero, so a missing level lands in Low.
func (c *Classifier) Level(level int) models.SeverityBand {
	if level < 0 {
		level = 0
	}
	switch {
	case level >= c.thresholds.Critical:
		return models.SeverityCritical
	case level >= c.thresholds.High:
		return models.SeverityHigh
	case level >= c.thresholds.Medium:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// Alert classifies an alert record by its rule level.
func (c *Classifier) Alert(r *models.AlertRecord) models.SeverityBand {
	if r == nil {
		return models.SeverityLow
	}
	return c.Level(r.RuleLevel)
}

// Vulnerability classifies a vulnerability record. The provider label is
// authoritative; the numeric base score is never consulted here.
func (c *Classifier) Vulnerability(r *models.VulnerabilityRecord) models.SeverityBand {
	if r == nil {
		return models.SeverityUnknown
	}
	return r.Severity
}
