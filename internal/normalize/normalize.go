package normalize

import (
	"fmt"
	"strings"
	"time"

	"secdash/pkg/models"
)

// Alert converts one raw alert source document into a canonical record.
// Missing fields are defaulted rather than dropped so aggregate totals stay
// consistent with the input count.
func Alert(id string, src map[string]interface{}) *models.AlertRecord {
	record := &models.AlertRecord{
		ID:              id,
		RuleID:          getString(src, "rule.id", "rule_id"),
		RuleDescription: getString(src, "rule.description", "rule_description"),
		RuleLevel:       getInt(src, "rule.level", "rule_level"),
		RuleGroups:      getStrings(src, "rule.groups", "rule_groups"),
		AgentID:         getString(src, "agent.id", "agent_id"),
		AgentName:       getString(src, "agent.name", "agent_name"),
		Raw:             src,
	}
	if record.ID == "" {
		record.ID = getString(src, "id", "_id")
	}
	if record.RuleLevel < 0 {
		record.RuleLevel = 0
	}
	record.Timestamp = getTime(src, "timestamp", "@timestamp")
	return record
}

// Alerts normalizes a batch of search hits.
func Alerts(hits []Hit) []*models.AlertRecord {
	out := make([]*models.AlertRecord, 0, len(hits))
	for _, h := range hits {
		out = append(out, Alert(h.ID, h.Source))
	}
	return out
}

// Vulnerability converts one raw scan finding into a canonical record. The
// provider severity label and the numeric base score are independently
// sourced; when they disagree the record is flagged, never reconciled.
func Vulnerability(id string, src map[string]interface{}) *models.VulnerabilityRecord {
	record := &models.VulnerabilityRecord{
		ID:               id,
		Severity:         models.ParseSeverityBand(getString(src, "data.vulnerability.severity", "vulnerability.severity", "severity")),
		ScoreBase:        getFloat(src, "data.vulnerability.score.base", "vulnerability.score.base", "score_base"),
		PackageName:      getString(src, "data.vulnerability.package.name", "vulnerability.package.name", "package_name"),
		AgentID:          getString(src, "agent.id", "agent_id"),
		AgentName:        getString(src, "agent.name", "agent_name"),
		ScannerReference: getString(src, "data.vulnerability.reference", "vulnerability.reference", "reference"),
		Raw:              src,
	}
	if record.ID == "" {
		record.ID = getString(src, "id", "_id")
	}
	if record.Severity != models.SeverityUnknown && record.ScoreBase > 0 {
		record.SeverityMismatch = record.Severity != cvssBand(record.ScoreBase)
	}
	return record
}

// Vulnerabilities normalizes a batch of search hits.
func Vulnerabilities(hits []Hit) []*models.VulnerabilityRecord {
	out := make([]*models.VulnerabilityRecord, 0, len(hits))
	for _, h := range hits {
		out = append(out, Vulnerability(h.ID, h.Source))
	}
	return out
}

// Hit is one raw search result: document ID plus the loose source shape.
type Hit struct {
	ID     string
	Source map[string]interface{}
}

// cvssBand is the conventional CVSS v3 banding, used only to detect
// label/score disagreement.
func cvssBand(score float64) models.SeverityBand {
	switch {
	case score >= 9:
		return models.SeverityCritical
	case score >= 7:
		return models.SeverityHigh
	case score >= 4:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func getTime(root map[string]interface{}, paths ...string) time.Time {
	for _, path := range paths {
		value := getString(root, path)
		if value == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000-0700"} {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

func getString(root map[string]interface{}, paths ...string) string {
	for _, path := range paths {
		if v, ok := getPath(root, path); ok {
			switch val := v.(type) {
			case string:
				return val
			case fmt.Stringer:
				return val.String()
			case int:
				return fmt.Sprintf("%d", val)
			case int64:
				return fmt.Sprintf("%d", val)
			case float64:
				if val == float64(int64(val)) {
					return fmt.Sprintf("%d", int64(val))
				}
				return fmt.Sprintf("%f", val)
			}
		}
	}
	return ""
}

func getStrings(root map[string]interface{}, paths ...string) []string {
	for _, path := range paths {
		v, ok := getPath(root, path)
		if !ok {
			continue
		}
		items, ok := v.([]interface{})
		if !ok {
			continue
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func getInt(root map[string]interface{}, paths ...string) int {
	for _, path := range paths {
		if v, ok := getPath(root, path); ok {
			switch val := v.(type) {
			case int:
				return val
			case int64:
				return int(val)
			case float64:
				return int(val)
			case string:
				if val == "" {
					continue
				}
				var parsed int
				if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
					return parsed
				}
			}
		}
	}
	return 0
}

func getFloat(root map[string]interface{}, paths ...string) float64 {
	for _, path := range paths {
		if v, ok := getPath(root, path); ok {
			switch val := v.(type) {
			case float64:
				return val
			case int:
				return float64(val)
			case int64:
				return float64(val)
			case string:
				if val == "" {
					continue
				}
				var parsed float64
				if _, err := fmt.Sscanf(val, "%g", &parsed); err == nil {
					return parsed
				}
			}
		}
	}
	return 0
}

func getPath(root map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = root
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		current = v
	}
	return current, true
}
