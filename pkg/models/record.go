package models

import "time"

// RecordKind discriminates the two canonical record types.
type RecordKind string

const (
	KindAlert         RecordKind = "alert"
	KindVulnerability RecordKind = "vulnerability"
)

// AlertRecord is a canonical intrusion/log alert. Records are immutable once
// normalized; the lifecycle is request-scoped.
type AlertRecord struct {
	ID              string    `json:"id"`
	RuleID          string    `json:"rule_id"`
	RuleDescription string    `json:"rule_description"`
	RuleLevel       int       `json:"rule_level"`
	RuleGroups      []string  `json:"rule_groups,omitempty"`
	AgentID         string    `json:"agent_id"`
	AgentName       string    `json:"agent_name"`
	Timestamp       time.Time `json:"timestamp"`

	// Raw is the original source document, passed through untouched for
	// display and summarization.
	Raw map[string]interface{} `json:"-"`
}

// OwnerAgentID returns the agent the record belongs to.
func (r *AlertRecord) OwnerAgentID() string { return r.AgentID }

// VulnerabilityRecord is a canonical scan finding. Severity is the provider
// label; it is never re-derived from ScoreBase here. The two are reported
// independently and may disagree, in which case SeverityMismatch is set.
type VulnerabilityRecord struct {
	ID               string       `json:"id"`
	Severity         SeverityBand `json:"severity"`
	ScoreBase        float64      `json:"score_base"`
	PackageName      string       `json:"package_name"`
	AgentID          string       `json:"agent_id"`
	AgentName        string       `json:"agent_name"`
	ScannerReference string       `json:"scanner_reference,omitempty"`
	SeverityMismatch bool         `json:"severity_mismatch,omitempty"`

	Raw map[string]interface{} `json:"-"`
}

// OwnerAgentID returns the agent the record belongs to.
func (r *VulnerabilityRecord) OwnerAgentID() string { return r.AgentID }

// AggregateBucket is one grouped count for an aggregation dimension.
type AggregateBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}
