package models

import "strings"

// SeverityBand is an ordered qualitative risk level. Higher values are more
// severe, so bands compare directly with < and >.
type SeverityBand int

const (
	SeverityUnknown SeverityBand = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the canonical label for the band.
func (s SeverityBand) String() string {
	switch s {
	case SeverityCritical:
		return "Critical"
	case SeverityHigh:
		return "High"
	case SeverityMedium:
		return "Medium"
	case SeverityLow:
		return "Low"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s SeverityBand) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized labels
// become SeverityUnknown rather than an error.
func (s *SeverityBand) UnmarshalText(text []byte) error {
	*s = ParseSeverityBand(string(text))
	return nil
}

// ParseSeverityBand maps a provider severity label to a band. Labels are
// trimmed and matched case-insensitively; anything unrecognized is Unknown.
func ParseSeverityBand(label string) SeverityBand {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	default:
		return SeverityUnknown
	}
}
