package models

import "time"

// FIMEntry is one file-integrity-monitoring finding for an agent.
type FIMEntry struct {
	Path      string    `json:"path"`
	Event     string    `json:"event"` // added|modified|deleted
	Checksum  string    `json:"checksum,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
