package models

import (
	"strings"
	"time"
)

// AgentStatus is the connection state reported by the agent inventory.
type AgentStatus string

const (
	AgentActive         AgentStatus = "active"
	AgentDisconnected   AgentStatus = "disconnected"
	AgentPending        AgentStatus = "pending"
	AgentNeverConnected AgentStatus = "never_connected"
	AgentUnknown        AgentStatus = "unknown"
)

// ParseAgentStatus maps a provider status string onto the closed status set.
func ParseAgentStatus(v string) AgentStatus {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "active":
		return AgentActive
	case "disconnected":
		return AgentDisconnected
	case "pending":
		return AgentPending
	case "never_connected":
		return AgentNeverConnected
	default:
		return AgentUnknown
	}
}

// Agent is a monitored endpoint.
type Agent struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	IP            string      `json:"ip,omitempty"`
	Status        AgentStatus `json:"status"`
	LastKeepAlive time.Time   `json:"last_keep_alive,omitempty"`
}
