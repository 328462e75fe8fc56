package models

import (
	"strings"
)

// Role is a viewer role. Anything that is not admin is treated as a
// restricted analyst; an empty role means identity could not be resolved.
type Role string

const (
	RoleUnknown Role = ""
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
)

// ParseRole maps a role header value to a Role.
func ParseRole(v string) Role {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "admin":
		return RoleAdmin
	case "analyst", "user":
		return RoleAnalyst
	default:
		return RoleUnknown
	}
}

// Viewer identifies who is looking at the dashboard.
type Viewer struct {
	Email string
	Role  Role
}

// Resolved reports whether the viewer identity could be established.
func (v Viewer) Resolved() bool {
	return v.Role == RoleAdmin || (v.Role != RoleUnknown && v.Email != "")
}

// AgentAssignment maps one user to one agent. A user may hold several
// assignments. Created by an external admin action; read-only here.
type AgentAssignment struct {
	UserEmail string `json:"user_email"`
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

// NormalizeAgentID pads numeric-style agent IDs to the fixed width-3 form
// the backend uses ("7" -> "007"). Wider IDs pass through unchanged.
func NormalizeAgentID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	for len(id) < 3 {
		id = "0" + id
	}
	return id
}
