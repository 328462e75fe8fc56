package access

import (
	"secdash/pkg/models"
)

// Owned is any record that belongs to an agent.
type Owned interface {
	OwnerAgentID() string
}

// Filter restricts records to agents the viewer may see. Admins see
// everything. Everyone else is limited to their assigned agents; a viewer
// with no assignments, or whose identity could not be resolved, gets an
// empty set. The filter fails closed and must run before any aggregation
// or scoring.
func Filter[R Owned](records []R, viewer models.Viewer, assignments []models.AgentAssignment) []R {
	if viewer.Role == models.RoleAdmin {
		return records
	}
	if !viewer.Resolved() || len(assignments) == 0 {
		return []R{}
	}

	allowed := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if id := models.NormalizeAgentID(a.AgentID); id != "" {
			allowed[id] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return []R{}
	}

	out := make([]R, 0, len(records))
	for _, r := range records {
		if _, ok := allowed[models.NormalizeAgentID(r.OwnerAgentID())]; ok {
			out = append(out, r)
		}
	}
	return out
}
