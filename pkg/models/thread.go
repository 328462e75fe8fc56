package models

import (
	"strings"
	"time"
)

// MessageRole is the author of a conversation message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ParseMessageRole maps a provider role string onto the closed role set.
// Unrecognized roles are treated as assistant output so they are never
// silently replayed as user input.
func ParseMessageRole(v string) MessageRole {
	if strings.ToLower(strings.TrimSpace(v)) == "user" {
		return RoleUser
	}
	return RoleAssistant
}

// Message is one entry of an assistant conversation thread.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
	Seen      bool        `json:"seen"`
}
