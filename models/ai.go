package models

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// UserContext is the conversation-scoped cache of collected caller details.
type UserContext struct {
	Name                  string `json:"name,omitempty"`
	Email                 string `json:"email,omitempty"`
	Reason                string `json:"reason,omitempty"`
	SelectedAppointmentID string `json:"selected_appointment_id,omitempty"`
}

// ToolCall is a single tool invocation requested by the completion model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // Raw JSON object
}

// ChatMessage is one turn of conversation history.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ConversationSnapshot is what gets exported to disk or cached per session.
type ConversationSnapshot struct {
	SessionID    string        `json:"session_id,omitempty"`
	Conversation []ChatMessage `json:"conversation"`
	UserContext  UserContext   `json:"user_context"`
	UpdatedAt    time.Time     `json:"updated_at,omitempty"`
}
