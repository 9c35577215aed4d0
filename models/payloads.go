package models

// SweepPayload is the body of the periodic expired-hold sweep task.
type SweepPayload struct {
	Reason string `json:"reason"`
}

// TranscriptionResult is returned by every transcription backend. It never carries a Go error.
type TranscriptionResult struct {
	Status   string  `json:"status"`
	Text     string  `json:"text,omitempty"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// WebhookToolCall is the body of an out-of-band tool invocation.
type WebhookToolCall struct {
	Type       string                 `json:"type"`
	ToolName   string                 `json:"tool_name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// SocketMessage is the JSON envelope exchanged on the session websocket.
type SocketMessage struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Language  string `json:"language,omitempty"` // transcription hint for audio turns
}
