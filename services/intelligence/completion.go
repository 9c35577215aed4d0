package ai

import (
	"context"
	"encoding/json"

	"kvrdesk/models"
)

const ToolChoiceAuto = "auto"

// CompletionRequest carries the full history. Tools holds an OpenAI-style
// function array; leave it nil to forbid tool calls for the round.
type CompletionRequest struct {
	Messages   []models.ChatMessage
	Tools      json.RawMessage
	ToolChoice string
}

// CompletionResponse is either literal text or a list of tool calls.
type CompletionResponse struct {
	Content   string
	ToolCalls []models.ToolCall
}

func (r *CompletionResponse) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// CompletionClient is the language model the agent talks to.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
