package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kvrdesk/models"
	"kvrdesk/utils"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIRequest struct {
	Model      string          `json:"model"`
	Messages   []openAIMessage `json:"messages"`
	Tools      json.RawMessage `json:"tools,omitempty"`
	ToolChoice string          `json:"tool_choice,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIClient talks to the Chat Completions endpoint.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body := openAIRequest{Model: c.model, Messages: toOpenAIMessages(req.Messages)}
	if len(req.Tools) > 0 {
		body.Tools = req.Tools
		body.ToolChoice = req.ToolChoice
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, utils.NewTransportError("completion request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewTransportError("read completion response", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, utils.NewTransportError(fmt.Sprintf("malformed completion response (HTTP %d)", resp.StatusCode), err)
	}
	if resp.StatusCode >= 400 || parsed.Error != nil {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, utils.NewTransportError(fmt.Sprintf("completion API error (HTTP %d): %s", resp.StatusCode, msg), nil)
	}
	if len(parsed.Choices) == 0 {
		return nil, utils.NewTransportError("completion response has no choices", nil)
	}

	msg := parsed.Choices[0].Message
	out := &CompletionResponse{}
	if msg.Content != nil {
		out.Content = *msg.Content
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	return out, nil
}

func toOpenAIMessages(history []models.ChatMessage) []openAIMessage {
	out := make([]openAIMessage, 0, len(history))
	for _, m := range history {
		om := openAIMessage{Role: m.Role, ToolCallID: m.ToolCallID, Name: m.Name}
		// Assistant tool-call turns carry null content.
		if m.Content != "" || len(m.ToolCalls) == 0 {
			content := m.Content
			om.Content = &content
		}
		for _, tc := range m.ToolCalls {
			wire := openAIToolCall{ID: tc.ID, Type: "function"}
			wire.Function.Name = tc.Name
			wire.Function.Arguments = tc.Arguments
			om.ToolCalls = append(om.ToolCalls, wire)
		}
		out = append(out, om)
	}
	return out
}
