// File: services/intelligence/geminiClient.go
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"kvrdesk/models"
	"kvrdesk/utils"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GeminiClient adapts Gemini function calling to the CompletionClient contract.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if !strings.HasPrefix(modelName, "models/") {
		modelName = "models/" + modelName
	}
	return &GeminiClient{client: client, modelName: modelName}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := g.client.GenerativeModel(g.modelName)

	system, contents := toGeminiContents(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(req.Tools) > 0 {
		decls, err := toFunctionDeclarations(req.Tools)
		if err != nil {
			return nil, err
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		model.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
		}
	}
	if len(contents) == 0 {
		return nil, utils.NewValidationError("completion request has no conversational turns", nil)
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]
	resp, err := cs.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, utils.NewTransportError("gemini generate error", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, utils.NewTransportError("gemini returned no candidates", nil)
	}

	out := &CompletionResponse{}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			sb.WriteString(string(p))
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				return nil, utils.NewTransportError("gemini returned unencodable arguments", err)
			}
			// Gemini has no call ids; mint one so tool results can be paired.
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{
				ID:        "call_" + uuid.NewString(),
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	out.Content = sb.String()
	return out, nil
}

// toGeminiContents splits out the system turn and folds consecutive tool
// results into a single function-response turn.
func toGeminiContents(history []models.ChatMessage) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	lastWasTool := false
	for _, m := range history {
		isTool := m.Role == models.RoleTool
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		case models.RoleAssistant:
			c := &genai.Content{Role: "model"}
			if m.Content != "" {
				c.Parts = append(c.Parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				c.Parts = append(c.Parts, genai.FunctionCall{Name: tc.Name, Args: decodeObject(tc.Arguments)})
			}
			if len(c.Parts) > 0 {
				contents = append(contents, c)
			}
		case models.RoleTool:
			part := genai.FunctionResponse{Name: m.Name, Response: decodeObject(m.Content)}
			if lastWasTool {
				last := contents[len(contents)-1]
				last.Parts = append(last.Parts, part)
			} else {
				contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{part}})
			}
		}
		lastWasTool = isTool
	}
	return strings.Join(system, "\n\n"), contents
}

func decodeObject(raw string) map[string]any {
	out := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{"result": raw}
	}
	return out
}

type jsonSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Enum        []string               `json:"enum"`
	Properties  map[string]*jsonSchema `json:"properties"`
	Items       *jsonSchema            `json:"items"`
	Required    []string               `json:"required"`
}

func toFunctionDeclarations(raw json.RawMessage) ([]*genai.FunctionDeclaration, error) {
	var wire []struct {
		Function struct {
			Name        string      `json:"name"`
			Description string      `json:"description"`
			Parameters  *jsonSchema `json:"parameters"`
		} `json:"function"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode tool schema: %w", err)
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(wire))
	for _, w := range wire {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        w.Function.Name,
			Description: w.Function.Description,
			Parameters:  convertSchema(w.Function.Parameters),
		})
	}
	return decls, nil
}

// convertSchema keeps the subset of JSON Schema Gemini understands.
// Keywords such as pattern and minItems are dropped.
func convertSchema(s *jsonSchema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       convertSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = convertSchema(prop)
		}
	}
	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
