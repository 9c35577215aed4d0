package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"kvrdesk/models"
	"kvrdesk/services/booking"
	"kvrdesk/services/tools"

	"go.uber.org/zap"
)

// ToolExecutor runs a single model-requested tool call.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) tools.Result
}

// Agent owns one conversation: its history, the cached caller details and
// the two-round completion loop. Turns are serialized.
type Agent struct {
	mu        sync.Mutex
	client    CompletionClient
	executor  ToolExecutor
	logger    *zap.Logger
	history   []models.ChatMessage
	userCtx   models.UserContext
	sessionID string
	snapshots SnapshotStore
}

func NewAgent(client CompletionClient, executor ToolExecutor, systemPrompt string, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		client:   client,
		executor: executor,
		logger:   logger,
		history:  []models.ChatMessage{{Role: models.RoleSystem, Content: systemPrompt}},
	}
}

// AttachSnapshots makes the agent publish its state under sessionID after each turn.
func (a *Agent) AttachSnapshots(sessionID string, store SnapshotStore) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionID = sessionID
	a.snapshots = store
}

// ProcessMessage runs one user turn and returns the assistant's reply.
func (a *Agent) ProcessMessage(ctx context.Context, text string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Step 1: Record the user turn and ask the model, tools allowed.
	a.history = append(a.history, models.ChatMessage{Role: models.RoleUser, Content: text})
	first, err := a.client.Complete(ctx, CompletionRequest{
		Messages:   a.historyCopy(),
		Tools:      tools.SchemaJSON(),
		ToolChoice: ToolChoiceAuto,
	})
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}

	// Step 2: Plain answer, no tools needed.
	if !first.HasToolCalls() {
		a.history = append(a.history, models.ChatMessage{Role: models.RoleAssistant, Content: first.Content})
		a.publish(ctx)
		return first.Content, nil
	}

	// Step 3: Keep the tool-call turn verbatim, then answer each call in order.
	a.history = append(a.history, models.ChatMessage{
		Role:      models.RoleAssistant,
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})
	for _, call := range first.ToolCalls {
		a.logger.Debug("executing tool", zap.String("tool", call.Name), zap.String("call_id", call.ID))
		res := a.executor.Execute(ctx, call.Name, json.RawMessage(call.Arguments))
		a.absorb(res)
		a.history = append(a.history, models.ChatMessage{
			Role:       models.RoleTool,
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    res.JSON(),
		})
	}

	// Step 4: Second round without tools turns the results into speech.
	second, err := a.client.Complete(ctx, CompletionRequest{Messages: a.historyCopy()})
	if err != nil {
		return "", fmt.Errorf("completion after tools: %w", err)
	}
	a.history = append(a.history, models.ChatMessage{Role: models.RoleAssistant, Content: second.Content})
	a.publish(ctx)
	return second.Content, nil
}

// absorb folds tool results into the cached caller details.
func (a *Agent) absorb(res tools.Result) {
	if !res.OK() {
		return
	}
	switch res.Tool {
	case tools.CollectUserInfo:
		collected, ok := res.Payload.(*tools.CollectResult)
		if !ok {
			return
		}
		if v := collected.CollectedData.Name; v != "" {
			a.userCtx.Name = v
		}
		if v := collected.CollectedData.Email; v != "" {
			a.userCtx.Email = v
		}
		if v := collected.CollectedData.Reason; v != "" {
			a.userCtx.Reason = v
		}
	case tools.ReserveSlotTemporarily:
		if r, ok := res.Payload.(*booking.ReservationResult); ok && r.AppointmentID != "" {
			a.userCtx.SelectedAppointmentID = r.AppointmentID
		}
	}
}

func (a *Agent) publish(ctx context.Context) {
	if a.snapshots == nil {
		return
	}
	snap := a.snapshotLocked()
	if err := a.snapshots.Save(ctx, snap); err != nil {
		a.logger.Warn("failed to save conversation snapshot", zap.String("session", a.sessionID), zap.Error(err))
	}
}

func (a *Agent) historyCopy() []models.ChatMessage {
	out := make([]models.ChatMessage, len(a.history))
	copy(out, a.history)
	return out
}

// secretFields never leave the agent: a confirmation token finalizes the hold.
var secretFields = []string{"confirmation_token"}

// redact strips secret fields from a JSON object. Anything else is returned as is.
func redact(raw string) string {
	var obj map[string]json.RawMessage
	if json.Unmarshal([]byte(raw), &obj) != nil {
		return raw
	}
	found := false
	for _, f := range secretFields {
		if _, ok := obj[f]; ok {
			delete(obj, f)
			found = true
		}
	}
	if !found {
		return raw
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return raw
	}
	return string(out)
}

// publicHistory is the history as shown outside the agent, with secrets removed.
func (a *Agent) publicHistory() []models.ChatMessage {
	out := a.historyCopy()
	for i := range out {
		if out[i].Role == models.RoleTool {
			out[i].Content = redact(out[i].Content)
		}
		if len(out[i].ToolCalls) > 0 {
			calls := make([]models.ToolCall, len(out[i].ToolCalls))
			copy(calls, out[i].ToolCalls)
			for j := range calls {
				calls[j].Arguments = redact(calls[j].Arguments)
			}
			out[i].ToolCalls = calls
		}
	}
	return out
}

func (a *Agent) snapshotLocked() *models.ConversationSnapshot {
	return &models.ConversationSnapshot{
		SessionID:    a.sessionID,
		Conversation: a.publicHistory(),
		UserContext:  a.userCtx,
		UpdatedAt:    time.Now(),
	}
}

// Reset drops everything but the system turn and forgets the caller.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = a.history[:1:1]
	a.userCtx = models.UserContext{}
}

// UpdateSystemPrompt swaps the instruction at the head of the history.
func (a *Agent) UpdateSystemPrompt(prompt string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.history) > 0 && a.history[0].Role == models.RoleSystem {
		a.history[0].Content = prompt
		a.logger.Info("system prompt updated")
	}
}

func (a *Agent) History() []models.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.historyCopy()
}

func (a *Agent) UserContext() models.UserContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userCtx
}

func (a *Agent) Snapshot() *models.ConversationSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// ExportConversation writes the history and caller details as indented JSON.
// Confirmation tokens are left out.
func (a *Agent) ExportConversation(path string) error {
	a.mu.Lock()
	export := struct {
		Conversation []models.ChatMessage `json:"conversation"`
		UserContext  models.UserContext   `json:"user_context"`
	}{a.publicHistory(), a.userCtx}
	a.mu.Unlock()

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write conversation: %w", err)
	}
	return nil
}
