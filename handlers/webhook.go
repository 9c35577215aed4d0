package handlers

import (
	"context"
	"net/http"

	"kvrdesk/models"
	"kvrdesk/services/tools"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ToolRunner executes a tool from already-decoded parameters.
type ToolRunner interface {
	ExecuteParams(ctx context.Context, name string, params map[string]interface{}) tools.Result
}

type WebhookHandler struct {
	Tools ToolRunner
}

func NewWebhookHandler(runner ToolRunner) *WebhookHandler {
	return &WebhookHandler{Tools: runner}
}

// HandleWebhook runs out-of-band tool calls. The signature has already been
// checked by middleware.WebhookSignatureMiddleware.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	var event models.WebhookToolCall
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if event.Type != "tool_call" {
		getLogger(c).Debug("ignoring webhook event", zap.String("type", event.Type))
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	res := h.Tools.ExecuteParams(c.Request.Context(), event.ToolName, event.Parameters)
	getLogger(c).Info("webhook tool call", zap.String("tool", event.ToolName), zap.Bool("ok", res.OK()))
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res.Value()})
}
