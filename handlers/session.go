package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"kvrdesk/models"
	ai "kvrdesk/services/intelligence"
	"kvrdesk/services/session"
	"kvrdesk/services/voice"
	"kvrdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FallbackReply is spoken when a turn cannot be completed.
const FallbackReply = "I'm having trouble. Please try again or call our office."

const (
	MsgUserMessage      = "user_message"
	MsgReset            = "reset"
	MsgSession          = "session"
	MsgStatus           = "status"
	MsgTranscript       = "transcript"
	MsgAssistantMessage = "assistant_message"
	MsgAudioEnd         = "audio_end"
	MsgError            = "error"
)

// SnapshotStore is the conversation cache read by the snapshot endpoint.
type SnapshotStore interface {
	ai.SnapshotStore
	Get(ctx context.Context, sessionID string) (*models.ConversationSnapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

type SessionHandler struct {
	Registry    *session.Registry
	NewAgent    func() *ai.Agent
	Streamer    voice.Streamer    // optional; replies are text-only without it
	Transcriber voice.Transcriber // optional; binary frames are rejected without it
	Snapshots   SnapshotStore     // optional

	upgrader websocket.Upgrader
}

func NewSessionHandler(registry *session.Registry, newAgent func() *ai.Agent, streamer voice.Streamer, transcriber voice.Transcriber, snapshots SnapshotStore) *SessionHandler {
	return &SessionHandler{
		Registry:    registry,
		NewAgent:    newAgent,
		Streamer:    streamer,
		Transcriber: transcriber,
		Snapshots:   snapshots,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// socketWriter serializes writes from the turn loop and the audio callback.
// Failed writes are logged here so callers only decide whether to stop.
type socketWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *zap.Logger
}

func (w *socketWriter) JSON(msg models.SocketMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteJSON(msg); err != nil {
		w.log.Warn("websocket write failed", zap.String("type", msg.Type), zap.Error(err))
		return err
	}
	return nil
}

func (w *socketWriter) Binary(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		w.log.Warn("websocket audio write failed", zap.Int("bytes", len(data)), zap.Error(err))
		return err
	}
	return nil
}

// WebSocketHandler runs one conversation per connection.
// GET /websocket
func (h *SessionHandler) WebSocketHandler(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		getLogger(c).Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	agent := h.NewAgent()
	sess := h.Registry.Open(agent)
	defer h.Registry.Close(sess.ID)
	agent.AttachSnapshots(sess.ID, h.Snapshots)

	log := getLogger(c).With(zap.String("session", sess.ID))
	log.Info("websocket session opened", zap.Int("active", h.Registry.Count()))
	defer log.Info("websocket session closed")

	out := &socketWriter{conn: conn, log: log}
	if err := out.JSON(models.SocketMessage{Type: MsgSession, SessionID: sess.ID}); err != nil {
		return
	}

	var language string
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		if kind == websocket.BinaryMessage {
			text, ok := h.transcribe(ctx, out, data, language, log)
			if ok {
				h.turn(ctx, out, agent, text, log)
			}
			continue
		}

		var msg models.SocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if out.JSON(models.SocketMessage{Type: MsgError, Message: "Malformed message"}) != nil {
				return
			}
			continue
		}
		switch msg.Type {
		case MsgUserMessage:
			if msg.Language != "" {
				language = msg.Language
			}
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			h.turn(ctx, out, agent, msg.Text, log)
		case MsgReset:
			agent.Reset()
			if out.JSON(models.SocketMessage{Type: MsgStatus, Message: "Conversation reset"}) != nil {
				return
			}
		default:
			if out.JSON(models.SocketMessage{Type: MsgError, Message: "Unknown message type: " + msg.Type}) != nil {
				return
			}
		}
	}
}

func (h *SessionHandler) transcribe(ctx context.Context, out *socketWriter, audio []byte, language string, log *zap.Logger) (string, bool) {
	if h.Transcriber == nil {
		_ = out.JSON(models.SocketMessage{Type: MsgError, Message: "Audio input is not enabled"})
		return "", false
	}
	res := h.Transcriber.Transcribe(ctx, audio, "audio.webm", language)
	if res.Status != "success" || strings.TrimSpace(res.Text) == "" {
		log.Warn("transcription failed", zap.String("message", res.Message))
		_ = out.JSON(models.SocketMessage{Type: MsgError, Message: "Sorry, I didn't catch that. Could you repeat?"})
		return "", false
	}
	if out.JSON(models.SocketMessage{Type: MsgTranscript, Text: res.Text}) != nil {
		return "", false
	}
	return res.Text, true
}

// turn runs one user message through the agent and streams the reply.
func (h *SessionHandler) turn(ctx context.Context, out *socketWriter, agent *ai.Agent, text string, log *zap.Logger) {
	if err := out.JSON(models.SocketMessage{Type: MsgStatus, Message: "Processing your request..."}); err != nil {
		return
	}

	reply, err := agent.ProcessMessage(ctx, text)
	if err != nil {
		log.Error("agent turn failed", zap.Error(err))
		reply = FallbackReply
	}
	if err := out.JSON(models.SocketMessage{Type: MsgAssistantMessage, Text: reply}); err != nil {
		return
	}

	if h.Streamer == nil {
		return
	}
	err = voice.StreamText(ctx, h.Streamer, reply, func(_ context.Context, audio []byte) error {
		return out.Binary(audio)
	})
	if err != nil {
		log.Warn("audio streaming failed", zap.Error(err))
		if out.JSON(models.SocketMessage{Type: MsgError, Message: "Audio is unavailable for this reply"}) != nil {
			return
		}
	}
	_ = out.JSON(models.SocketMessage{Type: MsgAudioEnd})
}

// SnapshotHandler returns the cached state of a session.
// GET /api/sessions/:id/snapshot
func (h *SessionHandler) SnapshotHandler(c *gin.Context) {
	id := c.Param("id")
	if s, ok := h.Registry.Get(id); ok {
		c.JSON(http.StatusOK, s.Agent.Snapshot())
		return
	}
	if h.Snapshots == nil {
		utils.JSONError(c, http.StatusNotFound, "Session snapshot not found", id)
		return
	}
	snap, err := h.Snapshots.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// HealthHandler reports liveness, open sessions and dependency health.
func (h *SessionHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"active_connections": h.Registry.Count(),
		"dependencies":       utils.GetHealthStatus(),
	})
}
