package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"kvrdesk/services/voice"
	"kvrdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SpeechHandler struct {
	Transcriber voice.Transcriber
	Synthesizer voice.Synthesizer
}

func NewSpeechHandler(t voice.Transcriber, s voice.Synthesizer) *SpeechHandler {
	return &SpeechHandler{Transcriber: t, Synthesizer: s}
}

// TranscribeHandler turns an uploaded clip into text.
// POST /api/speech/transcribe (multipart: audio, language?)
func (h *SpeechHandler) TranscribeHandler(c *gin.Context) {
	// 1. Get audio file from multipart form
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "audio file is required", err.Error())
		return
	}
	defer file.Close()

	// 2. Read it, refusing oversized uploads
	audio, err := io.ReadAll(io.LimitReader(file, voice.MaxAudioBytes+1))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to read audio file", err.Error())
		return
	}
	if len(audio) > voice.MaxAudioBytes {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "audio file too large", fmt.Sprintf("limit is %d bytes", voice.MaxAudioBytes))
		return
	}

	// 3. Transcribe
	res := h.Transcriber.Transcribe(c.Request.Context(), audio, header.Filename, c.PostForm("language"))
	if res.Status != "success" {
		getLogger(c).Warn("transcription failed", zap.String("message", res.Message))
		c.JSON(http.StatusBadGateway, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SynthesizeHandler renders text as MPEG audio.
// POST /api/speech/synthesize {"text": "..."}
func (h *SpeechHandler) SynthesizeHandler(c *gin.Context) {
	var input struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Text) == "" {
		utils.JSONError(c, http.StatusBadRequest, "text is required", "body must be {\"text\": \"...\"}")
		return
	}

	audio, err := h.Synthesizer.Synthesize(c.Request.Context(), input.Text)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
