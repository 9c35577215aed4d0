package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"kvrdesk/models"
	"kvrdesk/utils"

	"go.uber.org/zap"
)

// ElevenLabs is the one-shot synthesis and transcription client.
type ElevenLabs struct {
	APIKey   string
	VoiceID  string
	ModelID  string
	STTModel string
	Settings VoiceSettings
	BaseURL  string

	client *http.Client
	logger *zap.Logger
}

func NewElevenLabs(apiKey, voiceID, modelID, sttModel string, settings VoiceSettings, logger *zap.Logger) *ElevenLabs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElevenLabs{
		APIKey:   apiKey,
		VoiceID:  voiceID,
		ModelID:  modelID,
		STTModel: sttModel,
		Settings: settings,
		BaseURL:  elevenLabsAPIURL,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}
}

// Synthesize returns MPEG audio for text.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	payload, err := json.Marshal(map[string]interface{}{
		"text":           text,
		"model_id":       e.ModelID,
		"voice_settings": e.Settings,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/text-to-speech/%s", e.BaseURL, e.VoiceID), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, utils.NewTransportError("synthesis request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, utils.NewTransportError(fmt.Sprintf("synthesis failed (HTTP %d): %s", resp.StatusCode, bytes.TrimSpace(body)), nil)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewTransportError("read synthesis response", err)
	}
	e.logger.Debug("synthesized audio",
		zap.Int("chars", len(text)),
		zap.Int("bytes", len(audio)),
		zap.Duration("latency", time.Since(start)),
	)
	return audio, nil
}

// Transcribe posts the audio to the speech-to-text endpoint.
func (e *ElevenLabs) Transcribe(ctx context.Context, audio []byte, filename, language string) models.TranscriptionResult {
	if filename == "" {
		filename = "audio.mp3"
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return transcriptionError(err.Error())
	}
	if _, err := part.Write(audio); err != nil {
		return transcriptionError(err.Error())
	}
	_ = form.WriteField("model_id", e.STTModel)
	if language != "" {
		_ = form.WriteField("language_code", language)
	}
	if err := form.Close(); err != nil {
		return transcriptionError(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/speech-to-text", &body)
	if err != nil {
		return transcriptionError(err.Error())
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("xi-api-key", e.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("transcription request failed", zap.Error(err))
		return transcriptionError(err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transcriptionError(err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		e.logger.Error("transcription rejected", zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		return transcriptionError(fmt.Sprintf("transcription failed (HTTP %d)", resp.StatusCode))
	}

	var parsed struct {
		Text         string  `json:"text"`
		LanguageCode string  `json:"language_code"`
		Language     string  `json:"language"`
		Duration     float64 `json:"duration"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return transcriptionError("malformed transcription response")
	}
	lang := parsed.Language
	if lang == "" {
		lang = parsed.LanguageCode
	}
	return models.TranscriptionResult{Status: "success", Text: parsed.Text, Language: lang, Duration: parsed.Duration}
}
