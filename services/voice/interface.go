package voice

import (
	"context"

	"kvrdesk/models"
)

const (
	elevenLabsAPIURL = "https://api.elevenlabs.io/v1"
	elevenLabsWSURL  = "wss://api.elevenlabs.io/v1/text-to-speech"
)

// Transcriber turns recorded audio into text. Failures are reported in the
// result, never as an error.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) models.TranscriptionResult
}

// Synthesizer renders a complete reply as one audio buffer.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioFunc receives synthesized audio in arrival order.
type AudioFunc func(ctx context.Context, audio []byte) error

// Streamer synthesizes text while it is still being produced.
type Streamer interface {
	Stream(ctx context.Context, text <-chan string, onAudio AudioFunc) error
}

// VoiceSettings are sent with every synthesis request.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func transcriptionError(msg string) models.TranscriptionResult {
	return models.TranscriptionResult{Status: "error", Message: msg}
}
