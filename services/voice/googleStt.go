package voice

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"kvrdesk/models"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	MaxDurationSeconds = 60              // synchronous Recognize limit
	MaxAudioBytes      = 5 * 1024 * 1024 // 5MB
	targetSampleRate   = 16000
	defaultGoogleLang  = "en-US"
)

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

func parseWaveHeader(data []byte) (*waveHeader, error) {
	if len(data) < 44 {
		return nil, errors.New("invalid WAV header length")
	}
	var header waveHeader
	if err := binary.Read(bytes.NewReader(data[:44]), binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if string(header.RiffTag[:]) != "RIFF" || string(header.WaveTag[:]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}
	return &header, nil
}

// linear16Mono reports whether the recognizer can take the audio as is.
func (h *waveHeader) linear16Mono() bool {
	return h.AudioFormat == 1 && h.BitsPerSample == 16 && h.NumChannels == 1
}

func (h *waveHeader) seconds() float64 {
	if h.ByteRate == 0 {
		return 0
	}
	return float64(h.DataSize) / float64(h.ByteRate)
}

// convertAudio resamples anything ffmpeg can read to 16kHz mono LINEAR16.
func convertAudio(ctx context.Context, inputPath, outputPath string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in system PATH: %v", err)
	}
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", fmt.Sprint(targetSampleRate),
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %s", stderr.String())
	}
	return nil
}

// GoogleTranscriber uses Cloud Speech-to-Text as an alternative backend.
type GoogleTranscriber struct {
	client *speech.Client
	logger *zap.Logger
}

func NewGoogleTranscriber(ctx context.Context, credentialsFile string, logger *zap.Logger) (*GoogleTranscriber, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	return &GoogleTranscriber{client: client, logger: logger}, nil
}

func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}

func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte, filename, language string) models.TranscriptionResult {
	if language == "" {
		language = defaultGoogleLang
	}
	if len(audio) > MaxAudioBytes {
		return transcriptionError(fmt.Sprintf("audio exceeds %d bytes", MaxAudioBytes))
	}

	// Step 1: Normalize to 16kHz mono LINEAR16.
	pcm, header, err := g.prepare(ctx, audio, filename)
	if err != nil {
		g.logger.Warn("audio preparation failed", zap.String("file", filename), zap.Error(err))
		return transcriptionError(err.Error())
	}
	if header.seconds() > MaxDurationSeconds {
		return transcriptionError(fmt.Sprintf("audio longer than %d seconds", MaxDurationSeconds))
	}

	// Step 2: Recognize.
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(header.SampleRate),
			LanguageCode:      language,
			AudioChannelCount: 1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		g.logger.Error("speech recognition failed", zap.Error(err))
		return transcriptionError("speech recognition failed: " + err.Error())
	}

	// Step 3: Join the top alternatives.
	var transcript strings.Builder
	detected := language
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			transcript.WriteString(result.Alternatives[0].Transcript + " ")
		}
		if result.LanguageCode != "" {
			detected = result.LanguageCode
		}
	}
	return models.TranscriptionResult{
		Status:   "success",
		Text:     strings.TrimSpace(transcript.String()),
		Language: detected,
		Duration: header.seconds(),
	}
}

func (g *GoogleTranscriber) prepare(ctx context.Context, audio []byte, filename string) ([]byte, *waveHeader, error) {
	if header, err := parseWaveHeader(audio); err == nil && header.linear16Mono() {
		return audio, header, nil
	}

	in, err := os.CreateTemp("", "audio-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(in.Name())
	defer in.Close()
	if _, err := in.Write(audio); err != nil {
		return nil, nil, fmt.Errorf("failed to save audio file: %w", err)
	}

	out, err := os.CreateTemp("", "converted-*.wav")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output temp file: %w", err)
	}
	defer os.Remove(out.Name())
	out.Close()

	if err := convertAudio(ctx, in.Name(), out.Name()); err != nil {
		return nil, nil, err
	}
	converted, err := os.ReadFile(out.Name())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read converted audio: %w", err)
	}
	header, err := parseWaveHeader(converted)
	if err != nil {
		return nil, nil, fmt.Errorf("converted %s: %w", filename, err)
	}
	return converted, header, nil
}
