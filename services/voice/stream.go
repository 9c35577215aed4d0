package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"kvrdesk/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type streamConfigFrame struct {
	Text          string        `json:"text"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
	XIAPIKey      string        `json:"xi_api_key"`
}

type streamTextFrame struct {
	Text string `json:"text"`
}

type streamAudioFrame struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
}

// StreamSynthesizer drives the ElevenLabs stream-input websocket.
type StreamSynthesizer struct {
	APIKey   string
	VoiceID  string
	ModelID  string
	Settings VoiceSettings
	BaseURL  string
	Logger   *zap.Logger

	dialer websocket.Dialer
}

func NewStreamSynthesizer(apiKey, voiceID, modelID string, settings VoiceSettings, logger *zap.Logger) *StreamSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamSynthesizer{
		APIKey:   apiKey,
		VoiceID:  voiceID,
		ModelID:  modelID,
		Settings: settings,
		BaseURL:  elevenLabsWSURL,
		Logger:   logger,
		dialer:   websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (s *StreamSynthesizer) endpoint() string {
	return fmt.Sprintf("%s/%s/stream-input?model_id=%s", s.BaseURL, url.PathEscape(s.VoiceID), url.QueryEscape(s.ModelID))
}

// Stream sends chunked text from the channel and hands each audio frame to
// onAudio. It returns once the input is exhausted and the final frame or a
// close has been received.
func (s *StreamSynthesizer) Stream(ctx context.Context, text <-chan string, onAudio AudioFunc) error {
	headers := http.Header{}
	headers.Set("xi-api-key", s.APIKey)

	conn, resp, err := s.dialer.DialContext(ctx, s.endpoint(), headers)
	if err != nil {
		if resp != nil {
			return utils.NewTransportError(fmt.Sprintf("synthesis websocket dial failed (status %d)", resp.StatusCode), err)
		}
		return utils.NewTransportError("synthesis websocket dial failed", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(streamConfigFrame{Text: " ", VoiceSettings: s.Settings, XIAPIKey: s.APIKey}); err != nil {
		return utils.NewTransportError("send synthesis config", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Unblock the reader when either half fails or the caller gives up.
	go func() {
		<-gctx.Done()
		conn.Close()
	}()

	g.Go(func() error {
		return s.receive(gctx, conn, onAudio)
	})
	g.Go(func() error {
		return s.send(gctx, conn, text)
	})

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (s *StreamSynthesizer) send(ctx context.Context, conn *websocket.Conn, text <-chan string) error {
	var chunker Chunker
	sent := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fragment, ok := <-text:
			if !ok {
				if chunk, ok := chunker.Flush(); ok {
					if err := conn.WriteJSON(streamTextFrame{Text: chunk}); err != nil {
						return utils.NewTransportError("send text chunk", err)
					}
					sent++
				}
				if err := conn.WriteJSON(streamTextFrame{Text: ""}); err != nil {
					return utils.NewTransportError("send end of input", err)
				}
				s.Logger.Debug("synthesis input complete", zap.Int("chunks", sent))
				return nil
			}
			if chunk, ok := chunker.Push(fragment); ok {
				if err := conn.WriteJSON(streamTextFrame{Text: chunk}); err != nil {
					return utils.NewTransportError("send text chunk", err)
				}
				sent++
			}
		}
	}
}

func (s *StreamSynthesizer) receive(ctx context.Context, conn *websocket.Conn, onAudio AudioFunc) error {
	frames := 0
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				s.Logger.Debug("synthesis channel closed", zap.Int("code", closeErr.Code), zap.Int("frames", frames))
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return utils.NewTransportError("read synthesis frame", err)
		}

		var frame streamAudioFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			s.Logger.Warn("skipping malformed synthesis frame", zap.Error(err))
			continue
		}
		if frame.Audio != "" {
			audio, err := base64.StdEncoding.DecodeString(frame.Audio)
			if err != nil {
				s.Logger.Warn("skipping undecodable audio", zap.Error(err))
			} else {
				frames++
				if err := onAudio(ctx, audio); err != nil {
					return fmt.Errorf("deliver audio: %w", err)
				}
			}
		}
		if frame.IsFinal {
			s.Logger.Debug("synthesis complete", zap.Int("frames", frames))
			return nil
		}
	}
}

// StreamText synthesizes a reply that is already complete.
func StreamText(ctx context.Context, s Streamer, text string, onAudio AudioFunc) error {
	ch := make(chan string, 1)
	ch <- text
	close(ch)
	return s.Stream(ctx, ch, onAudio)
}
