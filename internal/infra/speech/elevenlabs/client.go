package elevenlabs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bryanwahyu/clarify/internal/domain/speech"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io/v1"
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	DefaultModelID = "eleven_multilingual_v2"
)

type Config struct {
	APIKey          string
	BaseURL         string
	VoiceID         string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
	Timeout         time.Duration
}

// Client implements speech.Synthesizer against the ElevenLabs text-to-speech API.
type Client struct {
	http *resty.Client
	cfg  Config
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
	LanguageCode  string        `json:"language_code,omitempty"`
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("xi-api-key", cfg.APIKey).
		SetHeader("Accept", "audio/mpeg")
	return &Client{http: client, cfg: cfg}
}

func (c *Client) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("voice", c.cfg.VoiceID).
		SetHeader("Content-Type", "application/json").
		SetBody(ttsRequest{
			Text:    speech.Truncate(text),
			ModelID: c.cfg.ModelID,
			VoiceSettings: voiceSettings{
				Stability:       c.cfg.Stability,
				SimilarityBoost: c.cfg.SimilarityBoost,
			},
			LanguageCode: languageCode,
		}).
		Post("/text-to-speech/{voice}")
	if err != nil {
		return nil, fmt.Errorf("%w: elevenlabs request: %w", speech.ErrAudio, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: elevenlabs status %d: %s", speech.ErrAudio, res.StatusCode(), truncateBody(res.Body()))
	}
	if len(res.Body()) == 0 {
		return nil, fmt.Errorf("%w: elevenlabs returned no audio", speech.ErrAudio)
	}
	return res.Body(), nil
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
