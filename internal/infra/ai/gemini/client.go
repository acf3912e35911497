package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/bryanwahyu/clarify/internal/domain/ai"
)

const DefaultModel = "gemini-2.5-flash"

// Client calls Gemini through the genai SDK. One SDK client is shared by all calls.
type Client struct {
	cl    *genai.Client
	Model string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{cl: cl, Model: strings.TrimSpace(model)}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Close() error { return c.cl.Close() }

func (c *Client) Generate(ctx context.Context, p ai.Prompt) (string, error) {
	m := c.cl.GenerativeModel(c.Model)
	if p.JSON {
		m.GenerationConfig = genai.GenerationConfig{ResponseMIMEType: "application/json"}
	}

	parts := []genai.Part{genai.Text(p.Text)}
	if p.Image != nil {
		parts = append(parts, genai.Blob{MIMEType: p.Image.MIMEType, Data: p.Image.Data})
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		if isQuota(err) {
			return "", fmt.Errorf("%w: %w", ai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	txt := firstText(resp)
	if txt == "" {
		return "", errors.New("gemini generate: empty response")
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func isQuota(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "Error 429")
}
