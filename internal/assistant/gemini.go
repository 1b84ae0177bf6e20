package assistant

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// GeminiConfig holds the settings for the Gemini generator.
type GeminiConfig struct {
	APIKey string
	Model  string
	// Endpoint overrides the API base URL, e.g. for tests.
	Endpoint   string
	HTTPClient *http.Client
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Generator = (*Gemini)(nil)

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	model := strings.TrimPrefix(cfg.Model, "models/")
	if model == "" {
		model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &ServiceError{Op: "connect", Err: err}
	}
	return &Gemini{client: client, model: model}, nil
}

// GenerateText implements Generator.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", &ServiceError{Op: "generate", Err: err}
	}
	text := resp.Text()
	if text == "" {
		return "", &ServiceError{Op: "generate", Err: errors.New("empty response")}
	}
	return text, nil
}
