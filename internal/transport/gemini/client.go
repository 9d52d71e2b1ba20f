// Package gemini adapts the Google Gen AI SDK to the embedding and generation contracts.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Config holds the Gemini client settings shared by the embedder and generator.
type Config struct {
	APIKey  string
	BaseURL string
}

// NewClient creates a Gemini API client. An empty BaseURL keeps the SDK default.
func NewClient(ctx context.Context, cfg Config) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func wrapAPIError(kind string, sentinel, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: gemini %s API error %d: %s", sentinel, kind, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: gemini %s request failed: %w", sentinel, kind, err)
}
