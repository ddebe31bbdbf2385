package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"upload-ai/internal/logger"
)

const defaultGeminiModel = "gemini-2.5-flash"

type implGemini struct {
	client *genai.Client
	model  string
	logger logger.Logger
}

func newGemini(ctx context.Context, opts Options, log logger.Logger) (*implGemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.GeminiBaseURL != "" {
		cfg.HTTPOptions.BaseURL = opts.GeminiBaseURL
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	g := &implGemini{client: client, model: opts.CompletionModel, logger: log}
	if g.model == "" {
		g.model = defaultGeminiModel
	}
	if g.logger == nil {
		g.logger = logger.Nop()
	}
	return g, nil
}

// Complete sends prompt as a single text content.
func (g *implGemini) Complete(ctx context.Context, prompt string, temperature float32) (any, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini completion: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	g.logger.Debug(ctx, "Gemini %s returned %d candidates", g.model, len(resp.Candidates))
	return resp, nil
}
