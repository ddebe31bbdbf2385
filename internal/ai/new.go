package ai

import (
	"context"
	"fmt"
	"strings"

	"upload-ai/internal/logger"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Options selects and configures the providers.
type Options struct {
	Provider           string
	OpenAIKey          string
	OpenAIBaseURL      string
	GeminiKey          string
	GeminiBaseURL      string
	TranscriptionModel string
	CompletionModel    string
	Language           string
}

// NewTranscriber creates the Whisper transcriber. Transcription always goes
// through OpenAI.
func NewTranscriber(opts Options, log logger.Logger) (Transcriber, error) {
	if strings.TrimSpace(opts.OpenAIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for transcription")
	}
	return newOpenAI(opts, log), nil
}

// NewCompleter creates the completer for opts.Provider.
func NewCompleter(ctx context.Context, opts Options, log logger.Logger) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderOpenAI:
		if strings.TrimSpace(opts.OpenAIKey) == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return newOpenAI(opts, log), nil
	case ProviderGemini:
		if strings.TrimSpace(opts.GeminiKey) == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		return newGemini(ctx, opts, log)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", opts.Provider)
	}
}
