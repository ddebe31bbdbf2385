package ai

import (
	"context"

	"upload-ai/internal/domain"
)

// Transcriber converts uploaded speech audio to text. prompt is a keyword
// hint that steers spelling of names and jargon.
type Transcriber interface {
	Transcribe(ctx context.Context, audio domain.AudioArtifact, prompt string) (string, error)
}

// Completer runs one fully substituted prompt through a language model and
// returns the provider response untouched.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (any, error)
}
