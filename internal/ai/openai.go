package ai

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"

	"upload-ai/internal/domain"
	"upload-ai/internal/logger"
)

type implOpenAI struct {
	client             *openai.Client
	transcriptionModel string
	completionModel    string
	language           string
	logger             logger.Logger
}

func newOpenAI(opts Options, log logger.Logger) *implOpenAI {
	cfg := openai.DefaultConfig(opts.OpenAIKey)
	if opts.OpenAIBaseURL != "" {
		cfg.BaseURL = opts.OpenAIBaseURL
	}

	o := &implOpenAI{
		client:             openai.NewClientWithConfig(cfg),
		transcriptionModel: opts.TranscriptionModel,
		completionModel:    opts.CompletionModel,
		language:           opts.Language,
		logger:             log,
	}
	if o.transcriptionModel == "" {
		o.transcriptionModel = openai.Whisper1
	}
	if o.completionModel == "" {
		o.completionModel = openai.GPT3Dot5Turbo16K
	}
	if o.logger == nil {
		o.logger = logger.Nop()
	}
	return o
}

// Transcribe sends the audio to Whisper with the keyword prompt.
func (o *implOpenAI) Transcribe(ctx context.Context, audio domain.AudioArtifact, prompt string) (string, error) {
	name := audio.Name
	if name == "" {
		name = "audio.mp3"
	}

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.transcriptionModel,
		FilePath: name,
		Reader:   bytes.NewReader(audio.Data),
		Prompt:   prompt,
		Language: o.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	o.logger.Debug(ctx, "Transcribed %s: %d characters", name, len(resp.Text))
	return resp.Text, nil
}

// Complete sends prompt as a single user message.
func (o *implOpenAI) Complete(ctx context.Context, prompt string, temperature float32) (any, error) {
	// The request field is omitempty, so an exact zero would fall back to
	// the provider default.
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.completionModel,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}

	o.logger.Debug(ctx, "Completion %s used %d tokens", resp.ID, resp.Usage.TotalTokens)
	return resp, nil
}
