package bootstrap

import (
	"context"
	"encoding/json"
	"sync"

	"upload-ai/internal/domain"
)

// backend routes controller stages to the transcoder and client built from
// the current settings, so saving settings does not rebuild the controller.
type backend struct {
	mu         sync.RWMutex
	transcoder converter
	client     remote
}

func (b *backend) Convert(ctx context.Context, media domain.SelectedMedia, onProgress func(float64)) (domain.AudioArtifact, error) {
	b.mu.RLock()
	tc := b.transcoder
	b.mu.RUnlock()
	return tc.Convert(ctx, media, onProgress)
}

func (b *backend) UploadAudio(ctx context.Context, audio domain.AudioArtifact) (string, error) {
	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()
	return client.UploadAudio(ctx, audio)
}

func (b *backend) RequestTranscription(ctx context.Context, videoID, prompt string) error {
	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()
	return client.RequestTranscription(ctx, videoID, prompt)
}

func (b *backend) complete(ctx context.Context, videoID, template string, temperature float64) (json.RawMessage, error) {
	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()
	return client.Complete(ctx, videoID, template, temperature)
}

// swap installs new collaborators and returns the replaced transcoder.
func (b *backend) swap(tc converter, client remote) converter {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.transcoder
	b.transcoder = tc
	b.client = client
	return old
}

func (b *backend) close() error {
	b.mu.RLock()
	tc := b.transcoder
	b.mu.RUnlock()
	if tc == nil {
		return nil
	}
	return tc.Close()
}
