package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrVideoNotFound is returned for an unknown video id.
var ErrVideoNotFound = errors.New("video not found")

// Video is one uploaded audio track and its transcription, if generated.
type Video struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MIMEType      string    `json:"mimeType"`
	Size          int64     `json:"size"`
	Transcription string    `json:"transcription,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	data          []byte
}

// Repository stores uploaded videos.
type Repository interface {
	Create(ctx context.Context, name, mimeType string, data []byte) (Video, error)
	Get(ctx context.Context, id string) (Video, []byte, error)
	SetTranscription(ctx context.Context, id, transcription string) (Video, error)
}

type memoryRepository struct {
	mu     sync.RWMutex
	videos map[string]*Video
	now    func() time.Time
}

// NewMemoryRepository creates a process-local repository. Records are lost
// on restart.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		videos: make(map[string]*Video),
		now:    time.Now,
	}
}

func (r *memoryRepository) Create(ctx context.Context, name, mimeType string, data []byte) (Video, error) {
	v := &Video{
		ID:        uuid.NewString(),
		Name:      name,
		MIMEType:  mimeType,
		Size:      int64(len(data)),
		CreatedAt: r.now().UTC(),
		data:      data,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.videos[v.ID] = v
	return *v, nil
}

func (r *memoryRepository) Get(ctx context.Context, id string) (Video, []byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.videos[id]
	if !ok {
		return Video{}, nil, ErrVideoNotFound
	}
	return *v, v.data, nil
}

func (r *memoryRepository) SetTranscription(ctx context.Context, id, transcription string) (Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return Video{}, ErrVideoNotFound
	}
	v.Transcription = transcription
	return *v, nil
}
