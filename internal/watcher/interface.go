package watcher

import "context"

// Watcher monitors a directory and hands new videos to a handler.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler processes one detected file.
type EventHandler func(ctx context.Context, filePath string) error
