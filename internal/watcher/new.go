package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"upload-ai/internal/logger"
)

const (
	defaultSettle    = 500 * time.Millisecond
	defaultQueueSize = 64
)

// Options tunes detection.
type Options struct {
	// Extensions lists accepted lower-case file extensions. Defaults to .mp4.
	Extensions []string
	// Settle is how long to wait after a create event before handling the file.
	Settle time.Duration
}

// New creates a Watcher on inputDir. Files are handled one at a time in
// detection order.
func New(inputDir string, handler EventHandler, log logger.Logger, opts Options) (Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(inputDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".mp4"}
	}
	if opts.Settle <= 0 {
		opts.Settle = defaultSettle
	}
	if log == nil {
		log = logger.Nop()
	}

	return &implWatcher{
		inputDir:   inputDir,
		handler:    handler,
		logger:     log,
		watcher:    fw,
		extensions: opts.Extensions,
		settle:     opts.Settle,
		queue:      make(chan string, defaultQueueSize),
	}, nil
}
