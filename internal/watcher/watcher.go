package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"upload-ai/internal/logger"
)

type implWatcher struct {
	inputDir   string
	handler    EventHandler
	logger     logger.Logger
	watcher    *fsnotify.Watcher
	extensions []string
	settle     time.Duration
	queue      chan string
	wg         sync.WaitGroup
}

// Start blocks until ctx ends, queueing every new video for the handler.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started. Monitoring: %s (%s)", w.inputDir, strings.Join(w.extensions, ", "))

	w.wg.Add(1)
	go w.work(ctx)
	defer w.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !w.accepts(event.Name) {
				w.logger.Debug(ctx, "Ignoring file: %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "New video detected: %s", event.Name)
			select {
			case w.queue <- event.Name:
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher.
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// work runs the handler sequentially for queued files.
func (w *implWatcher) work(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			// Give the writer time to finish copying the file.
			select {
			case <-time.After(w.settle):
			case <-ctx.Done():
				return
			}
			if err := w.handler(ctx, path); err != nil {
				w.logger.Error(ctx, "Failed to process %s: %v", path, err)
			}
		}
	}
}

// accepts checks the file extension against the configured list.
func (w *implWatcher) accepts(path string) bool {
	return lo.Contains(w.extensions, strings.ToLower(filepath.Ext(path)))
}
