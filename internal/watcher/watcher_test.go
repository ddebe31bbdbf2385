package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// TestWatcherHandlesNewVideosInOrder checks filtering and sequential handling.
func TestWatcherHandlesNewVideosInOrder(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var handled []string
	var active, maxActive int
	done := make(chan struct{})
	handler := func(ctx context.Context, path string) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		active--
		handled = append(handled, filepath.Base(path))
		n := len(handled)
		mu.Unlock()
		if n == 2 {
			close(done)
		}
		return nil
	}

	w, err := New(dir, handler, nil, Options{Settle: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	// Give the watcher a moment to enter its loop.
	time.Sleep(50 * time.Millisecond)
	for _, name := range []string{"a.mp4", "notes.txt", "B.MP4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for handler")
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Start() error = %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 2 || handled[0] != "a.mp4" || handled[1] != "B.MP4" {
		t.Fatalf("handled = %v", handled)
	}
	if maxActive != 1 {
		t.Fatalf("max concurrent handlers = %d, want 1", maxActive)
	}
}

// TestNewMissingDirectory fails for an unknown path.
func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), func(context.Context, string) error { return nil }, nil, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
}
