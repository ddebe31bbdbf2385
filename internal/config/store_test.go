package config

import (
	"os"
	"path/filepath"
	"testing"

	"upload-ai/internal/domain"
)

// TestDefaultSettings verifies baseline defaults are present.
func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.ServerURL != DefaultServerURL {
		t.Fatalf("server url = %q, want %q", cfg.ServerURL, DefaultServerURL)
	}
	if cfg.AudioBitrate != "20k" {
		t.Fatalf("audio bitrate = %q, want 20k", cfg.AudioBitrate)
	}
	if cfg.FFmpegPath == "" {
		t.Fatal("expected non-empty ffmpeg path")
	}
	if cfg.WorkspaceDir == "" {
		t.Fatal("expected non-empty workspace dir")
	}
}

// TestJSONStoreLoadMissingReturnsDefaults checks first-run behavior.
func TestJSONStoreLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.json")
	store := NewJSONStore(path)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ServerURL != DefaultServerURL {
		t.Fatalf("server url = %q, want default", got.ServerURL)
	}
}

// TestJSONStoreSaveAndLoadRoundTrip checks persisted settings fidelity.
func TestJSONStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	store := NewJSONStore(path)
	want := domain.Settings{
		ServerURL:             "http://api.local:8080",
		FFmpegPath:            "/opt/ffmpeg/bin/ffmpeg",
		AudioBitrate:          "32k",
		WorkspaceDir:          "/tmp/upload-ai",
		RequestTimeoutSeconds: 60,
		LogLevel:              "debug",
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

// TestJSONStoreLoadFillsMissingFields checks older settings files gain new defaults.
func TestJSONStoreLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"serverUrl":"http://example.test"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewJSONStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ServerURL != "http://example.test" {
		t.Fatalf("server url = %q", got.ServerURL)
	}
	if got.AudioBitrate != DefaultAudioBitrate || got.FFmpegPath != "ffmpeg" {
		t.Fatalf("defaults not applied: %+v", got)
	}
	defaults := DefaultSettings()
	if got.WorkspaceDir != defaults.WorkspaceDir || got.LogLevel != defaults.LogLevel {
		t.Fatalf("normalize not applied on load: %+v", got)
	}
}

// TestJSONStoreLoadInvalidJSON checks parse error handling.
func TestJSONStoreLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not-json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewJSONStore(path)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected json parse error")
	}
}
