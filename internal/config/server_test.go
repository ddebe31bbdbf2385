package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestServerConfigValidate covers defaults and rejected configurations.
func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  ServerConfig
		wantErr bool
	}{
		{
			name:    "empty config gets defaults",
			config:  ServerConfig{},
			wantErr: false,
		},
		{
			name:    "gemini provider",
			config:  ServerConfig{Completion: CompletionConfig{Provider: "gemini"}},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			config:  ServerConfig{Completion: CompletionConfig{Provider: "llama"}},
			wantErr: true,
		},
		{
			name:    "negative upload limit",
			config:  ServerConfig{Upload: UploadConfig{MaxBytes: -1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestServerConfigDefaults verifies values filled by Validate.
func TestServerConfigDefaults(t *testing.T) {
	var cfg ServerConfig
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Server.Addr != ":3333" {
		t.Fatalf("addr = %q, want :3333", cfg.Server.Addr)
	}
	if cfg.Upload.MaxBytes != 25<<20 {
		t.Fatalf("max bytes = %d", cfg.Upload.MaxBytes)
	}
	if cfg.Completion.Model != "gpt-3.5-turbo-16k" {
		t.Fatalf("completion model = %q", cfg.Completion.Model)
	}
	if cfg.Transcription.Model != "whisper-1" {
		t.Fatalf("transcription model = %q", cfg.Transcription.Model)
	}
}

// TestLoadServer reads a YAML file with custom prompts.
func TestLoadServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := `
server:
  addr: ":8080"
transcription:
  language: "pt"
completion:
  provider: "openai"
prompts:
  - id: "summary"
    title: "Summary"
    template: "Summarize: {transcription}"
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadServer(path)
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Transcription.Language != "pt" {
		t.Fatalf("language = %q", cfg.Transcription.Language)
	}
	if len(cfg.Prompts) != 1 || cfg.Prompts[0].Template != "Summarize: {transcription}" {
		t.Fatalf("prompts = %+v", cfg.Prompts)
	}
}

// TestLoadServerRejectsPromptWithoutTemplate checks prompt validation.
func TestLoadServerRejectsPromptWithoutTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("prompts:\n  - id: empty\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadServer(path); err == nil {
		t.Fatal("expected validation error")
	}
}

// TestLoadServerMissingFile checks read errors.
func TestLoadServerMissingFile(t *testing.T) {
	if _, err := LoadServer(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
