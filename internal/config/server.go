package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"upload-ai/internal/domain"
)

// ServerConfig is the YAML configuration of the companion API.
type ServerConfig struct {
	Server        HTTPConfig              `yaml:"server"`
	Upload        UploadConfig            `yaml:"upload"`
	Transcription TranscriptionConfig     `yaml:"transcription"`
	Completion    CompletionConfig        `yaml:"completion"`
	Prompts       []domain.PromptTemplate `yaml:"prompts"`
	Logging       LoggingConfig           `yaml:"logging"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

type TranscriptionConfig struct {
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
}

type CompletionConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadServer reads and validates a server YAML file.
func LoadServer(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and fills defaults.
func (c *ServerConfig) Validate() error {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3333"
	}
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = 25 << 20
	}
	if c.Upload.MaxBytes < 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = "whisper-1"
	}
	if c.Completion.Provider == "" {
		c.Completion.Provider = "openai"
	}
	switch c.Completion.Provider {
	case "openai":
		if c.Completion.Model == "" {
			c.Completion.Model = "gpt-3.5-turbo-16k"
		}
	case "gemini":
		if c.Completion.Model == "" {
			c.Completion.Model = "gemini-2.5-flash"
		}
	default:
		return fmt.Errorf("completion.provider %q is not supported", c.Completion.Provider)
	}
	for i, p := range c.Prompts {
		if p.ID == "" || p.Template == "" {
			return fmt.Errorf("prompts[%d]: id and template are required", i)
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return nil
}
