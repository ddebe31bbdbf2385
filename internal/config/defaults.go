package config

import (
	"os"
	"path/filepath"

	"upload-ai/internal/domain"
)

const (
	// DefaultServerURL points at the companion API started by cmd/api.
	DefaultServerURL = "http://localhost:3333"
	// DefaultAudioBitrate keeps speech intelligible while minimising upload size.
	DefaultAudioBitrate = "20k"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		ServerURL:             DefaultServerURL,
		FFmpegPath:            "ffmpeg",
		AudioBitrate:          DefaultAudioBitrate,
		WorkspaceDir:          filepath.Join(AppDir(), "workspace"),
		RequestTimeoutSeconds: 300,
		LogLevel:              "info",
	}
}

// AppDir returns the per-user directory holding settings and scratch data.
func AppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".upload-ai")
}

// Normalize fills empty fields with defaults.
func Normalize(settings domain.Settings) domain.Settings {
	defaults := DefaultSettings()
	if settings.ServerURL == "" {
		settings.ServerURL = defaults.ServerURL
	}
	if settings.FFmpegPath == "" {
		settings.FFmpegPath = defaults.FFmpegPath
	}
	if settings.AudioBitrate == "" {
		settings.AudioBitrate = defaults.AudioBitrate
	}
	if settings.WorkspaceDir == "" {
		settings.WorkspaceDir = defaults.WorkspaceDir
	}
	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
	return settings
}
