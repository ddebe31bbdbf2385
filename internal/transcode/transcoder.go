package transcode

import (
	"context"
	"fmt"
	"strings"

	"upload-ai/internal/domain"
)

// inputName is the engine-side name of the video blob.
const inputName = "input.mp4"

// Profile is the fixed audio encoding used for uploads.
type Profile struct {
	Codec      string
	Bitrate    string
	MIMEType   string
	OutputName string
}

// DefaultProfile returns the low-bitrate MP3 profile used for speech.
func DefaultProfile() Profile {
	return Profile{
		Codec:      "libmp3lame",
		Bitrate:    "20k",
		MIMEType:   "audio/mpeg",
		OutputName: "audio.mp3",
	}
}

// WithBitrate returns a copy of the profile using bitrate when non-empty.
func (p Profile) WithBitrate(bitrate string) Profile {
	if b := strings.TrimSpace(bitrate); b != "" {
		p.Bitrate = b
	}
	return p
}

// ConversionError reports a failed or unusable transcode.
type ConversionError struct {
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats conversion failures for logs and UI.
func (e *ConversionError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("conversion: %s", e.Message)
	if e.CommandLog.Command != "" {
		msg = fmt.Sprintf(
			"conversion: %s (cmd=%s exit=%d)",
			e.Message,
			e.CommandLog.Command,
			e.CommandLog.ExitCode,
		)
	}

	// Failures before ffmpeg writes anything, like a missing binary, only
	// have the wrapped error to explain them.
	if diag := e.Diagnostic(); diag != "" {
		msg += ": " + diag
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Kind names the error class for submission failures.
func (e *ConversionError) Kind() string {
	return "ConversionError"
}

// Diagnostic returns the tail of the engine's stderr.
func (e *ConversionError) Diagnostic() string {
	lines := strings.Split(strings.TrimSpace(e.CommandLog.Stderr), "\n")
	kept := make([]string, 0, 3)
	for i := len(lines) - 1; i >= 0 && len(kept) < 3; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append([]string{line}, kept...)
		}
	}
	return strings.Join(kept, " | ")
}

// Transcoder converts video bytes into the upload audio profile.
type Transcoder struct {
	engine  Engine
	profile Profile
}

// New creates a Transcoder that owns engine.
func New(engine Engine, profile Profile) *Transcoder {
	return &Transcoder{engine: engine, profile: profile}
}

// Profile returns the encoding profile in use.
func (t *Transcoder) Profile() Profile {
	return t.profile
}

// Convert transcodes one video. onProgress, when set, receives fractions in
// [0,1] that never decrease within the call.
func (t *Transcoder) Convert(ctx context.Context, media domain.SelectedMedia, onProgress func(float64)) (domain.AudioArtifact, error) {
	if len(media.Data) == 0 {
		return domain.AudioArtifact{}, &ConversionError{
			Message: fmt.Sprintf("input %q is empty", media.Name),
		}
	}

	args := buildFFmpegArgs(inputName, t.profile)
	data, log, err := t.engine.Transcode(ctx, Job{
		InputName:  inputName,
		Input:      media.Data,
		OutputName: t.profile.OutputName,
		Args:       args,
		OnProgress: monotonic(onProgress),
	})
	if err != nil {
		return domain.AudioArtifact{}, &ConversionError{
			Message:    fmt.Sprintf("ffmpeg could not convert %q", media.Name),
			CommandLog: log,
			Err:        err,
		}
	}
	if len(data) == 0 {
		return domain.AudioArtifact{}, &ConversionError{
			Message:    fmt.Sprintf("ffmpeg produced no audio for %q", media.Name),
			CommandLog: log,
		}
	}

	return domain.AudioArtifact{
		Name:     t.profile.OutputName,
		MIMEType: t.profile.MIMEType,
		Data:     data,
	}, nil
}

// Close releases the engine workspace.
func (t *Transcoder) Close() error {
	return t.engine.Close()
}

// buildFFmpegArgs builds audio-only low-bitrate encode args with a
// machine-readable progress stream on stdout.
func buildFFmpegArgs(input string, profile Profile) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", input,
		"-map", "0:a",
		"-b:a", profile.Bitrate,
		"-acodec", profile.Codec,
		"-progress", "pipe:1",
		"-nostats",
		profile.OutputName,
	}
}
