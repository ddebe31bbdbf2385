package diagnostics

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"upload-ai/internal/domain"
)

const (
	IDFFmpeg    = "tool_ffmpeg"
	IDServerURL = "server_url"
	IDBitrate   = "audio_bitrate"
	IDWorkspace = "workspace_dir"
)

var reBitrate = regexp.MustCompile(`^[1-9][0-9]*k$`)

// Checker validates the transcoder binary, the upload endpoint and the
// scratch workspace.
type Checker struct {
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkFFmpeg(settings.FFmpegPath),
		checkServerURL(settings.ServerURL),
		checkBitrate(settings.AudioBitrate),
		c.checkWorkspace(settings.WorkspaceDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkFFmpeg verifies the configured transcoder is executable.
func (c *Checker) checkFFmpeg(ffmpegPath string) domain.DiagnosticItem {
	name := strings.TrimSpace(ffmpegPath)
	if name == "" {
		name = "ffmpeg"
	}

	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      IDFFmpeg,
			Name:    "ffmpeg",
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found: %s", name),
			Hint:    "Install ffmpeg or set its full path in settings. Videos cannot be converted without it.",
			Fixable: true,
		}
	}

	return domain.DiagnosticItem{
		ID:      IDFFmpeg,
		Name:    "ffmpeg",
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkServerURL requires an absolute http(s) URL.
func checkServerURL(raw string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: IDServerURL, Name: "Server URL"}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Invalid server URL: %q", raw)
		item.Hint = "Use an absolute address such as http://localhost:3333."
		item.Fixable = true
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Uploading to %s", u.String())
	return item
}

// checkBitrate accepts ffmpeg kilobit values such as 20k.
func checkBitrate(bitrate string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: IDBitrate, Name: "Audio bitrate"}
	if !reBitrate.MatchString(strings.TrimSpace(bitrate)) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unsupported bitrate: %q", bitrate)
		item.Hint = "Use a kilobit value like 20k or 32k."
		item.Fixable = true
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Encoding audio at %s", bitrate)
	return item
}

// checkWorkspace validates workspace existence and write access.
func (c *Checker) checkWorkspace(dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: IDWorkspace, Name: "Workspace directory"}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Workspace directory is empty."
		item.Hint = "Set a directory for temporary conversion files."
		item.Fixable = true
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create workspace directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Workspace directory is not writable: %s", dir)
		item.Hint = "Choose a writable directory for temporary conversion files."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
