package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"upload-ai/internal/config"
	"upload-ai/internal/diagnostics"
	"upload-ai/internal/domain"
)

// TestInstallOrFixWorkspaceCreatesDirectory ensures the workspace fix creates missing directories.
func TestInstallOrFixWorkspaceCreatesDirectory(t *testing.T) {
	workspace := filepath.Join(t.TempDir(), "nested", "workspace")

	fixed, changed, err := installOrFixWorkspace(domain.Settings{WorkspaceDir: workspace})
	if err != nil {
		t.Fatalf("fix workspace: %v", err)
	}
	if changed {
		t.Fatal("expected settings to remain unchanged")
	}
	if fixed.WorkspaceDir != workspace {
		t.Fatalf("WorkspaceDir = %s, want %s", fixed.WorkspaceDir, workspace)
	}
	if _, err := os.Stat(workspace); err != nil {
		t.Fatalf("stat workspace: %v", err)
	}
}

// TestInstallOrFixDiagnosticResetsSettings checks settings-only remediations persist and apply.
func TestInstallOrFixDiagnosticResetsSettings(t *testing.T) {
	cases := []struct {
		id    string
		edit  func(*domain.Settings)
		check func(domain.Settings) bool
	}{
		{
			id:    diagnostics.IDServerURL,
			edit:  func(s *domain.Settings) { s.ServerURL = "localhost:3333" },
			check: func(s domain.Settings) bool { return s.ServerURL == config.DefaultServerURL },
		},
		{
			id:    diagnostics.IDBitrate,
			edit:  func(s *domain.Settings) { s.AudioBitrate = "loud" },
			check: func(s domain.Settings) bool { return s.AudioBitrate == config.DefaultAudioBitrate },
		},
	}

	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			app := newTestApp(t)
			app.checker = diagnostics.NewCheckerForTests(
				func(name string) (string, error) { return name, nil },
				os.MkdirAll,
				os.CreateTemp,
				os.Remove,
			)
			tc.edit(&app.store.settings)

			report, err := app.InstallOrFixDiagnostic(tc.id)
			if err != nil {
				t.Fatalf("fix %s: %v", tc.id, err)
			}
			if !tc.check(app.store.settings) {
				t.Fatalf("stored settings not fixed: %+v", app.store.settings)
			}
			if report.HasFailures {
				t.Fatalf("report still failing: %+v", report.Items)
			}
			if len(app.converters) != 2 {
				t.Fatalf("backend should be rebuilt after a settings fix, converters = %d", len(app.converters))
			}
		})
	}
}

// TestInstallOrFixDiagnosticRefusesWhileSubmitting checks no remediation runs during an attempt.
func TestInstallOrFixDiagnosticRefusesWhileSubmitting(t *testing.T) {
	app := newTestApp(t)
	started := make(chan struct{})
	app.converters[0].convert = func(ctx context.Context, media domain.SelectedMedia, onProgress func(float64)) (domain.AudioArtifact, error) {
		close(started)
		<-ctx.Done()
		return domain.AudioArtifact{}, ctx.Err()
	}
	workspace := filepath.Join(t.TempDir(), "missing")
	app.store.settings.WorkspaceDir = workspace

	if _, err := app.SelectVideo(writeVideo(t, "clip.mp4", "v")); err != nil {
		t.Fatalf("select video: %v", err)
	}
	if _, err := app.Submit(""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-started

	for _, id := range []string{diagnostics.IDWorkspace, diagnostics.IDFFmpeg} {
		if _, err := app.InstallOrFixDiagnostic(id); !errors.Is(err, ErrSubmissionActive) {
			t.Fatalf("fix %s error = %v, want %v", id, err, ErrSubmissionActive)
		}
	}
	if _, err := os.Stat(workspace); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("workspace should not be created during a submission, stat err = %v", err)
	}
	if app.store.saves != 0 {
		t.Fatal("settings should not be saved during a submission")
	}

	app.StartNewSubmission()
	waitForStatus(t, app.App, domain.SubmissionStatusIdle)
}

// TestInstallOrFixDiagnosticRejectsUnknownID ensures unsupported items return an error.
func TestInstallOrFixDiagnosticRejectsUnknownID(t *testing.T) {
	app := newTestApp(t)
	if _, err := app.InstallOrFixDiagnostic("model_path"); err == nil {
		t.Fatal("expected error for unsupported item")
	}
	if _, err := app.InstallOrFixDiagnostic("  "); err == nil {
		t.Fatal("expected error for empty item id")
	}
}

// TestFFmpegInstallOptionsPerOS ensures each platform has at least one package manager.
func TestFFmpegInstallOptionsPerOS(t *testing.T) {
	for _, goos := range []string{"windows", "darwin", "linux"} {
		options := ffmpegInstallOptions(goos)
		if len(options) == 0 {
			t.Fatalf("%s: no install options", goos)
		}
		for _, option := range options {
			if len(option.commands) == 0 {
				t.Fatalf("%s/%s: no commands", goos, option.manager)
			}
		}
	}
	if ffmpegInstallOptions("linux")[0].manager != "apt-get" {
		t.Fatal("apt-get should be tried first on linux")
	}
}

// TestRequiresElevation checks which managers are retried through pkexec or sudo.
func TestRequiresElevation(t *testing.T) {
	for manager, want := range map[string]bool{
		"apt-get": true,
		"dnf":     true,
		"pacman":  true,
		"zypper":  true,
		"brew":    false,
		"winget":  false,
	} {
		if got := requiresElevation(manager); got != want {
			t.Fatalf("requiresElevation(%s) = %v, want %v", manager, got, want)
		}
	}
}

// TestFormatCommand checks command rendering used in install errors.
func TestFormatCommand(t *testing.T) {
	if got := formatCommand("apt-get", []string{"install", "-y", "ffmpeg"}); got != "apt-get install -y ffmpeg" {
		t.Fatalf("formatCommand = %q", got)
	}
}
