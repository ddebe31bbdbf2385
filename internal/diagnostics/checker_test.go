package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"upload-ai/internal/domain"
)

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	workspace := filepath.Join(t.TempDir(), "workspace")
	var looked string
	checker := NewCheckerForTests(
		func(name string) (string, error) {
			looked = name
			return "/usr/local/bin/" + name, nil
		},
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		ServerURL:    "http://localhost:3333",
		FFmpegPath:   "/opt/ffmpeg/bin/ffmpeg",
		AudioBitrate: "20k",
		WorkspaceDir: workspace,
	})

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	if looked != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("looked up %q, want configured ffmpeg path", looked)
	}
	entries, err := os.ReadDir(workspace)
	if err != nil {
		t.Fatalf("workspace not created: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("write check left files behind: %v", entries)
	}
}

// TestCheckerRunReportsEveryFailure validates failure reporting.
func TestCheckerRunReportsEveryFailure(t *testing.T) {
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		ServerURL:    "localhost:3333",
		AudioBitrate: "20 kbps",
	})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}
	assertStatusByID(t, report, IDFFmpeg, domain.DiagnosticStatusFail)
	assertStatusByID(t, report, IDServerURL, domain.DiagnosticStatusFail)
	assertStatusByID(t, report, IDBitrate, domain.DiagnosticStatusFail)
	assertStatusByID(t, report, IDWorkspace, domain.DiagnosticStatusFail)

	for _, item := range report.Items {
		if !item.Fixable {
			t.Fatalf("item %s should be fixable", item.ID)
		}
	}
}

// TestCheckerWorkspaceNotWritable validates the write probe.
func TestCheckerWorkspaceNotWritable(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return name, nil },
		func(string, os.FileMode) error { return nil },
		func(string, string) (*os.File, error) { return nil, os.ErrPermission },
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		ServerURL:    "https://api.example.com",
		AudioBitrate: "32k",
		WorkspaceDir: "/readonly",
	})

	assertStatusByID(t, report, IDServerURL, domain.DiagnosticStatusPass)
	assertStatusByID(t, report, IDWorkspace, domain.DiagnosticStatusFail)
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
