package submission

import (
	"errors"
	"testing"

	"upload-ai/internal/domain"
)

// TestMachineLifecycle verifies normal progression to succeeded state.
func TestMachineLifecycle(t *testing.T) {
	m := NewMachine()
	if m.IsRunning() {
		t.Fatal("new machine should be idle")
	}

	started, err := m.Begin("clip.mp4")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if started.AttemptID != 1 || started.Status != domain.SubmissionStatusConverting {
		t.Fatalf("unexpected start: %+v", started)
	}

	for _, status := range []domain.SubmissionStatus{
		domain.SubmissionStatusUploading,
		domain.SubmissionStatusTranscribing,
		domain.SubmissionStatusSucceeded,
	} {
		if _, err := m.Transition(started.AttemptID, status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	if m.Current().Status != domain.SubmissionStatusSucceeded {
		t.Fatalf("status = %s, want succeeded", m.Current().Status)
	}
	if _, err := m.Begin("again.mp4"); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("begin after success error = %v, want ErrNotIdle", err)
	}
}

// TestMachineRejectsSkippedStates checks forward-only ordering.
func TestMachineRejectsSkippedStates(t *testing.T) {
	tests := []struct {
		name string
		from []domain.SubmissionStatus
		to   domain.SubmissionStatus
	}{
		{name: "converting to transcribing", to: domain.SubmissionStatusTranscribing},
		{name: "converting to succeeded", to: domain.SubmissionStatusSucceeded},
		{
			name: "uploading back to converting",
			from: []domain.SubmissionStatus{domain.SubmissionStatusUploading},
			to:   domain.SubmissionStatusConverting,
		},
		{
			name: "transcribing to uploading",
			from: []domain.SubmissionStatus{domain.SubmissionStatusUploading, domain.SubmissionStatusTranscribing},
			to:   domain.SubmissionStatusUploading,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			s, _ := m.Begin("clip.mp4")
			for _, status := range tt.from {
				if _, err := m.Transition(s.AttemptID, status); err != nil {
					t.Fatalf("setup transition to %s: %v", status, err)
				}
			}
			before := m.Current().Status
			if _, err := m.Transition(s.AttemptID, tt.to); err == nil {
				t.Fatalf("expected invalid transition %s -> %s", before, tt.to)
			}
			if m.Current().Status != before {
				t.Fatalf("status changed to %s after rejected transition", m.Current().Status)
			}
		})
	}
}

// TestMachineFailFromEachActiveState checks failed is reachable from every stage.
func TestMachineFailFromEachActiveState(t *testing.T) {
	paths := [][]domain.SubmissionStatus{
		nil,
		{domain.SubmissionStatusUploading},
		{domain.SubmissionStatusUploading, domain.SubmissionStatusTranscribing},
	}

	for _, path := range paths {
		m := NewMachine()
		s, _ := m.Begin("clip.mp4")
		for _, status := range path {
			_, _ = m.Transition(s.AttemptID, status)
		}
		failed, err := m.Fail(s.AttemptID, domain.Failure{Kind: "UploadError", Message: "boom"})
		if err != nil {
			t.Fatalf("fail after %v: %v", path, err)
		}
		if failed.Status != domain.SubmissionStatusFailed || failed.Failure == nil || failed.Failure.Kind != "UploadError" {
			t.Fatalf("unexpected failed state: %+v", failed)
		}
		if _, err := m.Fail(s.AttemptID, domain.Failure{Kind: "x"}); err == nil {
			t.Fatal("failing a terminal attempt should be rejected")
		}
	}
}

// TestMachineResetSupersedesAttempt verifies stale ids are rejected after reset.
func TestMachineResetSupersedesAttempt(t *testing.T) {
	m := NewMachine()
	first, _ := m.Begin("a.mp4")
	m.Reset()

	if _, err := m.Transition(first.AttemptID, domain.SubmissionStatusUploading); !errors.Is(err, ErrStaleAttempt) {
		t.Fatalf("transition error = %v, want ErrStaleAttempt", err)
	}

	second, err := m.Begin("b.mp4")
	if err != nil {
		t.Fatalf("begin second: %v", err)
	}
	if second.AttemptID <= first.AttemptID {
		t.Fatalf("attempt ids not increasing: %d then %d", first.AttemptID, second.AttemptID)
	}
	if _, err := m.Fail(first.AttemptID, domain.Failure{Kind: "ConversionError"}); !errors.Is(err, ErrStaleAttempt) {
		t.Fatalf("fail error = %v, want ErrStaleAttempt", err)
	}
	if err := m.SetVideoID(first.AttemptID, "late"); !errors.Is(err, ErrStaleAttempt) {
		t.Fatalf("set video error = %v, want ErrStaleAttempt", err)
	}
	if got := m.Current(); got.AttemptID != second.AttemptID || got.Status != domain.SubmissionStatusConverting || got.VideoID != "" {
		t.Fatalf("stale results altered state: %+v", got)
	}
}

// TestMachineProgressRoundsAndNeverDecreases checks progress bookkeeping.
func TestMachineProgressRoundsAndNeverDecreases(t *testing.T) {
	m := NewMachine()
	s, _ := m.Begin("a.mp4")

	if _, changed := m.SetProgress(s.AttemptID, 0.101); !changed {
		t.Fatal("first progress should change state")
	}
	if _, changed := m.SetProgress(s.AttemptID, 0.104); changed {
		t.Fatal("same rounded percent should not change state")
	}
	if _, changed := m.SetProgress(s.AttemptID, 0.05); changed {
		t.Fatal("lower progress should be ignored")
	}
	if got := m.Current().Progress; got != 0.1 {
		t.Fatalf("progress = %v, want 0.1", got)
	}

	_, _ = m.Transition(s.AttemptID, domain.SubmissionStatusUploading)
	if _, changed := m.SetProgress(s.AttemptID, 0.9); changed {
		t.Fatal("progress after conversion should be ignored")
	}
}
