package submission

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"upload-ai/internal/domain"
)

// ErrNotIdle is returned when a submit arrives while an attempt is active or
// has not been reset yet.
var ErrNotIdle = errors.New("submission is not idle")

// ErrStaleAttempt is returned when a result belongs to a superseded attempt.
var ErrStaleAttempt = errors.New("stale submission attempt")

// Machine owns the status of the current attempt and the attempt counter.
// Every mutation after Begin is keyed by attempt id, so results from a
// superseded attempt can never change the visible state.
type Machine struct {
	mu          sync.RWMutex
	lastAttempt uint64
	current     domain.Submission
	now         func() time.Time
}

// NewMachine creates a machine in idle state.
func NewMachine() *Machine {
	m := &Machine{now: time.Now}
	m.current = domain.Submission{Status: domain.SubmissionStatusIdle, UpdatedAt: m.now().UTC()}
	return m
}

// Begin starts a new attempt for mediaName and moves it to converting.
func (m *Machine) Begin(mediaName string) (domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status != domain.SubmissionStatusIdle {
		return m.current, ErrNotIdle
	}

	m.lastAttempt++
	m.current = domain.Submission{
		AttemptID: m.lastAttempt,
		Status:    domain.SubmissionStatusConverting,
		MediaName: mediaName,
		UpdatedAt: m.now().UTC(),
	}
	return m.current, nil
}

// Transition validates and applies a status change for attemptID.
func (m *Machine) Transition(attemptID uint64, status domain.SubmissionStatus) (domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkAttempt(attemptID); err != nil {
		return m.current, err
	}
	if status == domain.SubmissionStatusFailed {
		return m.current, fmt.Errorf("use Fail to enter %s", status)
	}
	if !isValidTransition(m.current.Status, status) {
		return m.current, fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	m.current.UpdatedAt = m.now().UTC()
	return m.current, nil
}

// Fail moves attemptID to failed with the given reason.
func (m *Machine) Fail(attemptID uint64, failure domain.Failure) (domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkAttempt(attemptID); err != nil {
		return m.current, err
	}
	if !isValidTransition(m.current.Status, domain.SubmissionStatusFailed) {
		return m.current, fmt.Errorf("invalid transition: %s -> %s", m.current.Status, domain.SubmissionStatusFailed)
	}

	m.current.Status = domain.SubmissionStatusFailed
	m.current.Failure = &failure
	m.current.UpdatedAt = m.now().UTC()
	return m.current, nil
}

// SetVideoID records the id returned by the upload for attemptID.
func (m *Machine) SetVideoID(attemptID uint64, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkAttempt(attemptID); err != nil {
		return err
	}
	m.current.VideoID = videoID
	return nil
}

// SetProgress stores the conversion fraction rounded to whole percent and
// reports whether the stored value changed.
func (m *Machine) SetProgress(attemptID uint64, fraction float64) (domain.Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.checkAttempt(attemptID) != nil || m.current.Status != domain.SubmissionStatusConverting {
		return m.current, false
	}

	rounded := math.Round(fraction*100) / 100
	if rounded <= m.current.Progress {
		return m.current, false
	}
	m.current.Progress = rounded
	m.current.UpdatedAt = m.now().UTC()
	return m.current, true
}

// Current returns a snapshot of the current attempt.
func (m *Machine) Current() domain.Submission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsRunning reports whether an attempt is converting, uploading or transcribing.
func (m *Machine) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.current.Status)
}

// Reset returns the machine to idle. Any active attempt is superseded and
// its later results are rejected with ErrStaleAttempt.
func (m *Machine) Reset() domain.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Submission{Status: domain.SubmissionStatusIdle, UpdatedAt: m.now().UTC()}
	return m.current
}

func (m *Machine) checkAttempt(attemptID uint64) error {
	if attemptID == 0 || attemptID != m.current.AttemptID {
		return ErrStaleAttempt
	}
	return nil
}

// isRunning checks if a status represents an active stage.
func isRunning(status domain.SubmissionStatus) bool {
	switch status {
	case domain.SubmissionStatusConverting, domain.SubmissionStatusUploading, domain.SubmissionStatusTranscribing:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the forward-only submission edges.
func isValidTransition(from, to domain.SubmissionStatus) bool {
	switch from {
	case domain.SubmissionStatusIdle:
		return to == domain.SubmissionStatusConverting
	case domain.SubmissionStatusConverting:
		return to == domain.SubmissionStatusUploading || to == domain.SubmissionStatusFailed
	case domain.SubmissionStatusUploading:
		return to == domain.SubmissionStatusTranscribing || to == domain.SubmissionStatusFailed
	case domain.SubmissionStatusTranscribing:
		return to == domain.SubmissionStatusSucceeded || to == domain.SubmissionStatusFailed
	case domain.SubmissionStatusSucceeded, domain.SubmissionStatusFailed:
		return to == domain.SubmissionStatusIdle
	default:
		return false
	}
}
