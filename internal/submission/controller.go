package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"upload-ai/internal/domain"
	"upload-ai/internal/events"
	"upload-ai/internal/logger"
	"upload-ai/internal/transcode"
)

// MaxPromptLength bounds the keyword prompt in characters.
const MaxPromptLength = 2000

// Transcoder converts a selected video into the upload audio artifact.
type Transcoder interface {
	Convert(ctx context.Context, media domain.SelectedMedia, onProgress func(float64)) (domain.AudioArtifact, error)
}

// Uploader performs the two network stages of a submission.
type Uploader interface {
	UploadAudio(ctx context.Context, audio domain.AudioArtifact) (string, error)
	RequestTranscription(ctx context.Context, videoID, prompt string) error
}

// Controller sequences conversion, upload and transcription request for the
// selected video and publishes every state change.
type Controller struct {
	transcoder Transcoder
	uploader   Uploader
	events     events.Publisher
	log        logger.Logger
	machine    *Machine

	mu      sync.Mutex
	media   *domain.SelectedMedia
	cancel  context.CancelFunc
	running map[uint64]chan struct{}
}

// NewController wires the stage collaborators. publisher and log may be nil.
func NewController(transcoder Transcoder, uploader Uploader, publisher events.Publisher, log logger.Logger) *Controller {
	if publisher == nil {
		publisher = events.NewBus(0)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		transcoder: transcoder,
		uploader:   uploader,
		events:     publisher,
		log:        log,
		machine:    NewMachine(),
		running:    make(map[uint64]chan struct{}),
	}
}

// SelectMedia replaces the selected video. A finished or in-flight attempt is
// superseded and the controller returns to idle.
func (c *Controller) SelectMedia(media domain.SelectedMedia) domain.Submission {
	c.mu.Lock()
	c.media = &media
	c.mu.Unlock()

	if c.machine.Current().Status == domain.SubmissionStatusIdle {
		return c.machine.Current()
	}
	return c.StartNew()
}

// SelectedMedia returns the current selection without its bytes.
func (c *Controller) SelectedMedia() (domain.SelectedMedia, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.media == nil {
		return domain.SelectedMedia{}, false
	}
	meta := *c.media
	meta.Data = nil
	return meta, true
}

// Submit starts a new attempt on a snapshot of the selected video. It returns
// ErrNotIdle while an attempt is active or unreset, and a *ValidationError
// when no video is selected or the prompt is malformed.
func (c *Controller) Submit(prompt string) (domain.Submission, error) {
	if c.machine.Current().Status != domain.SubmissionStatusIdle {
		return c.machine.Current(), ErrNotIdle
	}
	if err := validatePrompt(prompt); err != nil {
		return c.machine.Current(), err
	}

	c.mu.Lock()
	if c.media == nil {
		c.mu.Unlock()
		return c.machine.Current(), &ValidationError{Field: "media", Message: ErrNoMedia.Error(), Err: ErrNoMedia}
	}
	snapshot := c.media.Clone()

	started, err := c.machine.Begin(snapshot.Name)
	if err != nil {
		c.mu.Unlock()
		return started, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.running[started.AttemptID] = done
	c.mu.Unlock()

	c.log.Info(ctx, "submission %d: converting %s (%d bytes)", started.AttemptID, snapshot.Name, len(snapshot.Data))
	c.publishStatus(started, "Converting video to audio")

	go c.run(ctx, started.AttemptID, snapshot, prompt, done)
	return started, nil
}

// StartNew supersedes the current attempt, cancels its in-flight work and
// returns the controller to idle. The selected video is kept.
func (c *Controller) StartNew() domain.Submission {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	previous := c.machine.Current()
	reset := c.machine.Reset()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if previous.Status != domain.SubmissionStatusIdle {
		c.log.Debug(context.Background(), "submission %d superseded in state %s", previous.AttemptID, previous.Status)
		c.publishStatus(reset, "Ready for a new submission")
	}
	return reset
}

// Current returns a snapshot of the current attempt.
func (c *Controller) Current() domain.Submission {
	return c.machine.Current()
}

// CanSubmit reports whether a submit would be accepted right now.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	hasMedia := c.media != nil
	c.mu.Unlock()
	return hasMedia && c.machine.Current().Status == domain.SubmissionStatusIdle
}

// Wait blocks until the goroutine of attemptID has returned or ctx ends.
func (c *Controller) Wait(ctx context.Context, attemptID uint64) (domain.Submission, error) {
	c.mu.Lock()
	done, ok := c.running[attemptID]
	c.mu.Unlock()

	if ok {
		select {
		case <-done:
		case <-ctx.Done():
			return c.machine.Current(), ctx.Err()
		}
	}
	return c.machine.Current(), nil
}

// SubmitAndWait selects media, submits it and blocks until the attempt is
// terminal. The controller is left in that terminal state.
func (c *Controller) SubmitAndWait(ctx context.Context, media domain.SelectedMedia, prompt string) (domain.Submission, error) {
	c.SelectMedia(media)
	started, err := c.Submit(prompt)
	if err != nil {
		return started, err
	}
	return c.Wait(ctx, started.AttemptID)
}

// Close cancels any in-flight attempt.
func (c *Controller) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// run executes the stages of one attempt strictly in order.
func (c *Controller) run(ctx context.Context, attemptID uint64, media domain.SelectedMedia, prompt string, done chan struct{}) {
	defer c.finish(attemptID, done)

	audio, err := c.transcoder.Convert(ctx, media, func(fraction float64) {
		if current, changed := c.machine.SetProgress(attemptID, fraction); changed {
			c.events.Publish(events.Event{
				AttemptID: attemptID,
				Type:      events.TypeProgress,
				Status:    current.Status,
				Progress:  current.Progress,
			})
		}
	})
	if err != nil {
		c.fail(ctx, attemptID, err)
		return
	}
	if !c.advance(ctx, attemptID, domain.SubmissionStatusUploading, "Uploading audio") {
		return
	}

	videoID, err := c.uploader.UploadAudio(ctx, audio)
	audio = domain.AudioArtifact{}
	if err != nil {
		c.fail(ctx, attemptID, err)
		return
	}
	if err := c.machine.SetVideoID(attemptID, videoID); err != nil {
		c.discard(ctx, attemptID, "upload")
		return
	}
	if !c.advance(ctx, attemptID, domain.SubmissionStatusTranscribing, "Requesting transcription") {
		return
	}

	if err := c.uploader.RequestTranscription(ctx, videoID, prompt); err != nil {
		c.fail(ctx, attemptID, err)
		return
	}
	if !c.advance(ctx, attemptID, domain.SubmissionStatusSucceeded, "Transcription generated") {
		return
	}

	c.events.Publish(events.Event{
		AttemptID: attemptID,
		Type:      events.TypeResult,
		Status:    domain.SubmissionStatusSucceeded,
		VideoID:   videoID,
		Message:   "Video uploaded and transcribed",
	})
	c.log.Info(ctx, "submission %d: succeeded with video %s", attemptID, videoID)
}

// advance moves attemptID forward and reports whether the next stage may run.
func (c *Controller) advance(ctx context.Context, attemptID uint64, status domain.SubmissionStatus, message string) bool {
	current, err := c.machine.Transition(attemptID, status)
	if errors.Is(err, ErrStaleAttempt) {
		c.discard(ctx, attemptID, string(status))
		return false
	}
	if err != nil {
		c.log.Error(ctx, "submission %d: %v", attemptID, err)
		return false
	}
	c.publishStatus(current, message)
	return true
}

// fail maps a stage error to failed(reason) unless the attempt was superseded.
func (c *Controller) fail(ctx context.Context, attemptID uint64, err error) {
	failure := domain.Failure{Kind: errorKind(err), Message: err.Error()}
	current, failErr := c.machine.Fail(attemptID, failure)
	if errors.Is(failErr, ErrStaleAttempt) {
		c.discard(ctx, attemptID, "failure")
		return
	}
	if failErr != nil {
		c.log.Error(ctx, "submission %d: %v", attemptID, failErr)
		return
	}

	c.log.Warn(ctx, "submission %d failed: %s", attemptID, failure.Message)
	c.publishStatus(current, "Submission failed")
	c.events.Publish(events.Event{
		AttemptID: attemptID,
		Type:      events.TypeError,
		Status:    domain.SubmissionStatusFailed,
		Failure:   &failure,
		Message:   failure.Message,
	})

	var convErr *transcode.ConversionError
	if errors.As(err, &convErr) && convErr.CommandLog.Command != "" {
		c.events.Publish(events.Event{
			AttemptID: attemptID,
			Type:      events.TypeLog,
			Message:   "Failed command",
			Command:   convErr.CommandLog.Command,
			Args:      convErr.CommandLog.Args,
			ExitCode:  convErr.CommandLog.ExitCode,
			Stderr:    convErr.CommandLog.Stderr,
		})
	}
}

// discard drops the result of a superseded attempt.
func (c *Controller) discard(ctx context.Context, attemptID uint64, stage string) {
	c.log.Debug(ctx, "submission %d: discarding stale %s result", attemptID, stage)
}

// finish releases the attempt's cancel handle and wakes waiters.
func (c *Controller) finish(attemptID uint64, done chan struct{}) {
	c.mu.Lock()
	delete(c.running, attemptID)
	if c.machine.Current().AttemptID == attemptID && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	close(done)
}

// publishStatus sends a normalized status event.
func (c *Controller) publishStatus(s domain.Submission, message string) {
	c.events.Publish(events.Event{
		AttemptID: s.AttemptID,
		Type:      events.TypeStatus,
		Status:    s.Status,
		Progress:  s.Progress,
		Failure:   s.Failure,
		VideoID:   s.VideoID,
		Message:   message,
	})
}

// validatePrompt rejects prompts that cannot be sent as JSON text.
func validatePrompt(prompt string) error {
	if !utf8.ValidString(prompt) {
		return &ValidationError{Field: "prompt", Message: "prompt is not valid UTF-8"}
	}
	if strings.ContainsRune(prompt, 0) {
		return &ValidationError{Field: "prompt", Message: "prompt contains a NUL character"}
	}
	if n := utf8.RuneCountInString(prompt); n > MaxPromptLength {
		return &ValidationError{Field: "prompt", Message: fmt.Sprintf("prompt has %d characters, limit is %d", n, MaxPromptLength)}
	}
	return nil
}
