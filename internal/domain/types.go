package domain

import "time"

// SubmissionStatus tracks each stage of a single submission attempt.
type SubmissionStatus string

const (
	SubmissionStatusIdle         SubmissionStatus = "idle"
	SubmissionStatusConverting   SubmissionStatus = "converting"
	SubmissionStatusUploading    SubmissionStatus = "uploading"
	SubmissionStatusTranscribing SubmissionStatus = "transcribing"
	SubmissionStatusSucceeded    SubmissionStatus = "succeeded"
	SubmissionStatusFailed       SubmissionStatus = "failed"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	ServerURL             string `json:"serverUrl"`
	FFmpegPath            string `json:"ffmpegPath"`
	AudioBitrate          string `json:"audioBitrate"`
	WorkspaceDir          string `json:"workspaceDir"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds"`
	LogLevel              string `json:"logLevel"`
}

// RequestTimeout returns the per-request HTTP timeout, zero meaning none.
func (s Settings) RequestTimeout() time.Duration {
	if s.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// SelectedMedia is the user's chosen video and its metadata.
type SelectedMedia struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Data     []byte `json:"-"`
}

// Clone returns a deep copy so in-flight work never shares the backing bytes.
func (m SelectedMedia) Clone() SelectedMedia {
	m.Data = append([]byte(nil), m.Data...)
	return m
}

// AudioArtifact is the transcoded audio produced for one submission attempt.
type AudioArtifact struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Failure is the reason attached to a failed submission.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Submission is a snapshot of the controller state for presentation layers.
type Submission struct {
	AttemptID uint64           `json:"attemptId"`
	Status    SubmissionStatus `json:"status"`
	MediaName string           `json:"mediaName,omitempty"`
	Progress  float64          `json:"progress"`
	VideoID   string           `json:"videoId,omitempty"`
	Failure   *Failure         `json:"failure,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// PromptTemplate is a named completion template containing a {transcription} placeholder.
type PromptTemplate struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Template string `json:"template" yaml:"template"`
}
