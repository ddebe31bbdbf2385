package upload

import "fmt"

// UploadError reports a failed POST /videos call.
type UploadError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// Error formats upload failures for logs and UI.
func (e *UploadError) Error() string {
	return formatRequestError("upload audio", e.StatusCode, e.Message, e.Err)
}

// Unwrap exposes the transport error, if any.
func (e *UploadError) Unwrap() error { return e.Err }

// Kind names the error class for submission failures.
func (e *UploadError) Kind() string { return "UploadError" }

// TranscriptionRequestError reports a failed transcription trigger.
type TranscriptionRequestError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// Error formats transcription request failures.
func (e *TranscriptionRequestError) Error() string {
	return formatRequestError("request transcription", e.StatusCode, e.Message, e.Err)
}

// Unwrap exposes the transport error, if any.
func (e *TranscriptionRequestError) Unwrap() error { return e.Err }

// Kind names the error class for submission failures.
func (e *TranscriptionRequestError) Kind() string { return "TranscriptionRequestError" }

// NotFoundError means the server does not know the video id.
// Correct sequencing never produces it, so callers treat it as fatal.
type NotFoundError struct {
	VideoID    string `json:"videoId"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Error formats unknown-id failures.
func (e *NotFoundError) Error() string {
	return formatRequestError(fmt.Sprintf("video %q not found", e.VideoID), e.StatusCode, e.Message, nil)
}

// Kind names the error class for submission failures.
func (e *NotFoundError) Kind() string { return "NotFoundError" }

// CompletionRequestError reports a failed /ai/complete call.
type CompletionRequestError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// Error formats completion failures.
func (e *CompletionRequestError) Error() string {
	return formatRequestError("generate completion", e.StatusCode, e.Message, e.Err)
}

// Unwrap exposes the transport error, if any.
func (e *CompletionRequestError) Unwrap() error { return e.Err }

// Kind names the error class.
func (e *CompletionRequestError) Kind() string { return "CompletionRequestError" }

func formatRequestError(op string, status int, message string, err error) string {
	msg := op
	if status != 0 {
		msg += fmt.Sprintf(": http %d", status)
	}
	if message != "" {
		msg += ": " + message
	}
	if err != nil {
		msg += ": " + err.Error()
	}
	return msg
}
