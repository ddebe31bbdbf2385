package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"upload-ai/internal/domain"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Client talks to the upload and transcription service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for baseURL. A zero timeout means none.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a Client using a caller-provided http.Client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the service root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type uploadResponse struct {
	Video struct {
		ID string `json:"id"`
	} `json:"video"`
}

// UploadAudio sends audio as multipart field "file" and returns the new video id.
func (c *Client) UploadAudio(ctx context.Context, audio domain.AudioArtifact) (string, error) {
	body, contentType, err := multipartAudio(audio)
	if err != nil {
		return "", &UploadError{Message: "encode multipart body", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", body)
	if err != nil {
		return "", &UploadError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", &UploadError{StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &UploadError{StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	if strings.TrimSpace(decoded.Video.ID) == "" {
		return "", &UploadError{StatusCode: resp.StatusCode, Message: "response has no video id"}
	}
	return decoded.Video.ID, nil
}

// RequestTranscription triggers server-side transcription of videoID using
// prompt as a keyword hint.
func (c *Client) RequestTranscription(ctx context.Context, videoID, prompt string) error {
	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return &TranscriptionRequestError{Message: "encode request", Err: err}
	}

	endpoint := fmt.Sprintf("%s/videos/%s/transcription", c.baseURL, url.PathEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &TranscriptionRequestError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TranscriptionRequestError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{VideoID: videoID, StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
	}
	if !isSuccess(resp.StatusCode) {
		return &TranscriptionRequestError{StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Complete runs template against the stored transcription of videoID and
// returns the provider response untouched.
func (c *Client) Complete(ctx context.Context, videoID, template string, temperature float64) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{
		"videoId":     videoID,
		"template":    template,
		"temperature": temperature,
	})
	if err != nil {
		return nil, &CompletionRequestError{Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ai/complete", bytes.NewReader(payload))
	if err != nil {
		return nil, &CompletionRequestError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &CompletionRequestError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{VideoID: videoID, StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
	}
	if !isSuccess(resp.StatusCode) {
		return nil, &CompletionRequestError{StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CompletionRequestError{StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}
	return json.RawMessage(data), nil
}

// multipartAudio encodes audio as a single "file" part with its own MIME type.
func multipartAudio(audio domain.AudioArtifact) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := audio.Name
	if name == "" {
		name = "audio.mp3"
	}
	mimeType := audio.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// serverMessage extracts "message" or "error" from a JSON error body,
// falling back to the trimmed raw body.
func serverMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return ""
	}

	var decoded struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &decoded) == nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
