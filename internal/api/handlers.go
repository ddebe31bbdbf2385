package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"upload-ai/internal/domain"
	"upload-ai/internal/prompt"
)

const (
	msgMissingFile     = "Missing file input."
	msgInvalidType     = "Invalid input type, please upload a MP3."
	msgVideoNotFound   = "Video not found."
	msgNoTranscription = "Video transcription was not generated yet."
	defaultTemperature = 0.5
	defaultAudioMIME   = "audio/mpeg"
)

var allowedExtensions = []string{".mp3"}

type errorResponse struct {
	Error string `json:"error"`
}

type transcriptionRequest struct {
	Prompt string `json:"prompt"`
}

type completionRequest struct {
	VideoID     string   `json:"videoId"`
	Template    *string  `json:"template"`
	Temperature *float64 `json:"temperature"`
}

// listPrompts returns the prompt template catalog.
func (s *Server) listPrompts(c echo.Context) error {
	return c.JSON(http.StatusOK, s.catalog.List())
}

// uploadVideo stores one MP3 upload under a new id.
func (s *Server) uploadVideo(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msgMissingFile})
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !lo.Contains(allowedExtensions, ext) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidType})
	}
	if header.Size > s.maxBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("File is larger than %d MB.", s.maxBytes>>20),
		})
	}

	data, err := readPart(header)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = defaultAudioMIME
	}

	video, err := s.repo.Create(c.Request().Context(), header.Filename, mimeType, data)
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}

	s.logger.Info(c.Request().Context(), "Stored video %s (%s, %d bytes)", video.ID, video.Name, video.Size)
	return c.JSON(http.StatusOK, map[string]any{"video": video})
}

// createTranscription runs speech-to-text on a stored upload.
func (s *Server) createTranscription(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "videoId must be a valid UUID."})
	}

	var req transcriptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body."})
	}

	ctx := c.Request().Context()
	video, data, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrVideoNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgVideoNotFound})
	}
	if err != nil {
		return err
	}

	text, err := s.transcriber.Transcribe(ctx, domain.AudioArtifact{
		Name:     video.Name,
		MIMEType: video.MIMEType,
		Data:     data,
	}, req.Prompt)
	if err != nil {
		s.logger.Error(ctx, "Transcription of %s failed: %v", id, err)
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "Transcription provider failed."})
	}

	if _, err := s.repo.SetTranscription(ctx, id, text); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"transcription": text})
}

// completeAI substitutes the stored transcription into the template and
// returns the provider response untouched.
func (s *Server) completeAI(c echo.Context) error {
	var req completionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body."})
	}
	if msg := validateCompletion(req); msg != "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
	}
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	ctx := c.Request().Context()
	video, _, err := s.repo.Get(ctx, req.VideoID)
	if errors.Is(err, ErrVideoNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgVideoNotFound})
	}
	if err != nil {
		return err
	}
	if video.Transcription == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msgNoTranscription})
	}

	resp, err := s.completer.Complete(ctx, prompt.Render(*req.Template, video.Transcription), float32(temperature))
	if err != nil {
		s.logger.Error(ctx, "Completion for %s failed: %v", req.VideoID, err)
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "Completion provider failed."})
	}
	return c.JSON(http.StatusOK, resp)
}

// validateCompletion returns a user-facing message for an invalid body.
func validateCompletion(req completionRequest) string {
	if _, err := uuid.Parse(req.VideoID); err != nil {
		return "videoId must be a valid UUID."
	}
	if req.Template == nil {
		return "template is required."
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 1) {
		return "temperature must be between 0 and 1."
	}
	return ""
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
