package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"upload-ai/internal/config"
	"upload-ai/internal/domain"
	"upload-ai/internal/events"
	"upload-ai/internal/logger"
	"upload-ai/internal/submission"
	"upload-ai/internal/transcode"
	"upload-ai/internal/upload"
	"upload-ai/internal/watcher"
)

func main() {
	dir := flag.String("dir", ".", "directory to watch for new .mp4 files")
	promptText := flag.String("prompt", "", "keywords mentioned in the videos, comma separated")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	settings, err := config.NewJSONStore(config.DefaultStorePath()).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}
	if url := os.Getenv("UPLOAD_AI_SERVER_URL"); url != "" {
		settings.ServerURL = url
	}

	log := logger.New("watch", settings.LogLevel)

	engine := transcode.NewFFmpegEngine(settings.FFmpegPath, settings.WorkspaceDir)
	tc := transcode.New(engine, transcode.DefaultProfile().WithBitrate(settings.AudioBitrate))
	defer tc.Close()

	bus := events.NewBus(200)
	bus.Listen(func(e events.Event) {
		switch e.Type {
		case events.TypeStatus:
			log.Info(ctx, "[attempt %d] %s: %s", e.AttemptID, e.Status, e.Message)
		case events.TypeProgress:
			log.Debug(ctx, "[attempt %d] converting %.0f%%", e.AttemptID, e.Progress*100)
		case events.TypeLog:
			log.Debug(ctx, "[attempt %d] %s %v exit=%d", e.AttemptID, e.Command, e.Args, e.ExitCode)
		}
	})

	client := upload.NewClient(settings.ServerURL, settings.RequestTimeout())
	controller := submission.NewController(tc, client, bus, log)
	defer controller.Close()

	handler := func(ctx context.Context, path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "video/mp4"
		}

		final, err := controller.SubmitAndWait(ctx, domain.SelectedMedia{
			Name:     filepath.Base(path),
			MIMEType: mimeType,
			Size:     int64(len(data)),
			Data:     data,
		}, *promptText)
		if err != nil {
			return err
		}
		if final.Status == domain.SubmissionStatusFailed && final.Failure != nil {
			return fmt.Errorf("%s: %s", final.Failure.Kind, final.Failure.Message)
		}
		log.Info(ctx, "[DONE] %s -> video %s", path, final.VideoID)
		return nil
	}

	w, err := watcher.New(*dir, handler, log, watcher.Options{})
	if err != nil {
		log.Error(ctx, "Failed to create watcher: %v", err)
		os.Exit(1)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	log.Info(ctx, "Uploading to %s. Press Ctrl+C to stop", settings.ServerURL)

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Watcher error: %v", err)
	}
	cancel()
}
