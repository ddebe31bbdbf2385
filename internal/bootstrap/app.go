package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"upload-ai/internal/config"
	"upload-ai/internal/diagnostics"
	"upload-ai/internal/domain"
	"upload-ai/internal/events"
	"upload-ai/internal/logger"
	"upload-ai/internal/preview"
	"upload-ai/internal/prompt"
	"upload-ai/internal/submission"
	"upload-ai/internal/transcode"
	"upload-ai/internal/upload"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// EventName is the runtime event carrying every submission event to the webview.
const EventName = "submission:event"

var videoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "MP4 video",
		Pattern:     "*.mp4",
	},
}

// ErrSubmissionActive is returned when settings change while an attempt is in flight.
var ErrSubmissionActive = errors.New("a submission is in progress")

// ErrNoTranscribedVideo is returned by GenerateCompletion before a submission succeeded.
var ErrNoTranscribedVideo = errors.New("no transcribed video yet")

// converter is the settings-bound transcoder.
type converter interface {
	Convert(ctx context.Context, media domain.SelectedMedia, onProgress func(float64)) (domain.AudioArtifact, error)
	Close() error
}

// remote is the settings-bound client for the companion API.
type remote interface {
	UploadAudio(ctx context.Context, audio domain.AudioArtifact) (string, error)
	RequestTranscription(ctx context.Context, videoID, prompt string) error
	Complete(ctx context.Context, videoID, template string, temperature float64) (json.RawMessage, error)
}

// App wires configuration, the submission controller, the preview slot and
// UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker
	log         logger.Logger

	controller *submission.Controller
	preview    *preview.Manager
	catalog    *prompt.Catalog
	events     *events.Bus
	backend    *backend

	newConverter func(domain.Settings) converter
	newRemote    func(domain.Settings) remote

	// swapMu orders Submit against settings changes so an attempt never
	// starts on a transcoder that is about to be closed.
	swapMu sync.Mutex

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	store := config.NewJSONStore(config.DefaultStorePath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	app := newApp(
		settings,
		store,
		diagnostics.NewChecker(),
		logger.New("app", settings.LogLevel),
		buildTranscoder,
		buildClient,
	)
	app.assets = assets
	return app, nil
}

// newApp assembles the App around injectable transcoder and client factories.
func newApp(
	settings domain.Settings,
	store config.Store,
	checker *diagnostics.Checker,
	log logger.Logger,
	newConverter func(domain.Settings) converter,
	newRemote func(domain.Settings) remote,
) *App {
	if log == nil {
		log = logger.Nop()
	}

	a := &App{
		Settings:     settings,
		Store:        store,
		checker:      checker,
		log:          log,
		preview:      preview.NewManager(),
		catalog:      prompt.NewCatalog(),
		events:       events.NewBus(1000),
		backend:      &backend{transcoder: newConverter(settings), client: newRemote(settings)},
		newConverter: newConverter,
		newRemote:    newRemote,
	}
	if checker != nil {
		a.Diagnostics = checker.Run(settings)
	}

	a.events.Listen(a.emit)
	a.controller = submission.NewController(a.backend, a.backend, a.events, log)
	return a
}

func buildTranscoder(settings domain.Settings) converter {
	engine := transcode.NewFFmpegEngine(settings.FFmpegPath, settings.WorkspaceDir)
	return transcode.New(engine, transcode.DefaultProfile().WithBitrate(settings.AudioBitrate))
}

func buildClient(settings domain.Settings) remote {
	return upload.NewClient(settings.ServerURL, settings.RequestTimeout())
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	return wails.Run(&options.App{
		Title:  "upload.ai",
		Width:  1180,
		Height: 780,
		AssetServer: &assetserver.Options{
			Assets:  a.assets,
			Handler: a.assetHandler(),
		},
		OnStartup:  a.Startup,
		OnShutdown: a.Shutdown,
		Bind:       []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown revokes the preview, cancels any attempt and closes the transcoder.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = nil
	a.mu.Unlock()

	a.preview.Teardown()
	a.controller.Close()
	if err := a.backend.close(); err != nil {
		a.log.Warn(ctx, "close transcoder: %v", err)
	}
}

// assetHandler serves preview bytes; everything else comes from the frontend.
func (a *App) assetHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(preview.PathPrefix, a.preview)
	if a.assets == nil {
		mux.Handle("/", http.FileServer(http.Dir("./frontend")))
	}
	return mux
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, rebuilds the transcoder and
// client, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	a.swapMu.Lock()
	defer a.swapMu.Unlock()

	if inFlight(a.controller.Current().Status) {
		return domain.Settings{}, ErrSubmissionActive
	}

	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.applySettings(normalized)
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(settings), nil
}

// PickVideoFile opens a native file dialog restricted to mp4 videos.
func (a *App) PickVideoFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select video",
		Filters: videoDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// SelectVideo reads an mp4 file, hands it to the controller and returns a
// fresh preview handle. Any previous handle is revoked.
func (a *App) SelectVideo(path string) (preview.Handle, error) {
	path = strings.TrimSpace(path)
	if !strings.EqualFold(filepath.Ext(path), ".mp4") {
		return preview.Handle{}, fmt.Errorf("only mp4 videos are supported: %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return preview.Handle{}, fmt.Errorf("read video: %w", err)
	}

	media := domain.SelectedMedia{
		Name:     filepath.Base(path),
		MIMEType: "video/mp4",
		Size:     int64(len(data)),
		Data:     data,
	}
	a.controller.SelectMedia(media)
	return a.preview.SetMedia(media), nil
}

// Submit starts an attempt for the selected video with the keyword prompt.
func (a *App) Submit(prompt string) (domain.Submission, error) {
	a.swapMu.Lock()
	defer a.swapMu.Unlock()
	return a.controller.Submit(prompt)
}

// StartNewSubmission abandons the current attempt and returns to idle.
func (a *App) StartNewSubmission() domain.Submission {
	return a.controller.StartNew()
}

// CurrentSubmission returns the controller state.
func (a *App) CurrentSubmission() domain.Submission {
	return a.controller.Current()
}

// CanSubmit reports whether the submit button should be enabled.
func (a *App) CanSubmit() bool {
	return a.controller.CanSubmit()
}

// SubmissionEvents returns all events with sequence greater than sinceSeq.
func (a *App) SubmissionEvents(sinceSeq int64) []events.Event {
	return a.events.Since(sinceSeq)
}

// ListPromptTemplates returns the built-in completion templates.
func (a *App) ListPromptTemplates() []domain.PromptTemplate {
	return a.catalog.List()
}

// GenerateCompletion runs a template against the transcription of the last
// successful submission. template is either a catalog id or literal text.
func (a *App) GenerateCompletion(template string, temperature float64) (json.RawMessage, error) {
	current := a.controller.Current()
	if current.Status != domain.SubmissionStatusSucceeded || current.VideoID == "" {
		return nil, ErrNoTranscribedVideo
	}

	text := template
	if found, ok := a.catalog.Find(strings.TrimSpace(template)); ok {
		text = found.Template
	}

	ctx := context.Background()
	a.mu.Lock()
	timeout := a.Settings.RequestTimeout()
	a.mu.Unlock()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := a.backend.complete(ctx, current.VideoID, text, temperature)
	if err != nil {
		a.log.Warn(ctx, "completion for video %s failed: %v", current.VideoID, err)
		return nil, err
	}
	return out, nil
}

// applySettings swaps in a transcoder and client built from settings and
// reruns diagnostics. Callers hold swapMu.
func (a *App) applySettings(settings domain.Settings) {
	old := a.backend.swap(a.newConverter(settings), a.newRemote(settings))
	if old != nil {
		if err := old.Close(); err != nil {
			a.log.Warn(context.Background(), "close previous transcoder: %v", err)
		}
	}
	a.refreshDiagnosticsFromSettings(settings)
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// emit forwards bus events to the webview when the runtime is up.
func (a *App) emit(event events.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, EventName, event)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and fills defaults.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.ServerURL = strings.TrimRight(strings.TrimSpace(settings.ServerURL), "/")
	settings.FFmpegPath = strings.TrimSpace(settings.FFmpegPath)
	settings.AudioBitrate = strings.ToLower(strings.TrimSpace(settings.AudioBitrate))
	settings.WorkspaceDir = strings.TrimSpace(settings.WorkspaceDir)
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))
	if settings.RequestTimeoutSeconds < 0 {
		settings.RequestTimeoutSeconds = 0
	}
	return config.Normalize(settings)
}

func inFlight(status domain.SubmissionStatus) bool {
	switch status {
	case domain.SubmissionStatusConverting, domain.SubmissionStatusUploading, domain.SubmissionStatusTranscribing:
		return true
	default:
		return false
	}
}
