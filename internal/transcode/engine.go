package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Job is one engine invocation: a named input blob, the argument list that
// references it, and the named output blob to read back.
type Job struct {
	InputName  string
	Input      []byte
	OutputName string
	Args       []string
	OnProgress func(fraction float64)
}

// Engine is the narrow convert-and-read contract the transcoder depends on.
type Engine interface {
	Transcode(ctx context.Context, job Job) ([]byte, CommandLog, error)
	Close() error
}

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// command describes a process to start and where to mirror its output.
type command struct {
	Name   string
	Args   []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, cmd command) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, c command) (commandResult, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = teeWriter(&stdout, c.Stdout)
	cmd.Stderr = teeWriter(&stderr, c.Stderr)

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

func teeWriter(buf *bytes.Buffer, extra io.Writer) io.Writer {
	if extra == nil {
		return buf
	}
	return io.MultiWriter(buf, extra)
}

// FFmpegEngine runs ffmpeg against files in a private workspace.
// The workspace is created on first use and removed by Close.
type FFmpegEngine struct {
	ffmpegPath string
	baseDir    string
	runner     commandRunner
	lookPath   func(file string) (string, error)
	mkdirTemp  func(dir, pattern string) (string, error)
	mkdirAll   func(path string, perm os.FileMode) error
	removeAll  func(path string) error
	writeFile  func(name string, data []byte, perm os.FileMode) error
	readFile   func(name string) ([]byte, error)

	mu        sync.Mutex
	workspace string
}

// NewFFmpegEngine constructs the production engine. baseDir may be empty to
// use the system temp directory.
func NewFFmpegEngine(ffmpegPath, baseDir string) *FFmpegEngine {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegEngine{
		ffmpegPath: ffmpegPath,
		baseDir:    baseDir,
		runner:     &execRunner{},
		lookPath:   exec.LookPath,
		mkdirTemp:  os.MkdirTemp,
		mkdirAll:   os.MkdirAll,
		removeAll:  os.RemoveAll,
		writeFile:  os.WriteFile,
		readFile:   os.ReadFile,
	}
}

// load resolves the ffmpeg binary and creates the workspace once.
func (e *FFmpegEngine) load() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.workspace != "" {
		return e.workspace, nil
	}
	if _, err := e.lookPath(e.ffmpegPath); err != nil {
		return "", fmt.Errorf("ffmpeg not available (%s): %w", e.ffmpegPath, err)
	}

	base := e.baseDir
	if base != "" {
		if err := e.mkdirAll(base, 0o755); err != nil {
			return "", fmt.Errorf("create workspace base %s: %w", base, err)
		}
	}
	dir, err := e.mkdirTemp(base, "upload-ai-*")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	e.workspace = dir
	return dir, nil
}

// Transcode writes the input blob, runs ffmpeg once and returns the output blob.
// The per-call directory is always removed before returning.
func (e *FFmpegEngine) Transcode(ctx context.Context, job Job) ([]byte, CommandLog, error) {
	log := CommandLog{Command: e.ffmpegPath, Args: job.Args, ExitCode: -1}

	workspace, err := e.load()
	if err != nil {
		return nil, log, err
	}

	callDir, err := e.mkdirTemp(workspace, "job-*")
	if err != nil {
		return nil, log, fmt.Errorf("create job directory: %w", err)
	}
	defer func() { _ = e.removeAll(callDir) }()

	if err := e.writeFile(filepath.Join(callDir, job.InputName), job.Input, 0o600); err != nil {
		return nil, log, fmt.Errorf("write input %s: %w", job.InputName, err)
	}

	parser := newProgressParser(job.OnProgress)
	cmdResult, runErr := e.runner.Run(ctx, command{
		Name:   e.ffmpegPath,
		Args:   job.Args,
		Dir:    callDir,
		Stdout: newLineWriter(parser.progressLine),
		Stderr: newLineWriter(parser.diagnosticLine),
	})
	log.ExitCode = cmdResult.ExitCode
	log.Stdout = cmdResult.Stdout
	log.Stderr = cmdResult.Stderr
	if runErr != nil {
		return nil, log, runErr
	}

	data, err := e.readFile(filepath.Join(callDir, job.OutputName))
	if err != nil {
		return nil, log, fmt.Errorf("ffmpeg completed but output %s is missing: %w", job.OutputName, err)
	}
	parser.finish()
	return data, log, nil
}

// Close removes the workspace. The engine reloads lazily if used again.
func (e *FFmpegEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.workspace == "" {
		return nil
	}
	if err := e.removeAll(e.workspace); err != nil {
		return err
	}
	e.workspace = ""
	return nil
}

// NewFFmpegEngineForTests constructs an engine with injectable dependencies.
func NewFFmpegEngineForTests(
	ffmpegPath string,
	baseDir string,
	runner commandRunner,
	lookPath func(file string) (string, error),
	removeAll func(path string) error,
) *FFmpegEngine {
	e := NewFFmpegEngine(ffmpegPath, baseDir)
	e.runner = runner
	e.lookPath = lookPath
	e.removeAll = removeAll
	return e
}
