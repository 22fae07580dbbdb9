package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ToolError reports a failed external tool invocation. The exit code is
// propagated to the process exit status per the shell convention.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

// getPipURL is the fallback pip bootstrap script for distributions
// built without the ensurepip module
var getPipURL = "https://bootstrap.pypa.io/get-pip.py"

// PipRunner drives the extracted interpreter: pip bootstrap and
// requirements installation
type PipRunner struct {
	defaultTimeout time.Duration
	httpClient     *http.Client
}

// NewPipRunner creates a new pip runner
func NewPipRunner() *PipRunner {
	return &PipRunner{
		defaultTimeout: 30 * time.Minute,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// runConfig contains configuration for one interpreter invocation
type runConfig struct {
	python      string
	args        []string
	timeout     time.Duration
	description string
}

// runResult contains the result of one interpreter invocation
type runResult struct {
	exitCode int
	stdout   string
	stderr   string
	duration time.Duration
	err      error
}

// PythonPath locates the interpreter binary inside an extracted
// distribution. Standalone builds differ in layout, so several well-known
// locations are probed.
func (r *PipRunner) PythonPath(distDir string) (string, error) {
	candidates := []string{
		filepath.Join(distDir, "bin", "python3"),
		filepath.Join(distDir, "bin", "python"),
		filepath.Join(distDir, "python", "bin", "python3"),
		filepath.Join(distDir, "python.exe"),
		filepath.Join(distDir, "python", "python.exe"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no interpreter binary found under %s", distDir)
}

// EnsurePip makes sure pip is importable in the interpreter, bootstrapping
// it through ensurepip when absent
func (r *PipRunner) EnsurePip(ctx context.Context, python string) error {
	probe := r.run(ctx, runConfig{
		python:      python,
		args:        []string{"-m", "pip", "--version"},
		timeout:     2 * time.Minute,
		description: "pip probe",
	})
	if probe.err == nil {
		slog.Debug("pip already present", "version", strings.TrimSpace(probe.stdout))
		return nil
	}

	slog.Info("Bootstrapping pip")
	result := r.run(ctx, runConfig{
		python:      python,
		args:        []string{"-m", "ensurepip", "--upgrade"},
		description: "pip bootstrap",
	})
	if result.err == nil {
		return nil
	}

	// Standalone builds often ship without the ensurepip module; fall
	// back to the official bootstrap script.
	ensureErr := &ToolError{Tool: "ensurepip", ExitCode: result.exitCode, Stderr: result.stderr}
	slog.Warn("ensurepip unavailable, falling back to get-pip.py")

	if err := r.bootstrapGetPip(ctx, python); err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return toolErr
		}
		// The fallback never ran, so the ensurepip failure is the
		// actual problem to report.
		slog.Warn("get-pip.py fallback failed", "error", err)
		return ensureErr
	}

	return nil
}

// bootstrapGetPip downloads get-pip.py and runs it with the interpreter
func (r *PipRunner) bootstrapGetPip(ctx context.Context, python string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, getPipURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create get-pip request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download get-pip.py: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get-pip.py download failed: HTTP %d", resp.StatusCode)
	}

	script, err := os.CreateTemp("", "get-pip-*.py")
	if err != nil {
		return fmt.Errorf("failed to create get-pip staging file: %w", err)
	}
	//nolint:errcheck,gosec // G104: Best effort cleanup of staging file
	defer os.Remove(script.Name())

	if _, err := io.Copy(script, resp.Body); err != nil {
		_ = script.Close()
		return fmt.Errorf("failed to write get-pip.py: %w", err)
	}
	if err := script.Close(); err != nil {
		return fmt.Errorf("failed to close get-pip.py: %w", err)
	}

	result := r.run(ctx, runConfig{
		python:      python,
		args:        []string{script.Name()},
		description: "get-pip bootstrap",
	})
	if result.err != nil {
		return &ToolError{Tool: "get-pip.py", ExitCode: result.exitCode, Stderr: result.stderr}
	}

	return nil
}

// InstallRequirements installs one pip requirements file
func (r *PipRunner) InstallRequirements(ctx context.Context, python, reqFile string) error {
	slog.Info("Installing requirements", "file", reqFile)

	result := r.run(ctx, runConfig{
		python:      python,
		args:        []string{"-m", "pip", "install", "--no-input", "-r", reqFile},
		description: "pip install " + filepath.Base(reqFile),
	})
	if result.err != nil {
		return &ToolError{Tool: "pip install", ExitCode: result.exitCode, Stderr: result.stderr}
	}

	return nil
}

// run executes the interpreter with captured output and a timeout
func (r *PipRunner) run(ctx context.Context, config runConfig) *runResult {
	startTime := time.Now()
	result := &runResult{}

	timeout := config.timeout
	if timeout == 0 {
		timeout = r.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: The interpreter path comes from the provisioned distribution
	cmd := exec.CommandContext(execCtx, config.python, config.args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Executing", "description", config.description)

	err := cmd.Run()
	result.duration = time.Since(startTime)
	result.stdout = stdout.String()
	result.stderr = stderr.String()

	if err != nil {
		result.err = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.exitCode = exitErr.ExitCode()
		} else if execCtx.Err() == context.DeadlineExceeded {
			result.err = fmt.Errorf("%s timeout after %v", config.description, timeout)
			result.exitCode = -1
		} else {
			result.exitCode = -1
		}
		return result
	}

	result.exitCode = 0
	return result
}

// lastLine returns the final non-empty line of tool output, which for pip
// is where the actual failure reason lands
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
