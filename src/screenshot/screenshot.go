package screenshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var errEmptyImage = errors.New("image is empty")

// Capturer produces one encoded JPEG of the primary display.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// CaptureError reports a failed capture or an unreadable image artifact.
type CaptureError struct {
	Op  string
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("screen capture failed (%s): %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// New returns the OS capture utility where available and falls back to
// capturing the primary display in-process.
func New(debugPath string) Capturer {
	if runtime.GOOS == "darwin" {
		if _, err := exec.LookPath(defaultUtility); err == nil {
			return &UtilityCapturer{DebugPath: debugPath}
		}
	}
	return &DisplayCapturer{DebugPath: debugPath}
}

// Load reads a screenshot that another process already took.
func Load(path string) ([]byte, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, &CaptureError{Op: "read " + path, Err: err}
	}
	if st.Size() > maxFileSize {
		return nil, &CaptureError{Op: "read " + path, Err: fmt.Errorf("file exceeds maximum size of %d MB", maxFileSizeMB)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CaptureError{Op: "read " + path, Err: err}
	}
	if len(data) == 0 {
		return nil, &CaptureError{Op: "read " + path, Err: errEmptyImage}
	}
	return data, nil
}

// writeDebugCopy keeps the last capture around for troubleshooting. Failures
// are logged only.
func writeDebugCopy(path string, data []byte) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		slog.Warn("could not create debug screenshot directory", "path", path, "err", err)
		return
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		slog.Warn("could not save debug screenshot", "path", path, "err", err)
		return
	}
	slog.Debug("saved debug screenshot", "path", path, "bytes", len(data))
}
