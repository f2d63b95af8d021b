package screenshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

const defaultUtility = "screencapture"

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// UtilityCapturer shells out to the macOS screencapture tool: silent (-x),
// main display only (-m), JPEG output (-t jpg).
type UtilityCapturer struct {
	Command   string
	TempDir   string
	DebugPath string
	Run       Runner
}

func (c *UtilityCapturer) Capture(ctx context.Context) ([]byte, error) {
	f, err := os.CreateTemp(c.TempDir, "screen-assist-*.jpg")
	if err != nil {
		return nil, &CaptureError{Op: "create temp file", Err: err}
	}
	path := f.Name()
	_ = f.Close()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("could not remove capture temp file", "path", path, "err", err)
		}
	}()

	name := c.Command
	if name == "" {
		name = defaultUtility
	}
	run := c.Run
	if run == nil {
		run = execRunner
	}

	out, err := run(ctx, name, "-x", "-m", "-t", "jpg", path)
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &CaptureError{Op: "run " + name, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CaptureError{Op: "read output", Err: err}
	}
	if len(data) == 0 {
		return nil, &CaptureError{Op: "read output", Err: errEmptyImage}
	}

	writeDebugCopy(c.DebugPath, data)
	slog.Debug("captured screen", "bytes", len(data))
	return data, nil
}
