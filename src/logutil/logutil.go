package logutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	logFileName  = "assistant_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

type Options struct {
	// EnableFileLogging writes to a rotating log file (10MB, max 3 archives).
	EnableFileLogging bool
	// Verbose sends logs to stderr when file logging is off.
	Verbose bool
	Level   string
	// Dir holds the log file; defaults to the working directory.
	Dir string
}

// Setup installs the default slog logger. When neither file logging nor
// verbose output is requested, logs are discarded so stdout stays clean for
// answers.
func Setup(opts Options) *slog.Logger {
	var out io.Writer = io.Discard
	switch {
	case opts.EnableFileLogging:
		w, err := newRotatingWriter(filepath.Join(opts.Dir, logFileName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		} else {
			out = w
		}
	case opts.Verbose:
		out = os.Stderr
	}

	logger := New(out, opts.Level)
	slog.SetDefault(logger)
	return logger
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type rotatingWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func newRotatingWriter(path string) (*rotatingWriter, error) {
	rotateIfNeeded(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, f: f}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		forceRotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func rotateIfNeeded(path string) {
	if st, err := os.Stat(path); err == nil && st.Size() > maxSizeBytes {
		forceRotate(path)
	}
}

// forceRotate shifts .1 -> .2 -> .3 (oldest discarded) and moves the current file to .1.
func forceRotate(path string) {
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }

// RedactKey masks an API key, leaving first/last 4 chars: xxxx...yyyy
func RedactKey(k string) string {
	if k == "" {
		return "(unset)"
	}
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}

// Sanitize flattens control characters and truncates text so user content can
// be logged on one line.
func Sanitize(text string, maxLen int) string {
	if maxLen > 0 && len(text) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}

	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			b.WriteString("\\n")
		case r == '\t':
			b.WriteString("\\t")
		case r < 32 || r == 127:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
