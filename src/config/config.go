package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	EnvPathEnvVar   = "SCREEN_ASSIST_ENV"
	APIKeyEnvVar    = "GEMINI_API_KEY"
	ThemeEnvVar     = "ASSISTANT_THEME"
	DefaultTheme    = "Dark (Default)"
	DefaultHotkey   = "Cmd+Option+G"
	envFileName     = ".env"
	envFileMode     = 0600
	minLocalTimeout = 1
)

// DebugScreenshotName is the last capture, kept next to the executable unless
// DEBUG_SCREENSHOT_PATH says otherwise.
const DebugScreenshotName = "debug_screenshot.jpg"

// Snapshot is one immutable view of the persisted configuration. Version
// increases every time the store is reloaded or saved.
type Snapshot struct {
	Version int64 `env:"-"`

	APIKey              string `env:"GEMINI_API_KEY"`
	Theme               string `env:"ASSISTANT_THEME" envDefault:"Dark (Default)"`
	DefaultEngine       string `env:"DEFAULT_ENGINE" envDefault:"cloud"`
	CloudModel          string `env:"CLOUD_MODEL" envDefault:"gemini-2.5-flash"`
	LocalModel          string `env:"LOCAL_MODEL" envDefault:"llava"`
	LocalURL            string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	LocalTimeoutSec     int    `env:"LOCAL_TIMEOUT_SEC" envDefault:"120"`
	Hotkey              string `env:"HOTKEY" envDefault:"Cmd+Option+G"`
	EnableFileLogging   bool   `env:"ENABLE_FILE_LOGGING"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
	DebugScreenshotPath string `env:"DEBUG_SCREENSHOT_PATH"`
}

type LoadOptions struct {
	// EnvPathOverride takes precedence over the executable directory and
	// SCREEN_ASSIST_ENV.
	EnvPathOverride string
}

// Load reads a single snapshot without keeping a store around. The CLI uses
// this; the resident app uses Open.
func Load(opts LoadOptions) (Snapshot, error) {
	store, err := Open(opts)
	if err != nil {
		return Snapshot{}, err
	}
	return store.Current(), nil
}

func parseSnapshot(envPath string) (Snapshot, error) {
	// Same precedence as godotenv.Load: values already present in the process
	// environment win over the file.
	values := readDotenvValues(envPath)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			values[kv[:i]] = kv[i+1:]
		}
	}

	var snap Snapshot
	if err := env.ParseWithOptions(&snap, env.Options{Environment: values}); err != nil {
		return Snapshot{}, fmt.Errorf("parsing configuration: %w", err)
	}

	snap.APIKey = strings.TrimSpace(snap.APIKey)
	snap.Theme = strings.TrimSpace(snap.Theme)
	if snap.Theme == "" {
		snap.Theme = DefaultTheme
	}
	if strings.TrimSpace(snap.Hotkey) == "" {
		snap.Hotkey = DefaultHotkey
	}
	if snap.LocalTimeoutSec < minLocalTimeout {
		snap.LocalTimeoutSec = 120
	}
	snap.LocalURL = strings.TrimRight(strings.TrimSpace(snap.LocalURL), "/")
	snap.DebugScreenshotPath = strings.TrimSpace(snap.DebugScreenshotPath)
	if snap.DebugScreenshotPath == "" {
		snap.DebugScreenshotPath = filepath.Join(ExecutableDir(), DebugScreenshotName)
	}
	return snap, nil
}

// ExecutableDir is the directory of the running binary, or "." when it
// cannot be determined.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveEnvPath picks the key/value store location:
// 1) explicit override
// 2) .env in the executable directory, if present
// 3) SCREEN_ASSIST_ENV, if it points at an existing file
// 4) .env in the executable directory (created on first save)
func resolveEnvPath(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.EnvPathOverride); override != "" {
		return override
	}

	exeEnv := filepath.Join(ExecutableDir(), envFileName)
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return exeEnv
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}
