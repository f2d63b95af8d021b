package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/joho/godotenv"
)

// Settings are the values the settings action is allowed to change.
type Settings struct {
	APIKey string
	Theme  string
}

// Store owns the on-disk key/value file. It is the only writer of
// configuration; readers take Snapshots.
type Store struct {
	path string

	mu      sync.Mutex
	version int64
	current atomic.Pointer[Snapshot]
}

// Open resolves the store location and loads the first snapshot. A missing
// file is not an error.
func Open(opts LoadOptions) (*Store, error) {
	s := &Store{path: resolveEnvPath(opts)}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing .env file path.
func (s *Store) Path() string { return s.path }

// Current returns the latest snapshot. Safe from any goroutine.
func (s *Store) Current() Snapshot {
	if snap := s.current.Load(); snap != nil {
		return *snap
	}
	return Snapshot{}
}

// Reload re-reads the file and the process environment.
func (s *Store) Reload() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked()
}

func (s *Store) reloadLocked() (Snapshot, error) {
	snap, err := parseSnapshot(s.path)
	if err != nil {
		return Snapshot{}, err
	}
	s.version++
	snap.Version = s.version
	s.current.Store(&snap)
	return snap, nil
}

// Save writes the settings to the file and to the live process environment,
// then returns the reloaded snapshot.
func (s *Store) Save(update Settings) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := readDotenvValues(s.path)
	changes := map[string]string{
		APIKeyEnvVar: strings.TrimSpace(update.APIKey),
		ThemeEnvVar:  strings.TrimSpace(update.Theme),
	}
	if changes[ThemeEnvVar] == "" {
		changes[ThemeEnvVar] = DefaultTheme
	}
	for k, v := range changes {
		values[k] = v
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Snapshot{}, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := godotenv.Write(values, s.path); err != nil {
		return Snapshot{}, fmt.Errorf("writing config to %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, envFileMode); err != nil {
		slog.Warn("could not restrict config file permissions", "path", s.path, "err", err)
	}

	for k, v := range changes {
		if err := os.Setenv(k, v); err != nil {
			return Snapshot{}, fmt.Errorf("updating process environment %s: %w", k, err)
		}
	}

	return s.reloadLocked()
}
