package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/utils"

	"github.com/fsnotify/fsnotify"
	"github.com/titanous/json5"
)

// SettingsFile stores the settings singleton in a JSON5 file
type SettingsFile struct {
	path   string
	logger *utils.Logger
	mu     sync.Mutex
}

// NewSettingsFile creates a store backed by path; the file need not exist yet
func NewSettingsFile(path string, logger *utils.Logger) *SettingsFile {
	return &SettingsFile{path: path, logger: logger}
}

// Path returns the backing file
func (s *SettingsFile) Path() string {
	return s.path
}

// Get returns the file's settings merged over the defaults
func (s *SettingsFile) Get(ctx context.Context) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Save shallow-merges patch into the stored settings and writes the file atomically
func (s *SettingsFile) Save(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return current, err
	}
	patch.Apply(&current)

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return current, fmt.Errorf("failed to encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return current, fmt.Errorf("failed to create settings directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return current, fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return current, fmt.Errorf("failed to replace settings: %w", err)
	}
	return current, nil
}

func (s *SettingsFile) read() (models.Settings, error) {
	out := models.DefaultSettings()
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("failed to read settings: %w", err)
	}
	if len(data) == 0 {
		return out, nil
	}
	// fields absent from the file keep their default values
	if err := json5.Unmarshal(data, &out); err != nil {
		return models.DefaultSettings(), fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}
	if out.CheckInterval <= 0 {
		out.CheckInterval = models.DefaultCheckInterval
	}
	return out, nil
}

// Watch calls fn with freshly read settings whenever the file changes on disk.
// It blocks until ctx is done.
func (s *SettingsFile) Watch(ctx context.Context, fn func(models.Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	// watch the directory so atomic replaces are seen
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			settings, err := s.Get(ctx)
			if err != nil {
				s.logger.Warn("Ignoring settings change: %v", err)
				continue
			}
			s.logger.Debug("Settings file changed (%s)", event.Op)
			fn(settings)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Settings watcher error: %v", err)
		}
	}
}
