// Package prefs handles deskhub user preferences persistence.
// Preferences are stored in ~/.config/deskhub/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/deskhub/internal/config"
	"github.com/five82/deskhub/internal/resource"
)

// Prefs holds user preferences for deskhub.
type Prefs struct {
	Theme                       string `toml:"theme"`
	TasksRefreshMinutes         int    `toml:"tasks_refresh_minutes"`
	NotificationsRefreshMinutes int    `toml:"notifications_refresh_minutes"`
}

const (
	defaultPrefsPath = "~/.config/deskhub/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Default returns the preferences used when no file exists.
func Default() Prefs {
	return Prefs{
		Theme:                       defaultTheme,
		TasksRefreshMinutes:         resource.DefaultRefreshMinutes,
		NotificationsRefreshMinutes: resource.DefaultRefreshMinutes,
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if
// missing or unreadable. Refresh minutes are clamped to the allowed steps.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Default(), nil // Graceful degradation
	}

	var p Prefs
	if err := toml.Unmarshal(bytes, &p); err != nil {
		return Default(), nil // Graceful degradation
	}
	return p.normalized(), nil
}

func (p Prefs) normalized() Prefs {
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	p.TasksRefreshMinutes = resource.ClampRefreshMinutes(p.TasksRefreshMinutes)
	p.NotificationsRefreshMinutes = resource.ClampRefreshMinutes(p.NotificationsRefreshMinutes)
	return p
}

// Policy returns the TTL policy these preferences select.
func (p Prefs) Policy() resource.TTLPolicy {
	return resource.TTLPolicy{
		TasksMinutes:         p.TasksRefreshMinutes,
		NotificationsMinutes: p.NotificationsRefreshMinutes,
	}
}

// RefreshMinutes returns the stored minutes for a configurable kind.
func (p Prefs) RefreshMinutes(kind resource.Kind) int {
	switch kind {
	case resource.Tasks:
		return resource.ClampRefreshMinutes(p.TasksRefreshMinutes)
	case resource.Notifications:
		return resource.ClampRefreshMinutes(p.NotificationsRefreshMinutes)
	default:
		return 0
	}
}

// WithRefreshMinutes returns a copy with kind's minutes set and clamped.
func (p Prefs) WithRefreshMinutes(kind resource.Kind, minutes int) Prefs {
	switch kind {
	case resource.Tasks:
		p.TasksRefreshMinutes = resource.ClampRefreshMinutes(minutes)
	case resource.Notifications:
		p.NotificationsRefreshMinutes = resource.ClampRefreshMinutes(minutes)
	}
	return p
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return config.ExpandPath(defaultPrefsPath)
	}
	return config.ExpandPath(path)
}
