// Package settings handles switchboard's own preferences file, separate
// from the profile store: UI choices and per-app live path overrides.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/billie-coop/switchboard/internal/fsutil"
	"github.com/billie-coop/switchboard/internal/profile"
)

// LiveOverride relocates one app's live config files, for setups where
// the app's config dir is non-standard (e.g. XDG or a synced dotfiles
// tree). Values may reference environment variables.
type LiveOverride struct {
	Main string `json:"main"`
	Aux  string `json:"aux,omitempty"`
}

// Settings are switchboard's own preferences.
type Settings struct {
	Theme              string                       `json:"theme"`
	ConfirmBeforeApply bool                         `json:"confirm_before_apply"`
	LiveOverrides      map[profile.App]LiveOverride `json:"live_overrides,omitempty"`
}

// Default returns the settings used when no file exists yet.
func Default() *Settings {
	return &Settings{
		Theme:              "dracula",
		ConfirmBeforeApply: true,
	}
}

// Manager loads and saves the settings file.
type Manager struct {
	path     string
	settings *Settings
}

// NewManager creates a manager for the settings file under dataDir.
func NewManager(dataDir string) *Manager {
	return &Manager{
		path:     filepath.Join(dataDir, "settings.json"),
		settings: Default(),
	}
}

// Load reads the settings file, creating it with defaults if missing.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return m.Save()
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse settings: %w", err)
	}
	for app, ov := range s.LiveOverrides {
		ov.Main = expandEnv(ov.Main)
		ov.Aux = expandEnv(ov.Aux)
		s.LiveOverrides[app] = ov
	}
	m.settings = &s
	return nil
}

// Save writes the current settings.
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return fsutil.WriteFileAtomic(m.path, data, 0o600)
}

// Get returns the current settings.
func (m *Manager) Get() *Settings {
	return m.settings
}

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnv expands $VAR and ${VAR}, leaving unset variables as written.
func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})
}
