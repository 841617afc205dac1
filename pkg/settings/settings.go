// Package settings manages persistent ztpfab preferences.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/newtron-network/ztpfab/pkg/nvos"
)

// Settings holds defaults that flags and parameter files override.
type Settings struct {
	// CLIPrefix is the NOS-CLI binary and fixed flags, e.g. "/usr/bin/cli --quiet".
	CLIPrefix string `json:"cli_prefix,omitempty"`

	// DefaultUser is the CLI user when a parameter file names none.
	DefaultUser string `json:"default_user,omitempty"`

	// AuditLog is where mutating commands are recorded. "off" disables it.
	AuditLog string `json:"audit_log,omitempty"`

	// ResultsURL is a redis:// URL every envelope is published to.
	ResultsURL string `json:"results_url,omitempty"`

	// ResultsKey is the Redis list envelopes are pushed onto.
	ResultsKey string `json:"results_key,omitempty"`
}

// DefaultSettingsPath returns ~/.ztpfab/settings.json.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ztpfab_settings.json"
	}
	return filepath.Join(home, ".ztpfab", "settings.json")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from path. A missing file yields empty settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to path, creating its directory.
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetCLIPrefix returns the configured prefix or nvos.DefaultPrefix.
func (s *Settings) GetCLIPrefix() string {
	if s.CLIPrefix != "" {
		return s.CLIPrefix
	}
	return nvos.DefaultPrefix
}

// GetAuditLog returns the audit log path, defaulting to
// ~/.ztpfab/audit.log. It returns "" when auditing is off.
func (s *Settings) GetAuditLog() string {
	switch s.AuditLog {
	case "off":
		return ""
	case "":
		return filepath.Join(filepath.Dir(DefaultSettingsPath()), "audit.log")
	}
	return s.AuditLog
}

// Set assigns the named setting. It reports false for an unknown key.
func (s *Settings) Set(key, value string) bool {
	switch key {
	case "cli_prefix":
		s.CLIPrefix = value
	case "default_user":
		s.DefaultUser = value
	case "audit_log":
		s.AuditLog = value
	case "results_url":
		s.ResultsURL = value
	case "results_key":
		s.ResultsKey = value
	default:
		return false
	}
	return true
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
