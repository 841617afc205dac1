package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/ztpfab/pkg/nvos"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetCLIPrefix(); got != nvos.DefaultPrefix {
		t.Errorf("GetCLIPrefix() default = %q, want %q", got, nvos.DefaultPrefix)
	}
	if got := s.GetAuditLog(); !strings.HasSuffix(got, "audit.log") {
		t.Errorf("GetAuditLog() default = %q, want a path ending in audit.log", got)
	}
}

func TestSettings_AuditLogOff(t *testing.T) {
	s := &Settings{AuditLog: "off"}
	if got := s.GetAuditLog(); got != "" {
		t.Errorf("GetAuditLog() = %q, want empty", got)
	}
	s.AuditLog = "/var/log/ztpfab.log"
	if got := s.GetAuditLog(); got != "/var/log/ztpfab.log" {
		t.Errorf("GetAuditLog() = %q", got)
	}
}

func TestSettings_Set(t *testing.T) {
	s := &Settings{}
	for key, value := range map[string]string{
		"cli_prefix":   "/opt/cli --quiet",
		"default_user": "network-admin",
		"audit_log":    "off",
		"results_url":  "redis://localhost:6379/0",
		"results_key":  "ztp:results",
	} {
		if !s.Set(key, value) {
			t.Errorf("Set(%q) rejected a known key", key)
		}
	}
	want := &Settings{
		CLIPrefix:   "/opt/cli --quiet",
		DefaultUser: "network-admin",
		AuditLog:    "off",
		ResultsURL:  "redis://localhost:6379/0",
		ResultsKey:  "ztp:results",
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	if s.Set("nonsense", "x") {
		t.Error("Set accepted an unknown key")
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{CLIPrefix: "x", DefaultUser: "y", AuditLog: "z"}
	s.Clear()
	if diff := cmp.Diff(&Settings{}, s); diff != "" {
		t.Errorf("Clear() left fields set:\n%s", diff)
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	orig := &Settings{CLIPrefix: "/usr/bin/cli --quiet", DefaultUser: "admin", ResultsURL: "redis://r:6379/1"}

	if err := orig.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if diff := cmp.Diff(orig, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSettings_LoadMissing(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if diff := cmp.Diff(&Settings{}, s); diff != "" {
		t.Errorf("expected empty settings:\n%s", diff)
	}
}

func TestSettings_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}
