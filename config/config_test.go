package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profile != "cello" || cfg.Ports.Input != "EWI" || cfg.Ports.Output != "IAC" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Param != nil {
		t.Fatalf("expected no explicit parameter")
	}
}

func TestSaveThenLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Profile = "flute"
	cfg.Serial = SerialConfig{Device: "/dev/ttyUSB0", Baud: 31250}
	cfg.SetParam(0.3)
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "swam-ewi", "config.json")); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Profile != "flute" || got.Serial.Device != "/dev/ttyUSB0" {
		t.Fatalf("unexpected config %+v", got)
	}
	if got.Param == nil || *got.Param != 0.3 {
		t.Fatalf("expected param 0.3, got %v", got.Param)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"profile":"wind"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Profile != "wind" {
		t.Fatalf("expected profile override, got %s", cfg.Profile)
	}
	if cfg.Ports.Input != "EWI" {
		t.Fatalf("expected default input pattern, got %q", cfg.Ports.Input)
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"profile":`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
