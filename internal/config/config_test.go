package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("load missing config: %v", err)
	}
	if cfg.Store.Path != nil || cfg.Recorder.Terminator != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[recorder]
terminator = "F12"
devices = ["/dev/input/event3"]

[store]
path = "/tmp/kero.db"
backup-suffix = ".bak"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Recorder.Terminator == nil || *cfg.Recorder.Terminator != "F12" {
		t.Fatalf("unexpected terminator: %v", cfg.Recorder.Terminator)
	}
	if len(cfg.Recorder.Devices) != 1 || cfg.Recorder.Devices[0] != "/dev/input/event3" {
		t.Fatalf("unexpected devices: %v", cfg.Recorder.Devices)
	}
	if cfg.Store.Path == nil || *cfg.Store.Path != "/tmp/kero.db" {
		t.Fatalf("unexpected store path: %v", cfg.Store.Path)
	}
	if cfg.Store.Table != nil {
		t.Fatalf("expected unset table, got %q", *cfg.Store.Table)
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %v", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[store]\ndatabase = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("KERO_DB", "/env/keyboard.db")
	t.Setenv("KERO_DEVICES", "/dev/input/event1,/dev/input/event2")

	envCfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	filePath := "/file/keyboard.db"
	level := "warn"
	cfg := envCfg.Apply(FileConfig{
		Store: StoreConfig{Path: &filePath},
		Log:   LogConfig{Level: &level},
	})
	if *cfg.Store.Path != "/env/keyboard.db" {
		t.Fatalf("expected env db path, got %q", *cfg.Store.Path)
	}
	if *cfg.Log.Level != "warn" {
		t.Fatalf("expected file log level to survive, got %q", *cfg.Log.Level)
	}
	if len(cfg.Recorder.Devices) != 2 {
		t.Fatalf("expected 2 devices, got %v", cfg.Recorder.Devices)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	if got := DefaultDBPath(); got != filepath.Join("/data", "kero", "keyboard.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "kero", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultPIDPath(); got != filepath.Join("/run/user/1000", "kero", "kero.pid") {
		t.Fatalf("unexpected pid path: %s", got)
	}
}
