package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("got %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracesema.toml")
	body := "max_strlen = 128\nsafe_mode = true\nstack_mode = \"perf\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxStrlen != 128 || !cfg.SafeMode || cfg.StackMode != StackPerf {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.MaxMapKeys != Default().MaxMapKeys {
		t.Fatalf("unset option should retain default, got %d", cfg.MaxMapKeys)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracesema.toml")
	if err := os.WriteFile(path, []byte("not_a_real_option = 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unrecognized option")
	}
}

func TestLoadRejectsInvalidEnum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracesema.toml")
	if err := os.WriteFile(path, []byte("stack_mode = \"bogus\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an invalid stack_mode")
	}
}

func TestLoadRejectsOversizedMaxStrlen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracesema.toml")
	if err := os.WriteFile(path, []byte("max_strlen = 4294967296\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for max_strlen exceeding 2^32-1")
	}
}
