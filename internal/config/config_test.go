package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/rrvm/internal/config"
)

func TestDefaultLimits(t *testing.T) {
	cfg := config.Default()
	if cfg.Limits.StackSize != 1024 {
		t.Fatalf("got StackSize=%d, want 1024", cfg.Limits.StackSize)
	}
	if cfg.Limits.MaxFunctions != 256 {
		t.Fatalf("got MaxFunctions=%d, want 256", cfg.Limits.MaxFunctions)
	}
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rrvm.toml")
	toml := "[limits]\nstack_size = 2048\n"
	if err := os.WriteFile(path, []byte(toml), 0o644); err != nil {
		t.Fatalf("write rrvm.toml: %v", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.StackSize != 2048 {
		t.Fatalf("got StackSize=%d, want 2048", cfg.Limits.StackSize)
	}
	if cfg.Limits.TapeSize != config.Default().Limits.TapeSize {
		t.Fatalf("got TapeSize=%d, want the default", cfg.Limits.TapeSize)
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "rrvm.toml"), []byte("[limits]\nmax_functions = 42\n"), 0o644); err != nil {
		t.Fatalf("write rrvm.toml: %v", err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg, ok, err := config.FindAndLoad(nested)
	if err != nil {
		t.Fatalf("find and load: %v", err)
	}
	if !ok {
		t.Fatal("expected to find rrvm.toml walking up")
	}
	if cfg.Limits.MaxFunctions != 42 {
		t.Fatalf("got MaxFunctions=%d, want 42", cfg.Limits.MaxFunctions)
	}
}

func TestFindAndLoadFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, ok, err := config.FindAndLoad(dir)
	if err != nil {
		t.Fatalf("find and load: %v", err)
	}
	if ok {
		t.Fatal("expected no rrvm.toml to be found")
	}
	if cfg.Limits != config.Default().Limits {
		t.Fatal("expected the default limits when no rrvm.toml is present")
	}
}
