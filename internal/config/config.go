// Package config loads RRVM's tunable resource limits from an optional
// rrvm.toml manifest, the way the wider project's own manifest.go loads
// maggie.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the VM's fixed resource bounds. §3 and §9's Open Questions
// leave most of these as "an implementation parameter, not a spec
// invariant"; this type is where that parameter lives.
type Config struct {
	Limits Limits `toml:"limits"`

	// Dir is the directory containing the loaded rrvm.toml, empty when
	// Default() was used instead of Load/FindAndLoad.
	Dir string `toml:"-"`
}

// Limits configures the VM's fixed-size stacks and tape.
type Limits struct {
	StackSize       int `toml:"stack_size"`
	TapeSize        int `toml:"tape_size"`
	CallStackSize   int `toml:"call_stack_size"`
	BlockStackSize  int `toml:"block_stack_size"`
	PointerHistory  int `toml:"pointer_history_size"`
	MaxFunctions    int `toml:"max_functions"`
}

// Default returns the built-in resource bounds used when no rrvm.toml is
// present. StackSize/TapeSize match the reference VM's STACK_SIZE
// default (1024) and CallStackSize is 256; BlockStackSize matches §3's stated fixed
// bound (256); PointerHistory and MaxFunctions resolve Open Questions in
// SPEC_FULL.md (an explicit bound rather than TapeSize, and the 256 cap
// treated as a parameter).
func Default() Config {
	return Config{
		Limits: Limits{
			StackSize:      1024,
			TapeSize:       1024,
			CallStackSize:  256,
			BlockStackSize: 256,
			PointerHistory: 256 * 4,
			MaxFunctions:   256,
		},
	}
}

// Load parses an rrvm.toml file from the given directory, filling in any
// zero-valued limit from Default().
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, "rrvm.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return parse(data, dir)
}

// LoadFile parses an rrvm.toml file at an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return parse(data, filepath.Dir(path))
}

func parse(data []byte, dir string) (Config, error) {
	cfg := Default()
	var onDisk Config
	if err := toml.Unmarshal(data, &onDisk); err != nil {
		return Config{}, fmt.Errorf("parse error in rrvm.toml: %w", err)
	}

	if onDisk.Limits.StackSize != 0 {
		cfg.Limits.StackSize = onDisk.Limits.StackSize
	}
	if onDisk.Limits.TapeSize != 0 {
		cfg.Limits.TapeSize = onDisk.Limits.TapeSize
	}
	if onDisk.Limits.CallStackSize != 0 {
		cfg.Limits.CallStackSize = onDisk.Limits.CallStackSize
	}
	if onDisk.Limits.BlockStackSize != 0 {
		cfg.Limits.BlockStackSize = onDisk.Limits.BlockStackSize
	}
	if onDisk.Limits.PointerHistory != 0 {
		cfg.Limits.PointerHistory = onDisk.Limits.PointerHistory
	}
	if onDisk.Limits.MaxFunctions != 0 {
		cfg.Limits.MaxFunctions = onDisk.Limits.MaxFunctions
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return Config{}, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	cfg.Dir = abs
	return cfg, nil
}

// FindAndLoad walks up from startDir looking for an rrvm.toml, returning
// Default() (with ok=false) if none is found anywhere above startDir.
func FindAndLoad(startDir string) (cfg Config, ok bool, err error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return Config{}, false, err
	}

	for {
		path := filepath.Join(dir, "rrvm.toml")
		if _, statErr := os.Stat(path); statErr == nil {
			cfg, err = Load(dir)
			return cfg, err == nil, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), false, nil
		}
		dir = parent
	}
}
