// Package config loads the semantic analyser's enumerated configuration
// record from an optional TOML file, per spec §6. Grounded in the
// teacher's internal/project/modules.go use of
// github.com/BurntSushi/toml's DecodeFile/MetaData pair, generalized
// from "parse a surge.toml [modules]/[package] section" to "parse a
// tracesema.toml's single flat table of analyser options" and tightened
// to reject unknown keys instead of silently ignoring them.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// StackMode selects the default stack-unwind representation (§6).
type StackMode string

const (
	StackBpftrace StackMode = "bpftrace"
	StackPerf     StackMode = "perf"
	StackRaw      StackMode = "raw"
)

// UnstableMacro gates `macro` declarations behind an opt-in flag.
type UnstableMacro string

const (
	MacroDisabled UnstableMacro = "disabled"
	MacroEnabled  UnstableMacro = "enable"
)

const maxStrlenCap = 1<<32 - 1

// Config is the full set of recognized options from spec §6. Every field
// has a documented default; Load always returns a populated Config, even
// when no file is present.
type Config struct {
	MaxStrlen         uint32        `toml:"max_strlen"`
	StackMode         StackMode     `toml:"stack_mode"`
	MaxASTNodes       uint32        `toml:"max_ast_nodes"`
	UnstableMacro     UnstableMacro `toml:"unstable_macro"`
	MaxMapKeys        uint32        `toml:"max_map_keys"`
	MaxPerCPUMapKeys  uint32        `toml:"max_per_cpu_map_keys"`
	SafeMode          bool          `toml:"safe_mode"`
}

// Default returns the configuration spec §6 describes when no file
// overrides it.
func Default() Config {
	return Config{
		MaxStrlen:        64,
		StackMode:        StackBpftrace,
		MaxASTNodes:      1 << 20,
		UnstableMacro:    MacroDisabled,
		MaxMapKeys:       4096,
		MaxPerCPUMapKeys: 4096,
		SafeMode:         false,
	}
}

// Load reads path, if it exists, layering its values onto Default();
// a missing file is not an error. Every recognized key may be omitted;
// any key present in the file but not in Config is a parse error — the
// `toml.DecodeFile`-then-`Undecoded()` double-check spec's
// "Configuration as a record with enumerated options" design note calls
// for, matching `toml.DecodeStrict`'s intent on a BurntSushi/toml version
// that predates that helper.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Default(), fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Default(), fmt.Errorf("%s: unrecognized option %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate enforces the bounds spec §6 documents (max_strlen capped at
// 2^32-1, enums restricted to their named values).
func (c Config) Validate() error {
	if uint64(c.MaxStrlen) > maxStrlenCap {
		return fmt.Errorf("max_strlen exceeds %d", maxStrlenCap)
	}
	switch c.StackMode {
	case StackBpftrace, StackPerf, StackRaw, "":
	default:
		return fmt.Errorf("stack_mode: unrecognized value %q", c.StackMode)
	}
	switch c.UnstableMacro {
	case MacroDisabled, MacroEnabled, "":
	default:
		return fmt.Errorf("unstable_macro: unrecognized value %q", c.UnstableMacro)
	}
	return nil
}

// MacroUnstableEnabled reports whether `macro` declarations are gated
// open by this configuration.
func (c Config) MacroUnstableEnabled() bool {
	return c.UnstableMacro == MacroEnabled
}
