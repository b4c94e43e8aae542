// Package config is the ambient settings layer threaded through
// internal/pipeline: a small value built once from CLI flags (and an
// optional felis.yaml overlay) and passed straight through the
// synchronous Compile call.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the single value cmd/felis builds from flags (and
// optionally a felis.yaml) and passes straight through to
// internal/pipeline.Compile.
type Config struct {
	// PTX selects the PTX backend in addition to the x86-64
	// backend, toggled by the CLI's --ptx flag.
	PTX bool

	// DumpTyped prints the elaborated typedast.File.
	DumpTyped bool

	// DumpCore prints the resolved.File (pre-elaboration).
	DumpCore bool

	// BuiltinOverrides holds the `builtins` section of a felis.yaml
	// file. It is parsed and kept here only: no compiler phase reads
	// it, so it does not change the embedded table.yaml shipped in
	// internal/builtins.
	BuiltinOverrides map[string]BuiltinOverride `yaml:"builtins"`
}

// BuiltinOverride mirrors internal/builtins.Spec's shape, minus the
// name (the map key already carries it).
type BuiltinOverride struct {
	Category string `yaml:"category"`
	Params   int    `yaml:"params"`
}

// Default returns the zero-value configuration: host-only codegen, no
// debug dumps, no builtin overrides.
func Default() Config {
	return Config{}
}

// LoadFile reads an optional felis.yaml settings file: a lenient,
// best-effort overlay rather than a required manifest. A missing file
// is not an error: most invocations have no felis.yaml at all.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
