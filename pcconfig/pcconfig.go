// Package pcconfig loads the optional TOML tunables file used by the
// benchmark harness and test fixtures. Nothing in the core substrate
// requires a config file to run correctly; this package exists purely so
// the harness can tune pool sizes without recompiling.
package pcconfig

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the full set of tunables a harness may override. Zero values
// mean "use the package default."
type Config struct {
	// Debug turns on the allocator's debug poisoning when passed to
	// alloc.NewSystemWithConfig (0xCC on Alloc, 0xCD on Free); nothing else
	// reads it. Defaults to true when loaded via Default, false in the
	// benchmark harness.
	Debug bool `toml:"debug"`

	Alloc AllocConfig `toml:"alloc"`
	Task  TaskConfig  `toml:"task"`
}

type AllocConfig struct {
	// TempFrameBytes sizes each of the allocator's rotating Temp rings.
	// 0 selects alloc's own default.
	TempFrameBytes int `toml:"temp_frame_bytes"`
}

type TaskConfig struct {
	// Workers sizes the scheduler's fixed worker pool. 0 means "use
	// runtime.GOMAXPROCS(0) after automaxprocs has right-sized it."
	Workers int `toml:"workers"`
}

// Default returns the config used when no TOML file is supplied.
func Default() Config {
	return Config{Debug: true}
}

// Load decodes a TOML tunables file at path, starting from Default so an
// omitted section keeps its default value.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "pcconfig: loading %s", path)
	}
	return cfg, nil
}
