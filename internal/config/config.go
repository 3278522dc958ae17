// Package config loads the launcher's codecity.yaml: the scheduler's
// per-tick step budget, where snapshots live and how often they're taken,
// and the addresses the host process listens on. It is deliberately
// separate from internal/interp.World's own options (WithStepBudget,
// WithClock, ...) — config turns a YAML file into plain Go values; wiring
// those values into a World is the caller's job (see cmd/codecity/cmd).
//
// Promoted from the teacher's indirect github.com/goccy/go-yaml (pulled in
// transitively through go-snaps) to direct use: this is the first package
// in the lineage that actually reads a YAML file with it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the launcher's on-disk configuration. Zero value is not
// meaningful on its own; use Default() or Load().
type Config struct {
	// Scheduler holds the cooperative scheduler's tuning knobs.
	Scheduler SchedulerConfig `yaml:"scheduler"`
	// Snapshot holds where and how often the world is checkpointed.
	Snapshot SnapshotConfig `yaml:"snapshot"`
	// Listen holds the addresses the host process accepts connections on.
	Listen ListenConfig `yaml:"listen"`
}

// SchedulerConfig controls internal/scheduler.Scheduler's fairness knob.
type SchedulerConfig struct {
	// StepBudget is the maximum engine steps a single thread runs before
	// yielding to the next runnable thread in a Tick (spec §4.6). Zero
	// means "use the scheduler's own default".
	StepBudget int `yaml:"step_budget"`
}

// SnapshotConfig controls where checkpoints are written and how often the
// launcher takes one automatically.
type SnapshotConfig struct {
	// Path is the file a snapshot is written to and restored from.
	Path string `yaml:"path"`
	// Interval is how often the launcher checkpoints on its own, in
	// addition to any operator-triggered snapshot. Zero disables the
	// automatic checkpoint and leaves snapshotting manual.
	Interval time.Duration `yaml:"interval"`
}

// ListenConfig names the addresses a host process binds to. Both fields
// are optional; an empty one means "don't listen on this".
type ListenConfig struct {
	// Telnet is the address a line-oriented MOO-style client connects to.
	Telnet string `yaml:"telnet"`
	// HTTP is the address the inspect/status HTTP surface binds to.
	HTTP string `yaml:"http"`
}

// Default returns the configuration a launcher starts from when no
// codecity.yaml is present: a scheduler default of 0 (meaning "use
// internal/scheduler's own default"), snapshotting to ./codecity.snapshot
// every five minutes, and no listeners bound.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{StepBudget: 0},
		Snapshot: SnapshotConfig{
			Path:     "codecity.snapshot",
			Interval: 5 * time.Minute,
		},
	}
}

// Load reads and parses a YAML config file at path, starting from
// Default() so a file that only overrides a handful of fields still
// produces a complete Config. A missing file is not an error — Load
// returns Default() unchanged, since codecity.yaml is optional.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Write serializes cfg back to YAML at path, used by tests and by the
// `codecity init-config` convenience path (see cmd/codecity/cmd) to
// produce a starter file an operator can then edit.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
