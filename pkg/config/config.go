package config

import (
	"time"

	"github.com/arthur-debert/devsync/pkg/conflicts"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
)

// Config is the complete devsync configuration.
type Config struct {
	Install Install `koanf:"install"`
	Merge   Merge   `koanf:"merge"`
	Backup  Backup  `koanf:"backup"`
	Tracker Tracker `koanf:"tracker"`
	Output  Output  `koanf:"output"`
}

// Install holds installation defaults.
type Install struct {
	ConflictPolicy       conflicts.Policy `koanf:"conflict_policy"`
	NonInteractivePolicy conflicts.Policy `koanf:"non_interactive_policy"`
	// Tools to install for; empty means detect.
	Tools       []string `koanf:"tools"`
	Concurrency int      `koanf:"concurrency"`
	// Verbatim disables the merge capability.
	Verbatim bool `koanf:"verbatim"`
}

// Merge configures the external merge program.
type Merge struct {
	Command []string      `koanf:"command"`
	Timeout time.Duration `koanf:"timeout"`
}

// Backup holds backup location and retention.
type Backup struct {
	Dir    string        `koanf:"dir"`
	Retain int           `koanf:"retain"`
	MaxAge time.Duration `koanf:"max_age"`
}

// Tracker holds the tracker file location and lock timeout.
type Tracker struct {
	File        string        `koanf:"file"`
	LockTimeout time.Duration `koanf:"lock_timeout"`
}

// Output selects how results are printed.
type Output struct {
	Format string `koanf:"format"`
	Color  bool   `koanf:"color"`
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ToolIDs returns the configured tools.
func (c *Config) ToolIDs() []types.ToolID {
	return types.ParseTools(c.Install.Tools)
}

// MergeAvailable reports whether a merge program is configured and enabled.
func (c *Config) MergeAvailable() bool {
	return !c.Install.Verbatim && len(c.Merge.Command) > 0
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	if _, err := conflicts.ParsePolicy(string(c.Install.ConflictPolicy)); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "install.conflict_policy")
	}
	if _, err := conflicts.ParseNonInteractive(string(c.Install.NonInteractivePolicy)); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "install.non_interactive_policy")
	}
	if err := registry.Validate(c.ToolIDs()); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "install.tools")
	}

	for key, n := range map[string]int64{
		"install.concurrency":  int64(c.Install.Concurrency),
		"backup.retain":        int64(c.Backup.Retain),
		"backup.max_age":       int64(c.Backup.MaxAge),
		"merge.timeout":        int64(c.Merge.Timeout),
		"tracker.lock_timeout": int64(c.Tracker.LockTimeout),
	} {
		if n < 0 {
			return errors.Newf(errors.ErrConfigValid, "%s cannot be negative", key).
				WithDetail("key", key)
		}
	}

	switch c.Output.Format {
	case FormatText, FormatJSON:
	default:
		return errors.Newf(errors.ErrConfigValid, "output.format must be %s or %s, got %q",
			FormatText, FormatJSON, c.Output.Format)
	}
	return nil
}
