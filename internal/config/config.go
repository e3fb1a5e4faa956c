// Package config implements the engine's configuration surface: the
// options recognized by Store.Open (§6 of the functional spec), loaded
// from YAML and validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
)

// Config is the complete set of options Store.Open recognizes.
type Config struct {
	// RunInMemory bypasses on-disk files entirely; DataDirectory,
	// TempPath and JournalPath are ignored when true.
	RunInMemory bool `yaml:"run_in_memory"`

	// DataDirectory must be set unless RunInMemory is true. Validate is
	// its only reader; durable state is written only to JournalPath.
	DataDirectory string `yaml:"data_directory"`

	// TempPath is accepted from YAML but not read by the engine.
	TempPath string `yaml:"temp_path"`

	// JournalPath is the write-ahead journal file. Durability is
	// disabled if empty (and RunInMemory is false): commits succeed but
	// are lost on process exit.
	JournalPath string `yaml:"journal_path"`

	// AllowIncrementalBackups is accepted as a free-form value in YAML
	// so that a malformed (non-boolean) setting is reported by Validate
	// as InvalidArgument rather than a YAML unmarshal error.
	AllowIncrementalBackups any `yaml:"allow_incremental_backups"`
}

// Default returns the engine's default configuration: in-memory, no
// durability, incremental backups disabled.
func Default() *Config {
	return &Config{
		RunInMemory:             true,
		AllowIncrementalBackups: false,
	}
}

// Load reads and parses a YAML configuration file, applying defaults for
// any field YAML leaves unset, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration for internal consistency, matching
// the functional spec's requirement that AllowIncrementalBackups be
// rejected as invalid if not parseable as bool.
func (c *Config) Validate() error {
	var errs []error

	if !c.RunInMemory {
		if c.DataDirectory == "" {
			errs = append(errs, fmt.Errorf("%w: data_directory is required unless run_in_memory is set", domainerrors.ErrInvalidArgument))
		}
	}

	if _, err := incrementalBackupsBool(c.AllowIncrementalBackups); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// IncrementalBackupsAllowed resolves AllowIncrementalBackups to a bool,
// per Validate's acceptance rules.
func (c *Config) IncrementalBackupsAllowed() bool {
	b, _ := incrementalBackupsBool(c.AllowIncrementalBackups)
	return b
}

func incrementalBackupsBool(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("%w: allow_incremental_backups: %q is not a valid bool", domainerrors.ErrInvalidArgument, t)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: allow_incremental_backups: unsupported type %T", domainerrors.ErrInvalidArgument, v)
	}
}
