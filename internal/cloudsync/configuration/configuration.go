// Package configuration holds the tunables a reconciliation loop needs
// beyond what callers inject programmatically, loadable from YAML with an
// environment-variable overlay for local development. Grounded on the
// teacher's pkg/configuration/synchronization, generalized from a
// filesystem-sync-specific field set to this engine's own tunables.
package configuration

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Configuration is a human-readable, YAML-loadable set of engine tunables.
type Configuration struct {
	// Polling contains parameters governing the idle-tick backoff of the
	// Runnable harness.
	Polling struct {
		// IdleIntervalMilliseconds is how long Run sleeps between ticks when
		// the state has no pending changes. Zero means use the engine's
		// built-in default.
		IdleIntervalMilliseconds uint32 `yaml:"idleIntervalMilliseconds"`
	} `yaml:"polling"`

	// Mkdirs contains parameters governing SyncManager's recursive
	// directory-creation retries.
	Mkdirs struct {
		// MaxRetries bounds how many times mkdirs will recurse into parent
		// creation before giving up on a single tick (the recursion itself is
		// naturally bounded by path depth, but a pathological or cyclic
		// translator could otherwise loop indefinitely).
		MaxRetries uint32 `yaml:"maxRetries"`
	} `yaml:"mkdirs"`

	// Conflict contains parameters governing conflict-file naming.
	Conflict struct {
		// Suffix overrides the default ".conflicted" suffix appended to the
		// losing side's path during a hash-conflict split.
		Suffix string `yaml:"suffix"`
	} `yaml:"conflict"`
}

// Default returns a Configuration populated with the engine's built-in
// defaults (10ms idle poll, 32 mkdirs retries, ".conflicted" suffix).
func Default() Configuration {
	var c Configuration
	c.Polling.IdleIntervalMilliseconds = 10
	c.Mkdirs.MaxRetries = 32
	c.Conflict.Suffix = ".conflicted"
	return c
}

// Load reads a Configuration from a YAML file at path, filling in defaults
// for any field the file leaves zero-valued. A missing file is not an
// error — Default() is returned unchanged, matching the teacher's
// tolerant treatment of an absent project configuration file.
func Load(path string) (Configuration, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, errors.Wrap(err, "unable to read configuration file")
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(err, "unable to parse configuration file")
	}
	if c.Polling.IdleIntervalMilliseconds == 0 {
		c.Polling.IdleIntervalMilliseconds = Default().Polling.IdleIntervalMilliseconds
	}
	if c.Mkdirs.MaxRetries == 0 {
		c.Mkdirs.MaxRetries = Default().Mkdirs.MaxRetries
	}
	if c.Conflict.Suffix == "" {
		c.Conflict.Suffix = Default().Conflict.Suffix
	}
	return c, nil
}

// LoadWithEnvOverlay behaves like Load, then overlays a .env file (if
// present) onto the process environment via godotenv before resolving the
// three CLOUDSYNC_* overrides below, matching the teacher's convention of
// layering a local .env file over checked-in project configuration for
// development.
//
// Recognized overrides: CLOUDSYNC_CONFLICT_SUFFIX, CLOUDSYNC_MKDIRS_MAX_RETRIES,
// CLOUDSYNC_POLL_INTERVAL_MS.
func LoadWithEnvOverlay(path, envPath string) (Configuration, error) {
	c, err := Load(path)
	if err != nil {
		return c, err
	}

	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return c, errors.Wrap(err, "unable to load .env overlay")
	}

	if v := os.Getenv("CLOUDSYNC_CONFLICT_SUFFIX"); v != "" {
		c.Conflict.Suffix = v
	}
	if v := os.Getenv("CLOUDSYNC_MKDIRS_MAX_RETRIES"); v != "" {
		if n, err := parseUint32(v); err == nil {
			c.Mkdirs.MaxRetries = n
		}
	}
	if v := os.Getenv("CLOUDSYNC_POLL_INTERVAL_MS"); v != "" {
		if n, err := parseUint32(v); err == nil {
			c.Polling.IdleIntervalMilliseconds = n
		}
	}

	return c, nil
}

func parseUint32(s string) (uint32, error) {
	var n uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.Errorf("invalid unsigned integer: %q", s)
		}
		n = n*10 + uint64(r-'0')
	}
	return uint32(n), nil
}
