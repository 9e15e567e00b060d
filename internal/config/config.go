// Package config resolves the process-wide configuration this upgrader
// needs from its environment, once, into an immutable value. Nothing here
// is a package-level singleton: every caller gets Config threaded to it
// explicitly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/juju/errors"

	"github.com/canonical/cou/internal/application"
)

const (
	defaultStandardIdleTimeout = 5 * time.Minute
	defaultLongIdleTimeout     = 30 * time.Minute
	appDirName                 = "cou"
)

// Config is the immutable result of reading environment variables (and an
// optional explicit --model flag) once at process startup.
type Config struct {
	// ModelName is the resolved Juju model name, following the order:
	// explicit flag → JUJU_MODEL → MODEL_NAME → empty (meaning "ask the
	// controller for its current model").
	ModelName string

	// Timeouts bundles COU_STANDARD_IDLE_TIMEOUT / COU_LONG_IDLE_TIMEOUT,
	// threaded into internal/application.PlanOptions.
	Timeouts application.Timeouts

	// DataDir is COU_DATA, the directory logs (and any future persisted
	// state) are written under.
	DataDir string
}

// Load reads the environment (and explicitModel, the --model flag's value,
// which always wins when non-empty) into a Config.
func Load(explicitModel string) (Config, error) {
	standard, err := envDuration("COU_STANDARD_IDLE_TIMEOUT", defaultStandardIdleTimeout)
	if err != nil {
		return Config{}, err
	}
	long, err := envDuration("COU_LONG_IDLE_TIMEOUT", defaultLongIdleTimeout)
	if err != nil {
		return Config{}, err
	}

	dataDir, err := dataDir()
	if err != nil {
		return Config{}, err
	}

	return Config{
		ModelName: resolveModelName(explicitModel),
		Timeouts:  application.Timeouts{Standard: standard, Long: long},
		DataDir:   dataDir,
	}, nil
}

// resolveModelName implements the fallback chain documented on ModelName;
// the controller's current model is resolved later, by whatever holds the
// live Juju connection, when this returns "".
func resolveModelName(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv("JUJU_MODEL"); v != "" {
		return v
	}
	return os.Getenv("MODEL_NAME")
}

// envDuration reads name as a count of whole seconds (matching the
// original implementation's int-seconds environment variables), falling
// back to def when unset.
func envDuration(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	seconds, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Annotatef(err, "parsing %s=%q as seconds", name, v)
	}
	return time.Duration(seconds) * time.Second, nil
}

// dataDir resolves COU_DATA, defaulting to $HOME/.local/share/cou (ported
// from the original's $USER-keyed default, using the user's home
// directory instead for portability).
func dataDir() (string, error) {
	if v := os.Getenv("COU_DATA"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".", nil //nolint:nilerr // no home directory is not fatal; fall back to cwd like the original's Path(".")
	}
	return filepath.Join(home, ".local", "share", appDirName), nil
}

// LogDir is the directory log files are written under: DataDir/log.
func (c Config) LogDir() string {
	return filepath.Join(c.DataDir, "log")
}

// String renders the config for debug logging, never including anything
// sensitive (there is nothing sensitive in this struct today).
func (c Config) String() string {
	return fmt.Sprintf("Config{ModelName:%q, Timeouts:{Standard:%s, Long:%s}, DataDir:%q}",
		c.ModelName, c.Timeouts.Standard, c.Timeouts.Long, c.DataDir)
}
