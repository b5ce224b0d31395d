// Package config loads durlin's optional TOML configuration.
//
// Values are layered: Default, then the file, then command-line flags the
// user set explicitly. The CLI applies the last layer.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/roach88/durlin/internal/nvm"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "durlin.toml"

// Config mirrors the sections of durlin.toml.
type Config struct {
	Verify Verify `toml:"verify"`
	Runner Runner `toml:"runner"`
	Store  Store  `toml:"store"`
	Log    Log    `toml:"log"`
}

// Verify holds verifier defaults.
type Verify struct {
	Workers   int    `toml:"workers"`
	Policy    string `toml:"policy"`
	MaxStates int64  `toml:"max_states"`

	// Spec is used when neither --spec nor the scenario names a specification.
	Spec string `toml:"spec"`
}

// Runner holds runner defaults.
type Runner struct {
	// StallTimeout is a Go duration string such as "2s".
	StallTimeout string `toml:"stall_timeout"`
}

// Store locates the run history database. An empty Path disables it.
type Store struct {
	Path string `toml:"path"`
}

// Log configures the CLI's slog handler.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Verify: Verify{Workers: 1, Policy: string(nvm.PolicyDurable)},
		Runner: Runner{StallTimeout: "2s"},
		Log:    Log{Level: "info"},
	}
}

// Load reads path over the defaults. Keys the schema does not know are
// rejected so a typo never silently falls back to a default.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, &ConfigError{Code: CodeParse, Path: path, Message: err.Error()}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &ConfigError{
			Code:    CodeUnknownKey,
			Path:    path,
			Message: "unknown keys: " + strings.Join(keys, ", "),
		}
	}
	if err := cfg.Validate(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Resolve loads path when it is set. With no path it reads DefaultFile if
// one exists in the working directory and otherwise returns Default.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, &ConfigError{Code: CodeParse, Path: DefaultFile, Message: err.Error()}
	}
	return Load(DefaultFile)
}

// Validate checks every field.
func (c *Config) Validate() error {
	if c.Verify.Workers < 1 {
		return invalidf("verify.workers must be at least 1, got %d", c.Verify.Workers)
	}
	if c.Verify.MaxStates < 0 {
		return invalidf("verify.max_states must not be negative, got %d", c.Verify.MaxStates)
	}
	if _, err := nvm.ParsePolicy(c.Verify.Policy); err != nil {
		return invalidf("verify.policy: %v", err)
	}
	if d, err := time.ParseDuration(c.Runner.StallTimeout); err != nil {
		return invalidf("runner.stall_timeout: %v", err)
	} else if d <= 0 {
		return invalidf("runner.stall_timeout must be positive, got %s", d)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return invalidf("log.level: %v", err)
	}
	return nil
}

// Policy returns the configured recovery policy. Call after Validate.
func (c *Config) Policy() nvm.Policy {
	p, _ := nvm.ParsePolicy(c.Verify.Policy)
	return p
}

// StallTimeout returns the runner stall timeout. Call after Validate.
func (c *Config) StallTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Runner.StallTimeout)
	return d
}

// LogLevel returns the configured slog level. Call after Validate.
func (c *Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q (want debug, info, warn or error)", s)
	}
	return l, nil
}
