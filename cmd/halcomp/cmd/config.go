/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	hal "github.com/blacktop/go-linuxcnc-hal"
	"github.com/blacktop/go-linuxcnc-hal/rtapi"
	"github.com/spf13/viper"
)

// Config is the halcomp configuration, read from flags, HALCOMP_* environment
// variables and an optional YAML file.
type Config struct {
	Component ComponentConfig `mapstructure:"component"`
	Sim       SimConfig       `mapstructure:"sim"`
	Log       LogConfig       `mapstructure:"log"`
}

// ComponentConfig controls the component the commands create.
type ComponentConfig struct {
	// Name overrides the command's default component name
	Name string `mapstructure:"name"`
	// Period is the poll interval of the component loop
	Period time.Duration `mapstructure:"period"`
	// Duration stops the loop after this long (0 = run until signalled)
	Duration time.Duration `mapstructure:"duration"`
}

// SimConfig controls the in-process HAL simulator.
type SimConfig struct {
	// Enabled runs against halsim instead of liblinuxcnchal
	Enabled bool `mapstructure:"enabled"`
	// ArenaSize is the size of the simulated shared memory in bytes
	ArenaSize int `mapstructure:"arena_size"`
}

// LogConfig controls where log output goes.
type LogConfig struct {
	// Level is the RTAPI message level: none, err, warn, info, dbg or all
	Level string `mapstructure:"level"`
	// Fixed prints every message at ERR instead of its own level
	Fixed bool `mapstructure:"fixed"`
	// Destination is "rtapi" or "stderr"
	Destination string `mapstructure:"destination"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Component: ComponentConfig{
			Period: time.Second,
		},
		Sim: SimConfig{
			ArenaSize: 64 << 10,
		},
		Log: LogConfig{
			Level:       "info",
			Destination: "rtapi",
		},
	}
}

// SetDefaults registers the defaults with viper.
func SetDefaults() {
	defaults := Default()
	viper.SetDefault("component.name", defaults.Component.Name)
	viper.SetDefault("component.period", defaults.Component.Period)
	viper.SetDefault("component.duration", defaults.Component.Duration)
	viper.SetDefault("sim.enabled", defaults.Sim.Enabled)
	viper.SetDefault("sim.arena_size", defaults.Sim.ArenaSize)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.fixed", defaults.Log.Fixed)
	viper.SetDefault("log.destination", defaults.Log.Destination)
}

// Load reads the configuration from viper and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values halcomp cannot use.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Component.Name) > hal.MaxNameLen {
		errs = append(errs, fmt.Errorf("component.name: %w", hal.ErrNameLength))
	}
	if c.Component.Period <= 0 {
		errs = append(errs, fmt.Errorf("component.period must be positive, got %s", c.Component.Period))
	}
	if c.Component.Duration < 0 {
		errs = append(errs, fmt.Errorf("component.duration must not be negative, got %s", c.Component.Duration))
	}
	if c.Sim.ArenaSize <= 0 {
		errs = append(errs, fmt.Errorf("sim.arena_size must be positive, got %d", c.Sim.ArenaSize))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Destination {
	case "rtapi", "stderr":
	default:
		errs = append(errs, fmt.Errorf("log.destination must be rtapi or stderr, got %q", c.Log.Destination))
	}
	return errors.Join(errs...)
}

// ParseLevel parses an RTAPI message level name.
func ParseLevel(s string) (rtapi.Level, error) {
	switch strings.ToLower(s) {
	case "none":
		return rtapi.LevelNone, nil
	case "err", "error":
		return rtapi.LevelErr, nil
	case "warn", "warning":
		return rtapi.LevelWarn, nil
	case "info":
		return rtapi.LevelInfo, nil
	case "dbg", "debug":
		return rtapi.LevelDebug, nil
	case "all":
		return rtapi.LevelAll, nil
	}
	return rtapi.LevelNone, fmt.Errorf("unknown level %q", s)
}
