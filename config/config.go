/*
 *
 * pageid - page identity validation for browser-driven tests
 * Copyright (C) 2021 Load Impact
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package config holds the run configuration of a page registry.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PAGEID"

// TimeoutMode decides how a timed out Url or Title wait is reported.
type TimeoutMode string

const (
	// TimeoutModeFail counts a timed out rule as a failed rule.
	TimeoutModeFail TimeoutMode = "fail"
	// TimeoutModeError returns a timeout error once all rules are evaluated.
	TimeoutModeError TimeoutMode = "error"
)

// AmbiguityPolicy decides what happens when several page types match.
type AmbiguityPolicy string

const (
	AmbiguityWarn   AmbiguityPolicy = "warn"
	AmbiguityError  AmbiguityPolicy = "error"
	AmbiguityIgnore AmbiguityPolicy = "ignore"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// Config is the registry configuration.
type Config struct {
	// Timeout bounds every blocking Url or Title wait.
	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`
	// PollInterval is how often surfaces re-read the page while waiting.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"100ms"`
	TimeoutMode  TimeoutMode   `envconfig:"TIMEOUT_MODE" default:"fail"`
	// LegacyFallback lets page types without validations fall back to their
	// legacy URL pattern instead of failing.
	LegacyFallback    bool            `envconfig:"LEGACY_FALLBACK" default:"false"`
	Ambiguity         AmbiguityPolicy `envconfig:"AMBIGUITY" default:"warn"`
	LogLevel          string          `envconfig:"LOG_LEVEL" default:"info"`
	LogCategoryFilter string          `envconfig:"LOG_CATEGORY_FILTER"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		TimeoutMode:  TimeoutModeFail,
		Ambiguity:    AmbiguityWarn,
		LogLevel:     "info",
	}
}

// WithDefaults returns c with every unset field taken from Default.
func (c Config) WithDefaults() Config {
	d := Default()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.TimeoutMode == "" {
		c.TimeoutMode = d.TimeoutMode
	}
	if c.Ambiguity == "" {
		c.Ambiguity = d.Ambiguity
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	return c
}

// Load reads the configuration from PAGEID_* environment variables and
// validates it.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("reading %s environment: %w", EnvPrefix, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf(`invalid timeout "%s": precondition 0 < TIMEOUT failed`, c.Timeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf(`invalid poll interval "%s": precondition 0 < POLL_INTERVAL failed`, c.PollInterval)
	}
	switch c.TimeoutMode {
	case TimeoutModeFail, TimeoutModeError:
	default:
		return fmt.Errorf("invalid timeout mode %q: must be %q or %q", c.TimeoutMode, TimeoutModeFail, TimeoutModeError)
	}
	switch c.Ambiguity {
	case AmbiguityWarn, AmbiguityError, AmbiguityIgnore:
	default:
		return fmt.Errorf("invalid ambiguity policy %q: must be %q, %q or %q",
			c.Ambiguity, AmbiguityWarn, AmbiguityError, AmbiguityIgnore)
	}
	return nil
}
