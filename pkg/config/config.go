/*
Copyright 2025 The VoltFleet Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FLEET"

// Market registry backends.
const (
	MarketBackendMemory = "memory"
	MarketBackendSQLite = "sqlite"
)

// Configuration keys. Flags, env vars and config file entries share them.
const (
	KeyConfigFile         = "config"
	KeyTickInterval       = "tick-interval"
	KeyRandomSeed         = "random-seed"
	KeySeedFile           = "seed-file"
	KeyProfilesFile       = "profiles-file"
	KeyDefaultInvestorID  = "default-investor-id"
	KeyMarketBackend      = "market-backend"
	KeySQLiteDSN          = "sqlite-dsn"
	KeyHistoryRetention   = "history-retention"
	KeyHistoryMaxPoints   = "history-max-points"
	KeySummaryInterval    = "summary-interval"
	KeyLogDevelopment     = "log-development"
	KeyLogVerbosity       = "log-verbosity"
	KeyMetricsBindAddress = "metrics-bind-address"
)

// Config is the validated process configuration.
type Config struct {
	TickInterval time.Duration
	// RandomSeed seeds the telemetry source; 0 draws a random seed.
	RandomSeed int64
	// SeedFile is the fleet seed; empty selects the embedded demo fleet.
	SeedFile     string
	ProfilesFile string

	DefaultInvestorID string

	MarketBackend string
	SQLiteDSN     string

	HistoryRetention time.Duration
	HistoryMaxPoints int

	// SummaryInterval is how often the driver logs a fleet summary; 0 disables it.
	SummaryInterval time.Duration

	LogDevelopment bool
	LogVerbosity   int

	// MetricsBindAddress serves /metrics; "0" disables the endpoint.
	MetricsBindAddress string
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		TickInterval:       5 * time.Second,
		DefaultInvestorID:  "user-001",
		MarketBackend:      MarketBackendMemory,
		SQLiteDSN:          ":memory:",
		HistoryRetention:   time.Hour,
		HistoryMaxPoints:   720,
		SummaryInterval:    time.Minute,
		MetricsBindAddress: "0",
	}
}

// NewFlagSet returns a flag set with every configuration flag registered.
func NewFlagSet(name string) *pflag.FlagSet {
	d := Defaults()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String(KeyConfigFile, "", "Path to a YAML config file.")
	fs.Duration(KeyTickInterval, d.TickInterval, "Period between simulator ticks.")
	fs.Int64(KeyRandomSeed, d.RandomSeed, "Seed for the telemetry source (0 = random).")
	fs.String(KeySeedFile, d.SeedFile, "YAML fleet seed file (empty = embedded demo fleet).")
	fs.String(KeyProfilesFile, d.ProfilesFile, "YAML per-asset-type simulation profiles.")
	fs.String(KeyDefaultInvestorID, d.DefaultInvestorID, "Investor id used for mint commands.")
	fs.String(KeyMarketBackend, d.MarketBackend, "Secondary market backend: memory or sqlite.")
	fs.String(KeySQLiteDSN, d.SQLiteDSN, "SQLite DSN for the sqlite market backend.")
	fs.Duration(KeyHistoryRetention, d.HistoryRetention, "How long soh history is kept.")
	fs.Int(KeyHistoryMaxPoints, d.HistoryMaxPoints, "Maximum soh history points per asset.")
	fs.Duration(KeySummaryInterval, d.SummaryInterval, "How often a fleet summary is logged (0 = never).")
	fs.Bool(KeyLogDevelopment, d.LogDevelopment, "Use the development (console) log encoder.")
	fs.Int(KeyLogVerbosity, d.LogVerbosity, "Log verbosity: 0 info, 1 debug, 2 trace.")
	fs.String(KeyMetricsBindAddress, d.MetricsBindAddress, "Address for the /metrics endpoint (0 = disabled).")
	return fs
}

// Load resolves the configuration from fs (already parsed), the
// environment and the optional config file.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	setDefaults(v)

	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		TickInterval:       v.GetDuration(KeyTickInterval),
		RandomSeed:         v.GetInt64(KeyRandomSeed),
		SeedFile:           v.GetString(KeySeedFile),
		ProfilesFile:       v.GetString(KeyProfilesFile),
		DefaultInvestorID:  v.GetString(KeyDefaultInvestorID),
		MarketBackend:      strings.ToLower(v.GetString(KeyMarketBackend)),
		SQLiteDSN:          v.GetString(KeySQLiteDSN),
		HistoryRetention:   v.GetDuration(KeyHistoryRetention),
		HistoryMaxPoints:   v.GetInt(KeyHistoryMaxPoints),
		SummaryInterval:    v.GetDuration(KeySummaryInterval),
		LogDevelopment:     v.GetBool(KeyLogDevelopment),
		LogVerbosity:       v.GetInt(KeyLogVerbosity),
		MetricsBindAddress: v.GetString(KeyMetricsBindAddress),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyTickInterval, d.TickInterval)
	v.SetDefault(KeyDefaultInvestorID, d.DefaultInvestorID)
	v.SetDefault(KeyMarketBackend, d.MarketBackend)
	v.SetDefault(KeySQLiteDSN, d.SQLiteDSN)
	v.SetDefault(KeyHistoryRetention, d.HistoryRetention)
	v.SetDefault(KeyHistoryMaxPoints, d.HistoryMaxPoints)
	v.SetDefault(KeySummaryInterval, d.SummaryInterval)
	v.SetDefault(KeyMetricsBindAddress, d.MetricsBindAddress)
}

// Validate checks value ranges and cross-field constraints.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyTickInterval, c.TickInterval)
	}
	if strings.TrimSpace(c.DefaultInvestorID) == "" {
		return fmt.Errorf("%s must not be empty", KeyDefaultInvestorID)
	}
	switch c.MarketBackend {
	case MarketBackendMemory:
	case MarketBackendSQLite:
		if strings.TrimSpace(c.SQLiteDSN) == "" {
			return fmt.Errorf("%s is required for the sqlite market backend", KeySQLiteDSN)
		}
	default:
		return fmt.Errorf("%s must be %q or %q, got %q",
			KeyMarketBackend, MarketBackendMemory, MarketBackendSQLite, c.MarketBackend)
	}
	if c.HistoryRetention <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyHistoryRetention, c.HistoryRetention)
	}
	if c.HistoryMaxPoints <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyHistoryMaxPoints, c.HistoryMaxPoints)
	}
	if c.SummaryInterval < 0 {
		return fmt.Errorf("%s must not be negative, got %s", KeySummaryInterval, c.SummaryInterval)
	}
	if c.LogVerbosity < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyLogVerbosity, c.LogVerbosity)
	}
	return nil
}

// MetricsEnabled reports whether the /metrics endpoint should be served.
func (c Config) MetricsEnabled() bool {
	return c.MetricsBindAddress != "" && c.MetricsBindAddress != "0"
}
