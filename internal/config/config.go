// Package config provides Viper-based configuration loading for the lottery service.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds listener settings.
type ServerConfig struct {
	// HTTPHost is the bind address for the JSON API.
	HTTPHost string `mapstructure:"http_host"`
	// HTTPPort is the TCP port for the JSON API.
	HTTPPort int `mapstructure:"http_port"`
	// GRPCPort is the TCP port for the gRPC health service. Zero disables it.
	GRPCPort int `mapstructure:"grpc_port"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPAddr returns the "host:port" API listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", s.HTTPHost, s.HTTPPort)
}

// GRPCAddr returns the "host:port" health service listen address.
func (s ServerConfig) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", s.HTTPHost, s.GRPCPort)
}

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Driver selects "postgres" or the non-persistent "memory" store.
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DrawConfig holds draw scheduling and synthesis tuning.
type DrawConfig struct {
	// IntervalDays is the length of one draw period.
	IntervalDays    int     `mapstructure:"interval_days"`
	HistoryWindow   int     `mapstructure:"history_window"`
	PulseWindow     int     `mapstructure:"pulse_window"`
	SignatureWindow int     `mapstructure:"signature_window"`
	FirstPrizeChaos float64 `mapstructure:"first_prize_chaos"`
	FrontChaos      float64 `mapstructure:"front_chaos"`
	BackChaos       float64 `mapstructure:"back_chaos"`
	FrontBaseChaos  float64 `mapstructure:"front_base_chaos"`
	BackBaseChaos   float64 `mapstructure:"back_base_chaos"`
	UniqueAttempts  int     `mapstructure:"unique_attempts"`
	DefaultChaos    float64 `mapstructure:"default_chaos"`
	Algorithm       string  `mapstructure:"algorithm"`
	// NarrativeScript is an optional Lua file defining narrate(facts).
	NarrativeScript string `mapstructure:"narrative_script"`
	// ScriptInstructionLimit caps Lua opcodes per narration. Zero uses the default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Interval returns the draw period length.
func (d DrawConfig) Interval() time.Duration {
	return time.Duration(d.IntervalDays) * 24 * time.Hour
}

// PredictionConfig holds AI number-suggestion settings. An empty APIKey
// disables the feature.
type PredictionConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether an API key is configured.
func (p PredictionConfig) Enabled() bool {
	return p.APIKey != ""
}

// AuthConfig holds the operator credential. An empty PasswordHash leaves
// operator routes open.
type AuthConfig struct {
	OperatorUser string `mapstructure:"operator_user"`
	// PasswordHash is a bcrypt hash of the operator password.
	PasswordHash string `mapstructure:"password_hash"`
}

// RateLimitConfig holds per-client request limits for public write routes.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Draw       DrawConfig       `mapstructure:"draw"`
	Prediction PredictionConfig `mapstructure:"prediction"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateServer(c.Server),
		validateDatabase(c.Database),
		validateLogging(c.Logging),
		validateDraw(c.Draw),
		validatePrediction(c.Prediction),
		validateAuth(c.Auth),
		validateRateLimit(c.RateLimit),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.HTTPPort < 1 || s.HTTPPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.http_port must be 1-65535, got %d", s.HTTPPort))
	}
	if s.GRPCPort < 0 || s.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.grpc_port must be 0-65535, got %d", s.GRPCPort))
	}
	if s.GRPCPort != 0 && s.GRPCPort == s.HTTPPort {
		errs = append(errs, "server.grpc_port must differ from server.http_port")
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdown_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	switch d.Driver {
	case DriverMemory:
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("database.driver must be one of [postgres, memory], got %q", d.Driver)
	}
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateDraw(d DrawConfig) error {
	var errs []string
	if d.IntervalDays < 1 {
		errs = append(errs, fmt.Sprintf("draw.interval_days must be >= 1, got %d", d.IntervalDays))
	}
	for name, w := range map[string]int{
		"history_window":   d.HistoryWindow,
		"pulse_window":     d.PulseWindow,
		"signature_window": d.SignatureWindow,
		"unique_attempts":  d.UniqueAttempts,
	} {
		if w < 1 {
			errs = append(errs, fmt.Sprintf("draw.%s must be >= 1, got %d", name, w))
		}
	}
	for name, m := range map[string]float64{
		"first_prize_chaos": d.FirstPrizeChaos,
		"front_chaos":       d.FrontChaos,
		"back_chaos":        d.BackChaos,
		"front_base_chaos":  d.FrontBaseChaos,
		"back_base_chaos":   d.BackBaseChaos,
		"default_chaos":     d.DefaultChaos,
	} {
		if m < 0 || m > 1 {
			errs = append(errs, fmt.Sprintf("draw.%s must be within [0, 1], got %g", name, m))
		}
	}
	if d.Algorithm == "" {
		errs = append(errs, "draw.algorithm must not be empty")
	}
	if d.ScriptInstructionLimit < 0 {
		errs = append(errs, "draw.script_instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		// map iteration order is random; keep messages stable
		sort.Strings(errs)
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePrediction(p PredictionConfig) error {
	if !p.Enabled() {
		return nil
	}
	var errs []string
	if p.Model == "" {
		errs = append(errs, "prediction.model must not be empty")
	}
	if p.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("prediction.max_tokens must be >= 1, got %d", p.MaxTokens))
	}
	if p.Timeout <= 0 {
		errs = append(errs, "prediction.timeout must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAuth(a AuthConfig) error {
	if a.PasswordHash != "" && a.OperatorUser == "" {
		return errors.New("auth.operator_user must not be empty when auth.password_hash is set")
	}
	return nil
}

func validateRateLimit(r RateLimitConfig) error {
	var errs []string
	if r.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Sprintf("ratelimit.requests_per_second must be positive, got %g", r.RequestsPerSecond))
	}
	if r.Burst < 1 {
		errs = append(errs, fmt.Sprintf("ratelimit.burst must be >= 1, got %d", r.Burst))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with LOTTO_ prefix
	v.SetEnvPrefix("LOTTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the built-in defaults.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 50061)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "lotto")
	v.SetDefault("database.password", "lotto")
	v.SetDefault("database.name", "lotto")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("draw.interval_days", 15)
	v.SetDefault("draw.history_window", 30)
	v.SetDefault("draw.pulse_window", 15)
	v.SetDefault("draw.signature_window", 20)
	v.SetDefault("draw.first_prize_chaos", 0.65)
	v.SetDefault("draw.front_chaos", 0.55)
	v.SetDefault("draw.back_chaos", 0.8)
	v.SetDefault("draw.front_base_chaos", 0.5)
	v.SetDefault("draw.back_base_chaos", 0.7)
	v.SetDefault("draw.unique_attempts", 100)
	v.SetDefault("draw.default_chaos", 0.5)
	v.SetDefault("draw.algorithm", "Stardust Mixer")
	v.SetDefault("draw.narrative_script", "")
	v.SetDefault("draw.script_instruction_limit", 100000)

	v.SetDefault("prediction.api_key", "")
	v.SetDefault("prediction.base_url", "")
	v.SetDefault("prediction.model", "claude-sonnet-4-5")
	v.SetDefault("prediction.max_tokens", 512)
	v.SetDefault("prediction.timeout", "30s")

	v.SetDefault("auth.operator_user", "operator")
	v.SetDefault("auth.password_hash", "")

	v.SetDefault("ratelimit.requests_per_second", 5)
	v.SetDefault("ratelimit.burst", 10)
}
