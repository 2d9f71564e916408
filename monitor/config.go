package monitor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/provwatch/health"
	"github.com/jonwraymond/provwatch/secret"
)

// Config configures an Orchestrator. Zero values take the documented
// default; negative values are rejected by Validate.
type Config struct {
	// CheckInterval is the period of automatic checks run by a Scheduler.
	// It must outlast ClientWindow/ClientMaxChecks or scheduled rounds
	// are denied by the client gate.
	// Default: ClientWindow/ClientMaxChecks plus one minute (11 minutes)
	CheckInterval time.Duration

	// MaxConsecutiveFailures is the IsDown threshold used when the caller
	// passes a threshold <= 0.
	// Default: 3
	MaxConsecutiveFailures int

	// Timeout bounds a single probe attempt.
	// Default: 10 seconds
	Timeout time.Duration

	// RetryDelay is the wait between probe attempts.
	// Default: 1 second
	RetryDelay time.Duration

	// GlobalWindow and GlobalMaxChecks bound checks across all providers.
	// Default: 5 checks per 5 minutes
	GlobalWindow    time.Duration
	GlobalMaxChecks int

	// ClientWindow and ClientMaxChecks bound automatic checks per provider.
	// Default: 1 check per 10 minutes
	ClientWindow    time.Duration
	ClientMaxChecks int

	// ManualWindow and ManualMaxChecks bound manual checks per provider.
	// Default: 1 check per 2 minutes
	ManualWindow    time.Duration
	ManualMaxChecks int

	// ManualCooldown is the minimum time between a provider's last
	// completed probe and a manual check.
	// Default: 2 minutes
	ManualCooldown time.Duration

	// DebounceInterval coalesces status change notifications.
	// Default: 500ms
	DebounceInterval time.Duration

	// DefaultRetryAfter is the backoff applied to a rate limited provider
	// that did not say when to come back.
	// Default: 60 seconds
	DefaultRetryAfter time.Duration

	// ProbeAttempts is the number of probe invocations per check. Only
	// infrastructure failures are retried.
	// Default: 1 (no retry)
	ProbeAttempts int

	// MaxConcurrentProbes bounds the probes CheckAll runs at once.
	// Default: 0 (one per provider)
	MaxConcurrentProbes int
}

// DefaultConfig returns the configuration with every default applied.
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.GlobalWindow <= 0 {
		c.GlobalWindow = 5 * time.Minute
	}
	if c.GlobalMaxChecks <= 0 {
		c.GlobalMaxChecks = 5
	}
	if c.ClientWindow <= 0 {
		c.ClientWindow = 10 * time.Minute
	}
	if c.ClientMaxChecks <= 0 {
		c.ClientMaxChecks = 1
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = c.ClientWindow/time.Duration(c.ClientMaxChecks) + time.Minute
	}
	if c.ManualWindow <= 0 {
		c.ManualWindow = 2 * time.Minute
	}
	if c.ManualMaxChecks <= 0 {
		c.ManualMaxChecks = 1
	}
	if c.ManualCooldown <= 0 {
		c.ManualCooldown = 2 * time.Minute
	}
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = 500 * time.Millisecond
	}
	if c.DefaultRetryAfter <= 0 {
		c.DefaultRetryAfter = 60 * time.Second
	}
	if c.ProbeAttempts <= 0 {
		c.ProbeAttempts = 1
	}
}

// Validate rejects negative values. It does not apply defaults.
func (c Config) Validate() error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"check interval", c.CheckInterval},
		{"timeout", c.Timeout},
		{"retry delay", c.RetryDelay},
		{"global window", c.GlobalWindow},
		{"client window", c.ClientWindow},
		{"manual window", c.ManualWindow},
		{"manual cooldown", c.ManualCooldown},
		{"debounce interval", c.DebounceInterval},
		{"default retry after", c.DefaultRetryAfter},
	}
	counts := []struct {
		name  string
		value int
	}{
		{"max consecutive failures", c.MaxConsecutiveFailures},
		{"global max checks", c.GlobalMaxChecks},
		{"client max checks", c.ClientMaxChecks},
		{"manual max checks", c.ManualMaxChecks},
		{"probe attempts", c.ProbeAttempts},
		{"max concurrent probes", c.MaxConcurrentProbes},
	}

	var errs []error
	for _, d := range durations {
		if d.value < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must not be negative, got %s", health.ErrInvalidConfig, d.name, d.value))
		}
	}
	for _, n := range counts {
		if n.value < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must not be negative, got %d", health.ErrInvalidConfig, n.name, n.value))
		}
	}
	return errors.Join(errs...)
}

// FileConfig is the YAML form of Config. Durations are integer
// milliseconds.
type FileConfig struct {
	CheckIntervalMs        int64 `yaml:"check_interval_ms"`
	MaxConsecutiveFailures int   `yaml:"max_consecutive_failures"`
	TimeoutMs              int64 `yaml:"timeout_ms"`
	RetryDelayMs           int64 `yaml:"retry_delay_ms"`
	GlobalWindowMs         int64 `yaml:"global_window_ms"`
	GlobalMaxChecks        int   `yaml:"global_max_checks"`
	ClientWindowMs         int64 `yaml:"client_window_ms"`
	ClientMaxChecks        int   `yaml:"client_max_checks"`
	ManualWindowMs         int64 `yaml:"manual_window_ms"`
	ManualMaxChecks        int   `yaml:"manual_max_checks"`
	ManualCooldownMs       int64 `yaml:"manual_cooldown_ms"`
	DebounceIntervalMs     int64 `yaml:"debounce_interval_ms"`
	DefaultRetryAfterMs    int64 `yaml:"default_retry_after_ms"`
	ProbeAttempts          int   `yaml:"probe_attempts"`
	MaxConcurrentProbes    int   `yaml:"max_concurrent_probes"`
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// Config converts the file form into a Config.
func (f FileConfig) Config() Config {
	return Config{
		CheckInterval:          ms(f.CheckIntervalMs),
		MaxConsecutiveFailures: f.MaxConsecutiveFailures,
		Timeout:                ms(f.TimeoutMs),
		RetryDelay:             ms(f.RetryDelayMs),
		GlobalWindow:           ms(f.GlobalWindowMs),
		GlobalMaxChecks:        f.GlobalMaxChecks,
		ClientWindow:           ms(f.ClientWindowMs),
		ClientMaxChecks:        f.ClientMaxChecks,
		ManualWindow:           ms(f.ManualWindowMs),
		ManualMaxChecks:        f.ManualMaxChecks,
		ManualCooldown:         ms(f.ManualCooldownMs),
		DebounceInterval:       ms(f.DebounceIntervalMs),
		DefaultRetryAfter:      ms(f.DefaultRetryAfterMs),
		ProbeAttempts:          f.ProbeAttempts,
		MaxConcurrentProbes:    f.MaxConcurrentProbes,
	}
}

// ParseConfig parses a YAML monitor configuration. ${VAR} and
// ${VAR:-default} references are expanded from the environment first;
// unknown keys are rejected. The result is validated but defaults are
// not applied.
func ParseConfig(data []byte) (Config, error) {
	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("monitor: expanding config: %w", err)
	}

	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("monitor: parsing config: %w", err)
	}

	cfg := fc.Config()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML monitor configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("monitor: reading %s: %w", path, err)
	}
	return ParseConfig(data)
}
