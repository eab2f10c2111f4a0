package brk

import (
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

type (
	// configFile is the top-level JSON structure.
	configFile struct {
		Pipelines map[string]PipelineConfig `json:"pipelines"`
	}

	// PipelineConfig holds the decoded configuration for a single
	// pipeline. Export it to embed in your own app config structs for
	// JSON or YAML unmarshaling, then call [BuildOptions] to obtain
	// functional options for [NewPipeline].
	PipelineConfig struct {
		// CircuitBreaker configures the breaker stage.
		// Optional. Example: {"failure_threshold": 2}.
		CircuitBreaker *BreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
		// Retry configures the retry stage.
		// Optional. Example: {"max_retries": 3, "delay": "none"}.
		Retry *RetryStageConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	}

	// BreakerConfig holds circuit breaker configuration values. Embed it
	// (via [PipelineConfig]) in your own config struct for JSON or YAML
	// unmarshaling.
	BreakerConfig struct {
		// BreakDuration is the duration the breaker stays open.
		// Optional. Parsed via time.ParseDuration, must not be
		// negative. Example: "30s".
		BreakDuration *string `json:"break_duration,omitempty" yaml:"break_duration,omitempty"`
		// FailureThreshold is the number of consecutive failures
		// before opening. Optional, must be at least 1. Example: 2.
		FailureThreshold *int `json:"failure_threshold,omitempty" yaml:"failure_threshold,omitempty"`
	}

	// RetryStageConfig holds retry configuration values. Embed it (via
	// [PipelineConfig]) in your own config struct for JSON or YAML
	// unmarshaling.
	RetryStageConfig struct {
		// Delay is the delay strategy name. Optional, defaults to
		// "none". One of: "none", "fixed", "exponential",
		// "exponential_jitter".
		Delay *string `json:"delay,omitempty" yaml:"delay,omitempty"`
		// BaseDelay is the base delay for the strategy. Required for
		// every strategy except "none". Parsed via
		// time.ParseDuration. Example: "100ms".
		BaseDelay *string `json:"base_delay,omitempty" yaml:"base_delay,omitempty"`
		// MaxDelay caps the computed delay for the exponential
		// strategies. Optional. Parsed via time.ParseDuration.
		// Example: "5s".
		MaxDelay *string `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
		// MaxRetries is the number of re-attempts after the first
		// call. Optional, must not be negative. Example: 3.
		MaxRetries *int `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	}
)

// LoadConfig reads a JSON configuration file and stores the pipeline
// configurations in a [Registry]. Actual [Pipeline] instances are not
// created until [GetPipeline] is called, allowing the caller to provide
// type parameters and additional code-level options.
//
// Duration values (break_duration, base_delay, max_delay) are parsed using
// [time.ParseDuration].
//
// Supported delay strategies: "none", "fixed", "exponential",
// "exponential_jitter".
func LoadConfig(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("brk: read config: %w", err)
	}

	var cfg configFile
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("brk: parse config: %w", err)
	}

	// Validate all pipelines eagerly so errors surface at load time.
	for name, pc := range cfg.Pipelines {
		if _, buildErr := BuildOptions(&pc); buildErr != nil {
			return nil, fmt.Errorf("brk: pipeline %q: %w", name, buildErr)
		}
	}

	reg := NewRegistry()
	reg.mu.Lock()
	reg.configs = cfg.Pipelines
	reg.mu.Unlock()

	return reg, nil
}

// BuildOptions converts a [PipelineConfig] into functional options suitable
// for [NewPipeline]. Use this when you embed [PipelineConfig] in your own
// config struct and want to build a pipeline without going through
// [LoadConfig].
func BuildOptions(pc *PipelineConfig) ([]Option, error) {
	var opts []Option

	if pc.CircuitBreaker != nil {
		if pc.CircuitBreaker.FailureThreshold != nil {
			threshold := *pc.CircuitBreaker.FailureThreshold
			if threshold < 1 {
				return nil, fmt.Errorf(
					"circuit_breaker.failure_threshold: must be at least 1, got %d",
					threshold,
				)
			}

			opts = append(opts, WithFailureThreshold(threshold))
		}

		if pc.CircuitBreaker.BreakDuration != nil {
			breakDur, err := time.ParseDuration(
				*pc.CircuitBreaker.BreakDuration,
			)
			if err != nil {
				return nil, fmt.Errorf(
					"circuit_breaker.break_duration: %w",
					err,
				)
			}

			if breakDur < 0 {
				return nil, fmt.Errorf(
					"circuit_breaker.break_duration: must not be negative, got %v",
					breakDur,
				)
			}

			opts = append(opts, WithBreakDuration(breakDur))
		}
	}

	if pc.Retry != nil {
		if pc.Retry.MaxRetries != nil {
			retries := *pc.Retry.MaxRetries
			if retries < 0 {
				return nil, fmt.Errorf(
					"retry.max_retries: must not be negative, got %d",
					retries,
				)
			}

			opts = append(opts, WithMaxRetries(retries))
		}

		strategy, err := parseDelayStrategy(
			pc.Retry.Delay,
			pc.Retry.BaseDelay,
			pc.Retry.MaxDelay,
		)
		if err != nil {
			return nil, fmt.Errorf("retry: %w", err)
		}

		opts = append(opts, WithDelay(strategy))
	}

	return opts, nil
}

// parseDelayStrategy maps a strategy name + base/max delay to a
// DelayStrategy. A nil name defaults to "none"; every other strategy
// requires a base delay.
//
//nolint:ireturn // returns interface by design for strategy pattern
func parseDelayStrategy(
	name, baseStr, maxStr *string,
) (DelayStrategy, error) {
	strategy := "none"
	if name != nil {
		strategy = *name
	}

	if strategy == "none" {
		return NoDelay(), nil
	}

	if baseStr == nil {
		return nil, fmt.Errorf(
			"base_delay is required for delay strategy %q",
			strategy,
		)
	}

	base, err := time.ParseDuration(*baseStr)
	if err != nil {
		return nil, fmt.Errorf("base_delay: %w", err)
	}

	var maxDelay time.Duration
	if maxStr != nil {
		maxDelay, err = time.ParseDuration(*maxStr)
		if err != nil {
			return nil, fmt.Errorf("max_delay: %w", err)
		}
	}

	switch strategy {
	case "fixed":
		return FixedDelay(base), nil
	case "exponential":
		return ExponentialDelay(base, maxDelay), nil
	case "exponential_jitter":
		return ExponentialJitterDelay(base, maxDelay), nil
	default:
		return nil, fmt.Errorf(
			"unknown delay strategy: %q",
			strategy,
		)
	}
}

// GetPipeline retrieves a named pipeline configuration from a config-loaded
// [Registry] and returns a typed [Pipeline] ready for use with
// [Pipeline.Execute]. If the name is not found in the stored configs, a
// bare pipeline is created with only the provided opts.
//
// Additional options can be provided to augment or override the
// config-loaded settings (e.g., adding hooks or a custom clock).
// User-provided options are applied after config options, so they take
// precedence.
func GetPipeline[T any](reg *Registry, name string, opts ...Option) *Pipeline[T] {
	reg.mu.Lock()
	pc, ok := reg.configs[name]
	reg.mu.Unlock()

	var allOpts []Option

	allOpts = append(allOpts, WithRegistry(reg))

	if ok {
		configOpts, err := BuildOptions(&pc)
		if err == nil {
			allOpts = append(allOpts, configOpts...)
		}
	}

	// User opts come last so they can override config values.
	allOpts = append(allOpts, opts...)

	return NewPipeline[T](name, allOpts...)
}
