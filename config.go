package funcmon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the monitor reads.
const EnvPrefix = "FUNCMON_"

// Level is the severity at which successful executions are logged.
// Failed executions are always logged at LevelError.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel parses a level from a name ("debug", "INFO", ...) or from an
// integer severity (10=DEBUG, 20=INFO, 30=WARN, 40=ERROR). Integer severities
// follow the numbering external tooling commonly uses for log levels.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return levelFromSeverity(n)
	}
	return LevelInfo, NewConfigError("invalid log level %q", s)
}

// levelFromSeverity maps an integer severity to a Level.
func levelFromSeverity(n int) (Level, error) {
	switch {
	case n <= 10:
		return LevelDebug, nil
	case n <= 20:
		return LevelInfo, nil
	case n <= 30:
		return LevelWarn, nil
	case n <= 40:
		return LevelError, nil
	default:
		return LevelInfo, NewConfigError("invalid log level severity %d", n)
	}
}

// Config holds the resolved settings for one monitor instance.
//
// Resolution is layered: process-wide defaults, then instance overrides,
// then call-level overrides. Each layer only replaces fields it explicitly
// provides; overrides are carried as Options so an untouched field keeps the
// value of the layer below.
type Config struct {
	ValidateInput          bool
	ValidateOutput         bool
	LogExecution           bool
	ReturnRawResult        bool
	LogLevel               Level
	LogToFile              bool
	LogFilePath            string
	EnableMemoryMonitoring bool
	EnableCPUMonitoring    bool
}

// DefaultConfig returns the documented default settings: validate both
// directions, log at INFO to the console, return the full envelope, and
// sample both memory and CPU.
func DefaultConfig() Config {
	return Config{
		ValidateInput:          true,
		ValidateOutput:         true,
		LogExecution:           true,
		ReturnRawResult:        false,
		LogLevel:               LevelInfo,
		LogToFile:              false,
		LogFilePath:            "",
		EnableMemoryMonitoring: true,
		EnableCPUMonitoring:    true,
	}
}

// Option overrides a single Config field. Options are applied in order, so a
// later option wins over an earlier one for the same field.
type Option func(*Config)

// WithValidateInput toggles validation of arguments that carry a schema.
func WithValidateInput(v bool) Option { return func(c *Config) { c.ValidateInput = v } }

// WithValidateOutput toggles validation of the return value.
func WithValidateOutput(v bool) Option { return func(c *Config) { c.ValidateOutput = v } }

// WithLogExecution toggles emission of one log record per invocation.
func WithLogExecution(v bool) Option { return func(c *Config) { c.LogExecution = v } }

// WithReturnRawResult toggles raw-result mode: on success the wrapped call
// returns the bare value instead of the envelope. Failures still return the
// envelope; there is no raw value to hand back.
func WithReturnRawResult(v bool) Option { return func(c *Config) { c.ReturnRawResult = v } }

// WithLogLevel sets the severity used for successful executions.
func WithLogLevel(l Level) Option { return func(c *Config) { c.LogLevel = l } }

// WithLogToFile toggles the file sink.
func WithLogToFile(v bool) Option { return func(c *Config) { c.LogToFile = v } }

// WithLogFilePath sets the file sink path. The parent directory is created
// when the configuration is applied, not on first write.
func WithLogFilePath(path string) Option { return func(c *Config) { c.LogFilePath = path } }

// WithMemoryMonitoring toggles before/after memory snapshots.
func WithMemoryMonitoring(v bool) Option { return func(c *Config) { c.EnableMemoryMonitoring = v } }

// WithCPUMonitoring toggles the post-execution CPU sample.
func WithCPUMonitoring(v bool) Option { return func(c *Config) { c.EnableCPUMonitoring = v } }

// Merge returns a copy of c with the given overrides applied. The receiver
// is never modified; fields without an override keep their current value.
func (c Config) Merge(opts ...Option) Config {
	out := c
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}

// Update applies a partial set of named overrides and returns the resulting
// configuration. The application is all-or-nothing: an unknown key fails the
// whole update with an UnknownKeyError and the receiver's values are returned
// untouched. Recognized keys are the snake_case field names, e.g.
// "validate_input", "log_level", "log_file_path".
func (c Config) Update(fields map[string]any) (Config, error) {
	opts := make([]Option, 0, len(fields))
	for key, value := range fields {
		opt, err := fieldOption(key, value)
		if err != nil {
			return c, err
		}
		opts = append(opts, opt)
	}
	return c.Merge(opts...), nil
}

// FromMap builds a Config from named overrides layered over the documented
// defaults.
func FromMap(fields map[string]any) (Config, error) {
	return DefaultConfig().Update(fields)
}

// fieldOption translates one named override into an Option. Unknown keys and
// uncoercible values are rejected before anything is applied.
func fieldOption(key string, value any) (Option, error) {
	switch key {
	case "validate_input":
		return boolOption(key, value, WithValidateInput)
	case "validate_output":
		return boolOption(key, value, WithValidateOutput)
	case "log_execution":
		return boolOption(key, value, WithLogExecution)
	case "return_raw_result":
		return boolOption(key, value, WithReturnRawResult)
	case "log_to_file":
		return boolOption(key, value, WithLogToFile)
	case "enable_memory_monitoring":
		return boolOption(key, value, WithMemoryMonitoring)
	case "enable_cpu_monitoring":
		return boolOption(key, value, WithCPUMonitoring)
	case "log_file_path":
		s, ok := value.(string)
		if !ok {
			return nil, NewConfigError("configuration key %q expects a string, got %T", key, value)
		}
		return WithLogFilePath(s), nil
	case "log_level":
		lvl, err := coerceLevel(value)
		if err != nil {
			return nil, err
		}
		return WithLogLevel(lvl), nil
	default:
		return nil, UnknownKeyError{Key: key}
	}
}

func boolOption(key string, value any, set func(bool) Option) (Option, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, NewConfigError("configuration key %q expects a bool, got %T", key, value)
	}
	return set(b), nil
}

func coerceLevel(value any) (Level, error) {
	switch v := value.(type) {
	case Level:
		return v, nil
	case int:
		return levelFromSeverity(v)
	case string:
		return ParseLevel(v)
	default:
		return LevelInfo, NewConfigError("configuration key \"log_level\" expects a level, got %T", value)
	}
}

// FromEnv overlays defaults with values parsed from the FUNCMON_* environment
// variables. Unset variables leave the corresponding field alone; a set but
// unparsable value fails with a ConfigError naming the variable.
//
// Recognized variables: FUNCMON_LOG_LEVEL (name or integer severity),
// FUNCMON_LOG_TO_FILE, FUNCMON_LOG_FILE, FUNCMON_VALIDATE_INPUT,
// FUNCMON_VALIDATE_OUTPUT, FUNCMON_LOG_EXECUTION, FUNCMON_RETURN_RAW_RESULT,
// FUNCMON_MEMORY_MONITORING, FUNCMON_CPU_MONITORING.
func FromEnv(defaults Config) (Config, error) {
	cfg := defaults

	boolVars := []struct {
		key string
		dst *bool
	}{
		{"LOG_TO_FILE", &cfg.LogToFile},
		{"VALIDATE_INPUT", &cfg.ValidateInput},
		{"VALIDATE_OUTPUT", &cfg.ValidateOutput},
		{"LOG_EXECUTION", &cfg.LogExecution},
		{"RETURN_RAW_RESULT", &cfg.ReturnRawResult},
		{"MEMORY_MONITORING", &cfg.EnableMemoryMonitoring},
		{"CPU_MONITORING", &cfg.EnableCPUMonitoring},
	}
	for _, v := range boolVars {
		if err := envBool(v.key, v.dst); err != nil {
			return defaults, err
		}
	}

	if raw := os.Getenv(EnvPrefix + "LOG_LEVEL"); raw != "" {
		lvl, err := ParseLevel(raw)
		if err != nil {
			return defaults, NewConfigError("invalid value %q for %sLOG_LEVEL", raw, EnvPrefix)
		}
		cfg.LogLevel = lvl
	}
	if raw := os.Getenv(EnvPrefix + "LOG_FILE"); raw != "" {
		cfg.LogFilePath = raw
	}
	return cfg, nil
}

// envBool parses the environment variable with the given key (prefixed with
// EnvPrefix) into dst. Accepts "true", "1", "yes" as true and "false", "0",
// "no" as false, case-insensitive. An unset variable is a no-op.
func envBool(key string, dst *bool) error {
	raw := os.Getenv(EnvPrefix + key)
	if raw == "" {
		return nil
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	default:
		return NewConfigError("invalid boolean %q for %s%s", raw, EnvPrefix, key)
	}
	return nil
}

// fileConfig mirrors Config with optional fields so a YAML file only
// overrides what it mentions.
type fileConfig struct {
	ValidateInput          *bool   `yaml:"validate_input"`
	ValidateOutput         *bool   `yaml:"validate_output"`
	LogExecution           *bool   `yaml:"log_execution"`
	ReturnRawResult        *bool   `yaml:"return_raw_result"`
	LogLevel               *string `yaml:"log_level"`
	LogToFile              *bool   `yaml:"log_to_file"`
	LogFilePath            *string `yaml:"log_file_path"`
	EnableMemoryMonitoring *bool   `yaml:"enable_memory_monitoring"`
	EnableCPUMonitoring    *bool   `yaml:"enable_cpu_monitoring"`
}

// FromFile overlays defaults with settings read from a YAML file. Fields the
// file does not mention keep their default values.
func FromFile(path string, defaults Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, NewConfigError("reading config file %q: %v", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return defaults, NewConfigError("parsing config file %q: %v", path, err)
	}

	cfg := defaults
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&cfg.ValidateInput, fc.ValidateInput)
	setBool(&cfg.ValidateOutput, fc.ValidateOutput)
	setBool(&cfg.LogExecution, fc.LogExecution)
	setBool(&cfg.ReturnRawResult, fc.ReturnRawResult)
	setBool(&cfg.LogToFile, fc.LogToFile)
	setBool(&cfg.EnableMemoryMonitoring, fc.EnableMemoryMonitoring)
	setBool(&cfg.EnableCPUMonitoring, fc.EnableCPUMonitoring)
	if fc.LogFilePath != nil {
		cfg.LogFilePath = *fc.LogFilePath
	}
	if fc.LogLevel != nil {
		lvl, err := ParseLevel(*fc.LogLevel)
		if err != nil {
			return defaults, NewConfigError("invalid log_level %q in config file %q", *fc.LogLevel, path)
		}
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

// ensureLogDir creates the parent directory of the log file when file
// logging is enabled. Called at configuration-apply time so a failing sink
// surfaces as a ConfigError up front rather than on the first log write.
func (c Config) ensureLogDir() error {
	if !c.LogToFile || c.LogFilePath == "" {
		return nil
	}
	dir := filepath.Dir(c.LogFilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewConfigError("creating log directory %q: %v", dir, err)
	}
	return nil
}
