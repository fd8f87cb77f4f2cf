package funcmon

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/funcmon/logging"
	"github.com/agbru/funcmon/sampling"
	"github.com/agbru/funcmon/validation"
)

// Callable is the unit the monitor instruments: positional arguments in,
// one value or an error out. Typed functions are adapted with F0/F1/F2.
type Callable func(args ...any) (any, error)

// Monitor wraps callables with a layered configuration and shared
// collaborators. One Monitor may wrap many independent callables; the only
// state shared between them is the immutable override set and the log sink.
type Monitor struct {
	base       *Config  // replaces the live process defaults when set
	overrides  []Option // instance-level overrides
	logger     logging.Logger
	fileLogger logging.Logger // set when file logging is configured at construction
	sampler    sampling.Sampler
	validator  validation.Validator
}

// MonitorOption customizes a Monitor during construction.
type MonitorOption func(*Monitor)

// WithOverrides adds instance-level configuration overrides. They are
// re-applied over the live process defaults on every call.
func WithOverrides(opts ...Option) MonitorOption {
	return func(m *Monitor) { m.overrides = append(m.overrides, opts...) }
}

// WithConfig pins the monitor to a fixed base configuration instead of the
// live process defaults.
func WithConfig(cfg Config) MonitorOption {
	return func(m *Monitor) { m.base = &cfg }
}

// WithLogger replaces the configuration-derived console sink. The file sink,
// when configured, is built independently.
func WithLogger(l logging.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = l }
}

// WithSampler replaces the default process resource sampler.
func WithSampler(s sampling.Sampler) MonitorOption {
	return func(m *Monitor) { m.sampler = s }
}

// WithValidator replaces the default schema validator.
func WithValidator(v validation.Validator) MonitorOption {
	return func(m *Monitor) { m.validator = v }
}

// New creates a Monitor. Setup is the only point where configuration errors
// propagate: an unwritable log directory or log file fails construction with
// a ConfigError.
func New(opts ...MonitorOption) (*Monitor, error) {
	m := &Monitor{}
	for _, opt := range opts {
		opt(m)
	}

	cfg := m.resolve(nil)
	if err := cfg.ensureLogDir(); err != nil {
		return nil, err
	}
	if m.logger == nil {
		m.logger = buildConsoleLogger(cfg)
	}
	if cfg.LogToFile && cfg.LogFilePath != "" {
		fl, err := buildFileLogger(cfg)
		if err != nil {
			return nil, err
		}
		m.fileLogger = fl
	}
	if m.sampler == nil {
		m.sampler = sampling.NewProcessSampler()
	}
	if m.validator == nil {
		m.validator = validation.New()
	}
	return m, nil
}

// buildConsoleLogger constructs the stderr sink described by cfg.
func buildConsoleLogger(cfg Config) logging.Logger {
	return sinkLogger(zerolog.ConsoleWriter{Out: os.Stderr}, cfg)
}

// buildFileLogger constructs the append-only file sink. Each record is
// written with a single append so concurrent invocations never interleave
// bytes.
func buildFileLogger(cfg Config) (logging.Logger, error) {
	f, err := os.OpenFile(cfg.LogFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, NewConfigError("opening log file %q: %v", cfg.LogFilePath, err)
	}
	return sinkLogger(f, cfg), nil
}

func sinkLogger(w io.Writer, cfg Config) logging.Logger {
	zl := zerolog.New(w).
		With().Timestamp().Str("component", "funcmon").Logger().
		Level(zerologLevel(cfg.LogLevel))
	return logging.NewZerologAdapter(zl)
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// resolve computes the effective configuration for one invocation:
// live process defaults (or the pinned base), then instance overrides,
// then call overrides.
func (m *Monitor) resolve(callOpts []Option) Config {
	base := Defaults()
	if m.base != nil {
		base = *m.base
	}
	return base.Merge(m.overrides...).Merge(callOpts...)
}

// Wrapped is the instrumented form of one callable. Each invocation's state
// is local to the call; a Wrapped is safe for concurrent use.
type Wrapped struct {
	name    string
	fn      Callable
	monitor *Monitor
	inputs  []validation.Schema
	output  validation.Schema
}

// WrapOption attaches schemas to a wrapped callable.
type WrapOption func(*Wrapped)

// WithInputSchema declares a schema for the argument at the given position.
// Positions without a schema are not validated.
func WithInputSchema(pos int, s validation.Schema) WrapOption {
	return func(w *Wrapped) {
		for len(w.inputs) <= pos {
			w.inputs = append(w.inputs, nil)
		}
		w.inputs[pos] = s
	}
}

// WithOutputSchema declares a schema for the return value.
func WithOutputSchema(s validation.Schema) WrapOption {
	return func(w *Wrapped) { w.output = s }
}

// Wrap instruments fn under the given name. The same Monitor may wrap any
// number of callables.
func (m *Monitor) Wrap(name string, fn Callable, opts ...WrapOption) *Wrapped {
	w := &Wrapped{name: name, fn: fn, monitor: m}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the identity the callable was wrapped under.
func (w *Wrapped) Name() string { return w.name }

// Call invokes the wrapped callable with full instrumentation. On success it
// returns the *ExecutionResult envelope, or the bare result value in
// raw-result mode. Any failure (input validation, execution error, panic,
// output validation) returns an error envelope; Call never panics and never
// returns an error value for reasons internal to the callable.
func (w *Wrapped) Call(args ...any) any {
	return w.call(nil, args)
}

// CallWith is Call with call-level configuration overrides, the highest
// layer of the resolution chain.
func (w *Wrapped) CallWith(overrides []Option, args ...any) any {
	return w.call(overrides, args)
}

func (w *Wrapped) call(overrides []Option, args []any) any {
	cfg := w.monitor.resolve(overrides)

	// Input validation short-circuits: the callable is never invoked when a
	// declared-schema argument fails.
	if cfg.ValidateInput {
		if msgs := w.validateInputs(args); len(msgs) > 0 {
			res := NewError(msgs, 0, MemoryUsage{}, 0, w.name)
			w.monitor.emit(res, cfg)
			return res
		}
	}

	sampled := cfg.EnableMemoryMonitoring || cfg.EnableCPUMonitoring
	var before sampling.Snapshot
	if sampled {
		before = w.monitor.snapshot()
	}

	start := time.Now()
	value, callErr := w.invoke(args)
	elapsed := time.Since(start).Seconds()

	var after sampling.Snapshot
	if sampled {
		after = w.monitor.snapshot()
	}
	mem := memoryUsage(cfg, before, after)
	var cpu float64
	if cfg.EnableCPUMonitoring {
		cpu = after.CPUPercent
	}

	if callErr != nil {
		res := NewError([]string{callErr.Error()}, elapsed, mem, cpu, w.name)
		w.monitor.emit(res, cfg)
		// Raw-result mode still returns the envelope: there is no raw value.
		return res
	}

	if cfg.ValidateOutput && w.output != nil {
		if err := w.monitor.validator.Validate(value, w.output); err != nil {
			res := NewError(validation.Messages(err), elapsed, mem, cpu, w.name)
			w.monitor.emit(res, cfg)
			return res
		}
	}

	res := NewSuccess(value, elapsed, mem, cpu, w.name)
	w.monitor.emit(res, cfg)
	if cfg.ReturnRawResult {
		return value
	}
	return res
}

// validateInputs collects messages for every declared-schema argument,
// preserving position order.
func (w *Wrapped) validateInputs(args []any) []string {
	var msgs []string
	for i, schema := range w.inputs {
		if schema == nil || i >= len(args) {
			continue
		}
		if err := w.monitor.validator.Validate(args[i], schema); err != nil {
			for _, m := range validation.Messages(err) {
				msgs = append(msgs, fmt.Sprintf("argument %d: %s", i, m))
			}
		}
	}
	return msgs
}

// invoke runs the callable, converting a panic into an error so the fault
// is absorbed into the envelope like any other execution failure.
func (w *Wrapped) invoke(args []any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.fn(args...)
}

// snapshot samples resources, substituting a zero snapshot on failure.
// Measurement errors are fully absorbed and never abort the call.
func (m *Monitor) snapshot() sampling.Snapshot {
	snap, err := m.sampler.Sample()
	if err != nil {
		return sampling.Snapshot{}
	}
	return snap
}

func memoryUsage(cfg Config, before, after sampling.Snapshot) MemoryUsage {
	if !cfg.EnableMemoryMonitoring {
		return MemoryUsage{}
	}
	peak := after.PeakBytes
	if before.PeakBytes > peak {
		peak = before.PeakBytes
	}
	return MemoryUsage{
		Before: before.MemoryBytes,
		After:  after.MemoryBytes,
		Peak:   peak,
		Delta:  int64(after.MemoryBytes) - int64(before.MemoryBytes),
	}
}

// emit writes one log record for the envelope. Failures are logged at ERROR
// regardless of the configured level; successes at the configured level.
// The resolved LogToFile gates the file sink per invocation, so a call-level
// toggle suppresses (or restores) the file record without rebuilding sinks.
func (m *Monitor) emit(res *ExecutionResult, cfg Config) {
	if !cfg.LogExecution {
		return
	}

	fields := []logging.Field{
		logging.String("function", res.FunctionName),
		logging.String("status", string(res.Status)),
		logging.Float64("execution_time", res.ExecutionTime),
		logging.Uint64("memory_before", res.MemoryUsage.Before),
		logging.Uint64("memory_after", res.MemoryUsage.After),
		logging.Uint64("memory_peak", res.MemoryUsage.Peak),
		logging.Int64("memory_delta", res.MemoryUsage.Delta),
		logging.Float64("cpu_percent", res.CPUUsage),
	}
	if payload, err := res.JSON(); err == nil {
		fields = append(fields, logging.String("record", string(payload)))
	}

	emitTo(m.logger, res, cfg.LogLevel, fields)
	if cfg.LogToFile && m.fileLogger != nil {
		emitTo(m.fileLogger, res, cfg.LogLevel, fields)
	}
}

func emitTo(logger logging.Logger, res *ExecutionResult, level Level, fields []logging.Field) {
	if res.Status == StatusError {
		logger.Error("function execution failed", errors.New(joinMessages(res.Errors)), fields...)
		return
	}
	switch level {
	case LevelDebug:
		logger.Debug("function executed", fields...)
	case LevelWarn:
		logger.Warn("function executed", fields...)
	case LevelError:
		logger.Error("function executed", nil, fields...)
	default:
		logger.Info("function executed", fields...)
	}
}

func joinMessages(msgs []string) string {
	switch len(msgs) {
	case 0:
		return "unknown error"
	case 1:
		return msgs[0]
	default:
		out := msgs[0]
		for _, m := range msgs[1:] {
			out += "; " + m
		}
		return out
	}
}
