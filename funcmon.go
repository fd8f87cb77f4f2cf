// Package funcmon instruments callables: it measures wall-clock duration and
// process memory/CPU usage around each invocation, optionally validates
// arguments and the return value against declared schemas, logs a structured
// record, and hands back either the raw result or an ExecutionResult envelope
// describing the outcome.
//
// A Monitor wraps any number of callables with one resolved configuration.
// Configuration resolves in layers: process-wide defaults (Configure), then
// per-instance overrides, then per-call overrides; each layer only replaces
// the fields it explicitly provides.
//
// Failures inside a monitored call never propagate as panics or error
// returns: validation failures, execution errors, and panics are all
// converted into error envelopes. Only configuration errors at setup time
// surface as hard failures.
package funcmon

import (
	"sync"
	"sync/atomic"
)

var (
	configureMu     sync.Mutex
	processDefaults atomic.Pointer[Config]
)

func init() {
	cfg := DefaultConfig()
	processDefaults.Store(&cfg)
}

// Defaults returns the current process-wide default configuration. The read
// is atomic: a concurrent Configure is either fully visible or not at all.
func Defaults() Config {
	return *processDefaults.Load()
}

// Configure applies overrides to the process-wide defaults. The log
// directory side effect runs before the new configuration becomes visible,
// so a failing Configure leaves the previous defaults in place.
func Configure(opts ...Option) error {
	configureMu.Lock()
	defer configureMu.Unlock()

	cfg := Defaults().Merge(opts...)
	if err := cfg.ensureLogDir(); err != nil {
		return err
	}
	processDefaults.Store(&cfg)
	return nil
}

// ConfigureFields applies named overrides to the process-wide defaults,
// rejecting the whole set on any unknown key. An empty set is a no-op.
func ConfigureFields(fields map[string]any) error {
	configureMu.Lock()
	defer configureMu.Unlock()

	cfg, err := Defaults().Update(fields)
	if err != nil {
		return err
	}
	if err := cfg.ensureLogDir(); err != nil {
		return err
	}
	processDefaults.Store(&cfg)
	return nil
}

// ResetDefaults restores the documented defaults. Intended for tests and
// process re-initialization.
func ResetDefaults() {
	configureMu.Lock()
	defer configureMu.Unlock()

	cfg := DefaultConfig()
	processDefaults.Store(&cfg)
}
