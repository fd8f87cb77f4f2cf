package funcmon

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if !cfg.ValidateInput {
		t.Error("ValidateInput should default to true")
	}
	if !cfg.ValidateOutput {
		t.Error("ValidateOutput should default to true")
	}
	if !cfg.LogExecution {
		t.Error("LogExecution should default to true")
	}
	if cfg.ReturnRawResult {
		t.Error("ReturnRawResult should default to false")
	}
	if cfg.LogLevel != LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, LevelInfo)
	}
	if cfg.LogToFile {
		t.Error("LogToFile should default to false")
	}
	if !cfg.EnableMemoryMonitoring {
		t.Error("EnableMemoryMonitoring should default to true")
	}
	if !cfg.EnableCPUMonitoring {
		t.Error("EnableCPUMonitoring should default to true")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"Warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"10", LevelDebug, false},
		{"20", LevelInfo, false},
		{"30", LevelWarn, false},
		{"40", LevelError, false},
		{"99", LevelInfo, true},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfig_Update(t *testing.T) {
	t.Parallel()

	t.Run("applies recognized fields", func(t *testing.T) {
		t.Parallel()
		cfg, err := DefaultConfig().Update(map[string]any{
			"log_level":         20,
			"return_raw_result": true,
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if cfg.LogLevel != LevelInfo {
			t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, LevelInfo)
		}
		if !cfg.ReturnRawResult {
			t.Error("ReturnRawResult should be true")
		}
	})

	t.Run("level accepts names and severities", func(t *testing.T) {
		t.Parallel()
		cfg, err := DefaultConfig().Update(map[string]any{"log_level": "DEBUG"})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if cfg.LogLevel != LevelDebug {
			t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, LevelDebug)
		}
	})

	t.Run("unknown key rejects the whole update", func(t *testing.T) {
		t.Parallel()
		base := DefaultConfig()
		got, err := base.Update(map[string]any{
			"log_to_file": true,
			"invalid_key": "value",
		})
		if err == nil {
			t.Fatal("Update should fail on an unknown key")
		}
		var ukerr UnknownKeyError
		if !errors.As(err, &ukerr) || ukerr.Key != "invalid_key" {
			t.Errorf("expected UnknownKeyError for %q, got %v", "invalid_key", err)
		}
		if got != base {
			t.Error("a failed update must leave the configuration unchanged")
		}
	})

	t.Run("wrong value type is a ConfigError", func(t *testing.T) {
		t.Parallel()
		_, err := DefaultConfig().Update(map[string]any{"log_to_file": "yes"})
		var cerr ConfigError
		if !errors.As(err, &cerr) {
			t.Errorf("expected ConfigError, got %T: %v", err, err)
		}
	})

	t.Run("empty update is the identity", func(t *testing.T) {
		t.Parallel()
		base := DefaultConfig().Merge(WithLogLevel(LevelWarn), WithLogFilePath("/tmp/x.log"))
		got, err := base.Update(map[string]any{})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if got != base {
			t.Errorf("empty update changed the configuration: %+v != %+v", got, base)
		}
	})
}

func TestFromMap(t *testing.T) {
	t.Parallel()

	cfg, err := FromMap(map[string]any{
		"log_level":      10,
		"log_to_file":    true,
		"validate_input": false,
	})
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	if cfg.LogLevel != LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, LevelDebug)
	}
	if !cfg.LogToFile {
		t.Error("LogToFile should be true")
	}
	if cfg.ValidateInput {
		t.Error("ValidateInput should be false")
	}
	// Untouched fields keep their defaults.
	if !cfg.ValidateOutput {
		t.Error("ValidateOutput should keep its default")
	}
}

func TestConfig_MergePrecedence(t *testing.T) {
	t.Parallel()

	base := DefaultConfig() // LogLevel INFO
	instance := base.Merge(WithLogLevel(LevelDebug))
	if instance.LogLevel != LevelDebug {
		t.Errorf("instance LogLevel = %v, want %v", instance.LogLevel, LevelDebug)
	}

	call := instance.Merge(WithLogLevel(LevelWarn))
	if call.LogLevel != LevelWarn {
		t.Errorf("call LogLevel = %v, want %v", call.LogLevel, LevelWarn)
	}

	if !call.ValidateInput || !call.LogExecution {
		t.Error("merge must not reset fields no layer overrode")
	}
	if base.LogLevel != LevelInfo {
		t.Error("Merge must not modify its receiver")
	}
}

func TestFromEnv(t *testing.T) {
	t.Run("overlays set variables", func(t *testing.T) {
		t.Setenv("FUNCMON_LOG_LEVEL", "10")
		t.Setenv("FUNCMON_LOG_TO_FILE", "true")
		t.Setenv("FUNCMON_LOG_FILE", "/tmp/test.log")

		cfg, err := FromEnv(DefaultConfig())
		if err != nil {
			t.Fatalf("FromEnv failed: %v", err)
		}
		if cfg.LogLevel != LevelDebug {
			t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, LevelDebug)
		}
		if !cfg.LogToFile {
			t.Error("LogToFile should be true")
		}
		if cfg.LogFilePath != "/tmp/test.log" {
			t.Errorf("LogFilePath = %q, want %q", cfg.LogFilePath, "/tmp/test.log")
		}
	})

	t.Run("unset variables keep defaults", func(t *testing.T) {
		cfg, err := FromEnv(DefaultConfig())
		if err != nil {
			t.Fatalf("FromEnv failed: %v", err)
		}
		if cfg != DefaultConfig() {
			t.Errorf("FromEnv with no variables should be the identity, got %+v", cfg)
		}
	})

	t.Run("boolean spellings", func(t *testing.T) {
		t.Setenv("FUNCMON_VALIDATE_INPUT", "NO")
		t.Setenv("FUNCMON_CPU_MONITORING", "0")
		t.Setenv("FUNCMON_RETURN_RAW_RESULT", "Yes")

		cfg, err := FromEnv(DefaultConfig())
		if err != nil {
			t.Fatalf("FromEnv failed: %v", err)
		}
		if cfg.ValidateInput {
			t.Error("ValidateInput should be false")
		}
		if cfg.EnableCPUMonitoring {
			t.Error("EnableCPUMonitoring should be false")
		}
		if !cfg.ReturnRawResult {
			t.Error("ReturnRawResult should be true")
		}
	})

	t.Run("unparsable boolean names the variable", func(t *testing.T) {
		t.Setenv("FUNCMON_LOG_TO_FILE", "maybe")

		_, err := FromEnv(DefaultConfig())
		if err == nil {
			t.Fatal("FromEnv should fail on an unparsable boolean")
		}
		var cerr ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("expected ConfigError, got %T: %v", err, err)
		}
		if want := "FUNCMON_LOG_TO_FILE"; !strings.Contains(cerr.Message, want) {
			t.Errorf("error should name %q, got %q", want, cerr.Message)
		}
	})

	t.Run("unparsable level names the variable", func(t *testing.T) {
		t.Setenv("FUNCMON_LOG_LEVEL", "loud")

		_, err := FromEnv(DefaultConfig())
		if err == nil {
			t.Fatal("FromEnv should fail on an unparsable level")
		}
		var cerr ConfigError
		if !errors.As(err, &cerr) || !strings.Contains(cerr.Message, "FUNCMON_LOG_LEVEL") {
			t.Errorf("expected ConfigError naming FUNCMON_LOG_LEVEL, got %v", err)
		}
	})
}

func TestFromFile(t *testing.T) {
	t.Parallel()

	t.Run("partial file overlays defaults", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "funcmon.yaml")
		content := "log_level: debug\nreturn_raw_result: true\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := FromFile(path, DefaultConfig())
		if err != nil {
			t.Fatalf("FromFile failed: %v", err)
		}
		if cfg.LogLevel != LevelDebug {
			t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, LevelDebug)
		}
		if !cfg.ReturnRawResult {
			t.Error("ReturnRawResult should be true")
		}
		if !cfg.ValidateInput {
			t.Error("fields the file omits keep their defaults")
		}
	})

	t.Run("missing file is a ConfigError", func(t *testing.T) {
		t.Parallel()
		_, err := FromFile(filepath.Join(t.TempDir(), "absent.yaml"), DefaultConfig())
		var cerr ConfigError
		if !errors.As(err, &cerr) {
			t.Errorf("expected ConfigError, got %T: %v", err, err)
		}
	})

	t.Run("malformed yaml is a ConfigError", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("log_level: [\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := FromFile(path, DefaultConfig())
		var cerr ConfigError
		if !errors.As(err, &cerr) {
			t.Errorf("expected ConfigError, got %T: %v", err, err)
		}
	})
}
