package funcmon

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// Tests in this file mutate the process-wide defaults and therefore never
// run in parallel with each other.

func TestConfigure(t *testing.T) {
	defer ResetDefaults()

	if err := Configure(WithLogLevel(LevelDebug), WithValidateInput(false)); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	cfg := Defaults()
	if cfg.LogLevel != LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, LevelDebug)
	}
	if cfg.ValidateInput {
		t.Error("ValidateInput should be false")
	}
	if !cfg.ValidateOutput {
		t.Error("unrelated fields keep their defaults")
	}
}

func TestConfigureFields(t *testing.T) {
	defer ResetDefaults()

	if err := ConfigureFields(map[string]any{
		"log_level":      10,
		"validate_input": false,
	}); err != nil {
		t.Fatalf("ConfigureFields failed: %v", err)
	}

	cfg := Defaults()
	if cfg.LogLevel != LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, LevelDebug)
	}
	if cfg.ValidateInput {
		t.Error("ValidateInput should be false")
	}
}

func TestConfigureFields_UnknownKeyLeavesDefaults(t *testing.T) {
	defer ResetDefaults()

	before := Defaults()
	err := ConfigureFields(map[string]any{"log_level": 10, "bogus": true})
	if err == nil {
		t.Fatal("ConfigureFields should fail on an unknown key")
	}
	var ukerr UnknownKeyError
	if !errors.As(err, &ukerr) {
		t.Errorf("expected UnknownKeyError, got %T: %v", err, err)
	}
	if Defaults() != before {
		t.Error("a failed ConfigureFields must not change the defaults")
	}
}

func TestConfigure_CreatesLogDirectory(t *testing.T) {
	defer ResetDefaults()

	logFile := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := Configure(WithLogToFile(true), WithLogFilePath(logFile)); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(logFile)); err != nil {
		t.Errorf("log directory should exist after Configure: %v", err)
	}
}

func TestDefaults_ConcurrentReadersSeeWholeConfigs(t *testing.T) {
	defer ResetDefaults()

	// Writers flip between two configurations that differ in every boolean;
	// readers must only ever observe one of the two.
	a := DefaultConfig()
	b := Config{
		ValidateInput:          false,
		ValidateOutput:         false,
		LogExecution:           false,
		ReturnRawResult:        true,
		LogLevel:               LevelError,
		LogToFile:              false,
		EnableMemoryMonitoring: false,
		EnableCPUMonitoring:    false,
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			cfg := a
			if i%2 == 1 {
				cfg = b
			}
			if err := Configure(func(c *Config) { *c = cfg }); err != nil {
				t.Errorf("Configure failed: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				got := Defaults()
				if got != a && got != b {
					t.Errorf("observed a torn configuration: %+v", got)
					return
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	<-writerDone
}
