package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesJSONToFile(t *testing.T) {
	tmpDir := t.TempDir()

	logger, cleanup, err := Setup(Config{
		LogDir:      tmpDir,
		Debug:       true,
		LogToStdout: false,
	})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("test message", "pid", 42)
	cleanup()

	data, err := os.ReadFile(filepath.Join(tmpDir, logFileName))
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.Split(line, "\n")[0]), &rec); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if rec["msg"] != "test message" {
		t.Errorf("msg = %v, want test message", rec["msg"])
	}
	if rec["pid"] != float64(42) {
		t.Errorf("pid = %v, want 42", rec["pid"])
	}
}

func TestSetupDebugLevel(t *testing.T) {
	tmpDir := t.TempDir()

	logger, cleanup, err := Setup(Config{LogDir: tmpDir, Debug: true})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Debug("debug detail")
	cleanup()

	data, err := os.ReadFile(filepath.Join(tmpDir, logFileName))
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "debug detail") {
		t.Error("debug record should be written when Debug is set")
	}
}

func TestSetupInfoLevelSuppressesDebug(t *testing.T) {
	tmpDir := t.TempDir()

	logger, cleanup, err := Setup(Config{LogDir: tmpDir, Debug: false})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Debug("should not appear")
	logger.Info("should appear")
	cleanup()

	data, err := os.ReadFile(filepath.Join(tmpDir, logFileName))
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if strings.Contains(string(data), "should not appear") {
		t.Error("debug record written despite info level")
	}
	if !strings.Contains(string(data), "should appear") {
		t.Error("info record missing")
	}
}

func TestSetupFallsBackWhenDirUnwritable(t *testing.T) {
	// A file in place of the directory forces the fallback path.
	tmpDir := t.TempDir()
	blocking := filepath.Join(tmpDir, "blocked")
	if err := os.WriteFile(blocking, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	logger, cleanup, err := Setup(Config{LogDir: filepath.Join(blocking, "logs")})
	if err != nil {
		t.Fatalf("Setup should fall back, not fail: %v", err)
	}
	defer cleanup()
	if logger == nil {
		t.Fatal("fallback logger should not be nil")
	}
}
