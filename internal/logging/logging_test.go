package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"commoditybot/internal/config"
)

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	logger, closer, err := New(config.LogConfig{Level: "warn", Format: "json", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("source failed", "source", "bromine")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() returned unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1:\n%s", len(lines), data)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "source failed" || rec["source"] != "bromine" || rec["level"] != "WARN" {
		t.Errorf("record = %v", rec)
	}
}

func TestNew_Stderr(t *testing.T) {
	logger, closer, err := New(config.LogConfig{Level: "debug", Format: "text"})
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}
	defer closer.Close()
	if !logger.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("debug level not enabled")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LogConfig
	}{
		{"bad level", config.LogConfig{Level: "loud", Format: "text"}},
		{"bad format", config.LogConfig{Level: "info", Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := New(tt.cfg); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}
