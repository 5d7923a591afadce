package main

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestPersistentPreRunE_VersionIgnoresBrokenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	orig := configPath
	configPath = path
	t.Cleanup(func() { configPath = orig })

	if err := rootCmd.PersistentPreRunE(versionCmd, nil); err != nil {
		t.Errorf("version must not depend on the config, got: %v", err)
	}

	if err := rootCmd.PersistentPreRunE(serveCmd, nil); err == nil {
		t.Error("serve should reject a malformed config")
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"nonsense", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := logLevel(tt.name); got != tt.want {
			t.Errorf("logLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
