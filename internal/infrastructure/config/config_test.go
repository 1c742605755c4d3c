package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Subtitle.MaxDurationUsec != 10_000_000 {
		t.Errorf("MaxDurationUsec = %d", cfg.Subtitle.MaxDurationUsec)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.History.Enabled {
		t.Error("history should be enabled by default")
	}
	if !strings.HasPrefix(cfg.History.URL, "file:") || !strings.HasSuffix(cfg.History.URL, "chatsrt.db") {
		t.Errorf("History.URL = %q", cfg.History.URL)
	}
	if cfg.Archive.Enabled {
		t.Error("archive should be disabled by default")
	}
	if cfg.OTEL.Active() {
		t.Error("OTEL should be inactive by default")
	}

	timing := cfg.Timing(42)
	if timing.First != 42 || timing.MaxDuration != 10_000_000 {
		t.Errorf("Timing = %+v", timing)
	}
}

func TestLoad_Overrides(t *testing.T) {
	archiveDir := t.TempDir()
	t.Setenv("CHATSRT_MAX_DURATION_USEC", "5000000")
	t.Setenv("CHATSRT_LOG_LEVEL", "debug")
	t.Setenv("CHATSRT_LOG_FORMAT", "json")
	t.Setenv("CHATSRT_DATABASE_URL", "file:/tmp/custom.db")
	t.Setenv("CHATSRT_ARCHIVE_ENABLED", "true")
	t.Setenv("CHATSRT_ARCHIVE_DIR", archiveDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Subtitle.MaxDurationUsec != 5_000_000 {
		t.Errorf("MaxDurationUsec = %d", cfg.Subtitle.MaxDurationUsec)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.History.URL != "file:/tmp/custom.db" {
		t.Errorf("History.URL = %q", cfg.History.URL)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Dir != archiveDir {
		t.Errorf("Archive = %+v", cfg.Archive)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero max duration", map[string]string{"CHATSRT_MAX_DURATION_USEC": "0"}},
		{"non numeric max duration", map[string]string{"CHATSRT_MAX_DURATION_USEC": "ten"}},
		{"unknown log format", map[string]string{"CHATSRT_LOG_FORMAT": "xml"}},
		{"unknown archive backend", map[string]string{"CHATSRT_ARCHIVE_BACKEND": "s3"}},
		{"db archive without history", map[string]string{
			"CHATSRT_ARCHIVE_ENABLED": "true",
			"CHATSRT_ARCHIVE_BACKEND": "db",
			"CHATSRT_HISTORY_ENABLED": "false",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_DATA_HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CHATSRT_LOG_LEVEL=warn\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("CHATSRT_LOG_LEVEL", "")
	os.Unsetenv("CHATSRT_LOG_LEVEL")

	LoadDotEnv(path)

	if got := os.Getenv("CHATSRT_LOG_LEVEL"); got != "warn" {
		t.Errorf("CHATSRT_LOG_LEVEL = %q, want warn", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}
