package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := DefaultConfig()
	if *cfg != *want {
		t.Errorf("expected defaults %+v, got %+v", want, cfg)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hoverlabel.yaml")
	content := `
listen_addr: 127.0.0.1:9999
classify_timeout: 3s
cache_capacity: 10
debounce: 100ms
feedback_sink: http
feedback_url: http://127.0.0.1:5000/feedback
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("HOVERLABEL_CACHE_CAPACITY", "25")
	t.Setenv("HOVERLABEL_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{name: "listen addr from file", got: cfg.ListenAddr, expected: "127.0.0.1:9999"},
		{name: "timeout from file", got: cfg.ClassifyTimeout, expected: 3 * time.Second},
		{name: "debounce from file", got: cfg.Debounce, expected: 100 * time.Millisecond},
		{name: "env overrides file", got: cfg.CacheCapacity, expected: 25},
		{name: "env only", got: cfg.LogLevel, expected: "debug"},
		{name: "default kept", got: cfg.MinImageDimension, expected: 100},
		{name: "sink", got: cfg.FeedbackSink, expected: SinkHTTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "http sink without url", mutate: func(c *Config) { c.FeedbackSink = SinkHTTP }, wantErr: true},
		{name: "unknown sink", mutate: func(c *Config) { c.FeedbackSink = "kafka" }, wantErr: true},
		{name: "zero capacity", mutate: func(c *Config) { c.CacheCapacity = 0 }, wantErr: true},
		{name: "bad quality", mutate: func(c *Config) { c.JPEGQuality = 101 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

// chdirTemp changes into a fresh temp dir for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
