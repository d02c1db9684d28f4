package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{"http://example.com/", "./out"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SeedURL != "http://example.com/" {
		t.Errorf("SeedURL = %q", cfg.SeedURL)
	}
	if cfg.TargetDir != "./out" {
		t.Errorf("TargetDir = %q", cfg.TargetDir)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if !cfg.IncludeHyperlinks || !cfg.IncludeStylesheets || !cfg.IncludeJavascript {
		t.Error("include toggles should default to true")
	}
	if !cfg.AllowOverwrites {
		t.Error("AllowOverwrites should default to true")
	}
	if cfg.StatusAddr != "" || cfg.RedisAddr != "" || cfg.PostgresURL != "" {
		t.Error("optional integrations should default to disabled")
	}
}

func TestLoadFlagOverrides(t *testing.T) {
	cfg, err := Load([]string{
		"--workers", "8",
		"--max-retries", "5",
		"--ascii-only",
		"--hyperlinks=false",
		"--status-addr", ":9090",
		"http://example.com/", "out",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if !cfg.ASCIIOnly {
		t.Error("ASCIIOnly not applied")
	}
	if cfg.IncludeHyperlinks {
		t.Error("hyperlinks=false not applied")
	}
	if cfg.StatusAddr != ":9090" {
		t.Errorf("StatusAddr = %q", cfg.StatusAddr)
	}
}

func TestLoadEnvironmentValues(t *testing.T) {
	t.Setenv("STATUS_ADDR", "127.0.0.1:9999")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("POSTGRES_URL", "postgres://crawler@localhost/crawler")
	t.Setenv("PROXY_URL", "http://proxy.local:3128")
	t.Setenv("CRAWL_WORKERS", "7")

	cfg, err := Load([]string{"http://example.com/", "out"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StatusAddr != "127.0.0.1:9999" {
		t.Errorf("StatusAddr = %q", cfg.StatusAddr)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.PostgresURL != "postgres://crawler@localhost/crawler" {
		t.Errorf("PostgresURL = %q", cfg.PostgresURL)
	}
	if cfg.ProxyURL != "http://proxy.local:3128" {
		t.Errorf("ProxyURL = %q", cfg.ProxyURL)
	}
	if cfg.Workers != 7 {
		t.Errorf("Workers = %d, want 7", cfg.Workers)
	}
}

func TestLoadFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("STATUS_ADDR", "127.0.0.1:9999")

	cfg, err := Load([]string{"--status-addr", ":8000", "http://example.com/", "out"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StatusAddr != ":8000" {
		t.Errorf("StatusAddr = %q, want flag value", cfg.StatusAddr)
	}
}

func TestLoadArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"missing target", []string{"http://example.com/"}},
		{"extra argument", []string{"http://example.com/", "out", "surplus"}},
		{"zero workers", []string{"--workers", "0", "http://example.com/", "out"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.args); err == nil {
				t.Error("Load accepted invalid arguments")
			}
		})
	}
}
