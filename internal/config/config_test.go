package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gorcerrors "github.com/caffeineduck/gorc/errors"
	"github.com/google/go-cmp/cmp"
	toml "github.com/pelletier/go-toml/v2"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[executor]
memory_mb = 64
timeout = "2s"

[server]
listen = "127.0.0.1:9000"

[log]
level = "debug"
format = "console"
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := Default()
	want.Executor.MemoryMB = 64
	want.Executor.Timeout = Duration{2 * time.Second}
	want.Server.Listen = "127.0.0.1:9000"
	want.Log.Level = "debug"
	want.Log.Format = "console"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad syntax", `[executor`},
		{"bad duration", "[executor]\ntimeout = \"soon\""},
		{"negative timeout", "[executor]\ntimeout = \"-1s\""},
		{"memory too large", "[executor]\nmemory_mb = 5000"},
		{"empty listen", "[server]\nlisten = \"\""},
		{"zero ttl", "[server]\ninstance_ttl = \"0s\""},
		{"unknown format", "[log]\nformat = \"xml\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, &gorcerrors.Error{Phase: gorcerrors.PhaseHost, Kind: gorcerrors.KindInvalidInput}) {
				t.Errorf("expected host/invalid_input, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg.Server.Listen != ":8080" {
		t.Fatalf("empty path must yield defaults: %+v %v", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "gorc.toml")
	if err := os.WriteFile(path, []byte("[server]\nmax_instances = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.MaxInstances != 3 {
		t.Errorf("max_instances = %d", cfg.Server.MaxInstances)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDurationRoundTrip(t *testing.T) {
	b, err := toml.Marshal(Default())
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Parse(b)
	if err != nil {
		t.Fatalf("re-parse failed: %v\n%s", err, b)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestExecutorOptions(t *testing.T) {
	cfg := Default().Executor
	cfg.DiskCache = false
	cfg.MemoryMB = 16
	if n := len(cfg.Options(nil)); n != 3 {
		t.Errorf("expected 3 options, got %d", n)
	}
	cfg.DiskCache = true
	cfg.CacheDir = t.TempDir()
	if n := len(cfg.Options(nil)); n != 4 {
		t.Errorf("expected 4 options, got %d", n)
	}
	if n := len(cfg.InvokeOptions()); n != 1 {
		t.Errorf("expected 1 invoke option, got %d", n)
	}
}
