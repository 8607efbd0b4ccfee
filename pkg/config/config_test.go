package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mappak.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Default()
	if cfg.HeadersDir != want.HeadersDir || cfg.Background != want.Background ||
		cfg.CompressionLevel != -1 || cfg.Workers != 1 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
headers_dir: /srv/headers
compression_level: 9
workers: 4
resize: true
encoder:
  command: bc7enc
  args: ["-w", "{width}", "-h", "{height}"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HeadersDir != "/srv/headers" {
		t.Errorf("Expected headers_dir /srv/headers, got %q", cfg.HeadersDir)
	}
	if cfg.Background != Default().Background {
		t.Errorf("Expected default background to survive, got %q", cfg.Background)
	}
	if cfg.CompressionLevel != 9 || cfg.Workers != 4 || !cfg.Resize {
		t.Errorf("Unexpected values %+v", cfg)
	}
	if cfg.Encoder.Command != "bc7enc" || len(cfg.Encoder.Args) != 4 || cfg.Encoder.Args[1] != "{width}" {
		t.Errorf("Unexpected encoder %+v", cfg.Encoder)
	}
}

func TestLoad_EnvVar(t *testing.T) {
	path := writeConfig(t, "workers: 3\n")
	t.Setenv(EnvVar, path)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workers != 3 {
		t.Errorf("Expected workers 3, got %d", cfg.Workers)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"level", "compression_level: 12\n", "compression_level"},
		{"workers", "workers: -2\n", "workers"},
		{"headers", "headers_dir: \"\"\n", "headers_dir"},
		{"yaml", "workers: [\n", "parsing config"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}
