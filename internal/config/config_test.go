package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/simheat/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvCache, EnvRedisURL, EnvMongoURI} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	p := writeConfig(t, `
[render]
backend = "grid"
colormap = "coolwarm"
formats = ["png", "pdf"]

[cache]
backend = "none"

[labels]
a = "Alpha"

[classes]
a = "x"
b = "y"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.Backend != "grid" || cfg.Render.Colormap != "coolwarm" {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if !slices.Equal(cfg.Render.Formats, []string{"png", "pdf"}) {
		t.Errorf("Formats = %v", cfg.Render.Formats)
	}
	if cfg.Cache.Backend != CacheNone {
		t.Errorf("Cache.Backend = %q", cfg.Cache.Backend)
	}
	if cfg.Labels["a"] != "Alpha" || len(cfg.Classes) != 2 {
		t.Errorf("Labels = %v, Classes = %v", cfg.Labels, cfg.Classes)
	}
}

func TestLoadDefaultPathMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if cfg.Cache.Backend != CacheFile {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"missing explicit", filepath.Join(t.TempDir(), "nope.toml"), errors.ErrCodeFileNotFound},
		{"syntax", writeConfig(t, "[render\n"), errors.ErrCodeInvalidInput},
		{"unknown key", writeConfig(t, "[render]\nstyle = \"x\"\n"), errors.ErrCodeInvalidInput},
		{"unknown cache", writeConfig(t, "[cache]\nbackend = \"memcached\"\n"), errors.ErrCodeInvalidInput},
		{"redis without url", writeConfig(t, "[cache]\nbackend = \"redis\"\n"), errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvCache, "Redis")
	t.Setenv(EnvRedisURL, "redis://cache:6379/1")
	t.Setenv(EnvMongoURI, "mongodb://db")

	cfg, err := Load(writeConfig(t, "[cache]\nbackend = \"file\"\nredis_url = \"redis://old\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Backend != CacheRedis {
		t.Errorf("Backend = %q, want redis", cfg.Cache.Backend)
	}
	if cfg.Cache.RedisURL != "redis://cache:6379/1" || cfg.Cache.MongoURI != "mongodb://db" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestLoadEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(p, []byte("SIMHEAT_TEST_VALUE=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIMHEAT_TEST_VALUE", "")
	os.Unsetenv("SIMHEAT_TEST_VALUE")

	if err := LoadEnv(p, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("SIMHEAT_TEST_VALUE"); got != "from-dotenv" {
		t.Errorf("SIMHEAT_TEST_VALUE = %q", got)
	}
}
