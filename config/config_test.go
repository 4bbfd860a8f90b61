package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

type testIteratorSection struct {
	BatchSize         int           `mapstructure:"batch_size"`
	QueueWaitInterval time.Duration `mapstructure:"queue_wait_interval"`
}

type testAppConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Iterator      testIteratorSection `mapstructure:"iterator"`
}

type fakeFS struct {
	files  map[string]bool
	loaded []string
}

func (f *fakeFS) Exists(p string) bool { return f.files[p] }
func (f *fakeFS) LoadEnv(p string) error {
	f.loaded = append(f.loaded, p)
	return nil
}

func TestBaseConfigApplyDefaults(t *testing.T) {
	cfg := BaseConfig{Name: "pageiter"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" || !cfg.Debug {
		t.Errorf("expected development with debug, got %+v", cfg)
	}

	cfg = BaseConfig{Name: "pageiter", Environment: "production"}
	cfg.ApplyDefaults()
	if cfg.Debug {
		t.Error("expected debug=false for production")
	}
}

func TestBaseConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    BaseConfig
		errMsg string
	}{
		{"valid", BaseConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", BaseConfig{Environment: "production"}, "name is required"},
		{"bad environment", BaseConfig{Name: "svc", Environment: "qa"}, "environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestServiceConfigDefaults(t *testing.T) {
	cfg := ServiceConfig{BaseConfig: BaseConfig{Name: "pageiter"}}
	cfg.ApplyDefaults()
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug logging in development, got %q", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg = ServiceConfig{BaseConfig: BaseConfig{Name: "pageiter", Environment: "production"}}
	cfg.ApplyDefaults()
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info logging in production, got %q", cfg.Logging.Level)
	}

	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil || !strings.HasPrefix(err.Error(), "logging:") {
		t.Errorf("expected logging error, got %v", err)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yaml := `
name: pageiter
environment: staging
logging:
  level: warn
iterator:
  batch_size: 25
  queue_wait_interval: 250ms
`
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var cfg testAppConfig
	if err := LoadConfig("pageiter", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "pageiter" || cfg.Environment != "staging" {
		t.Errorf("unexpected base %+v", cfg.BaseConfig)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected warn, got %q", cfg.Logging.Level)
	}
	if cfg.Iterator.BatchSize != 25 {
		t.Errorf("expected batch_size 25, got %d", cfg.Iterator.BatchSize)
	}
	if cfg.Iterator.QueueWaitInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Iterator.QueueWaitInterval)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("iterator:\n  batch_size: 25\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ITERATOR_BATCH_SIZE", "40")

	var cfg testAppConfig
	if err := LoadConfig("pageiter", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Iterator.BatchSize != 40 {
		t.Errorf("expected env to win with 40, got %d", cfg.Iterator.BatchSize)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testAppConfig
	if err := LoadConfig("pageiter", &cfg, WithConfigFile("/nonexistent/config.yml")); err != nil {
		t.Fatalf("expected success with missing file, got %v", err)
	}
}

func TestLoadConfigLoadsEnvFile(t *testing.T) {
	fs := &fakeFS{files: map[string]bool{"./.env": true}}
	var cfg testAppConfig
	if err := LoadConfig("pageiter", &cfg, WithFileSystem(fs)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !slices.Equal(fs.loaded, []string{"./.env"}) {
		t.Errorf("expected ./.env to be loaded, got %v", fs.loaded)
	}
}

func TestResolverSearchOrder(t *testing.T) {
	tests := []struct {
		name    string
		service string
		files   []string
		config  string
		env     string
	}{
		{"cmd dir", "pageiter", []string{"./cmd/pageiter/config.yml", "./config.yml"}, "./cmd/pageiter/config.yml", ""},
		{"short name", "pageiter-worker", []string{"./cmd/worker/config.yml"}, "./cmd/worker/config.yml", ""},
		{"root fallback", "pageiter", []string{"./config.yml", "./.env"}, "./config.yml", "./.env"},
		{"service env first", "pageiter", []string{"./.env", "./.env.pageiter"}, "", "./.env.pageiter"},
		{"nothing", "pageiter", nil, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := &fakeFS{files: map[string]bool{}}
			for _, f := range tc.files {
				fs.files[f] = true
			}
			got := (&Resolver{FileSystem: fs}).ResolveFiles(tc.service, LoaderConfig{})
			if got.ConfigFile != tc.config {
				t.Errorf("config = %q, want %q", got.ConfigFile, tc.config)
			}
			if got.EnvFile != tc.env {
				t.Errorf("env = %q, want %q", got.EnvFile, tc.env)
			}
		})
	}
}

func TestResolverKeepsExplicitPaths(t *testing.T) {
	fs := &fakeFS{files: map[string]bool{"./config.yml": true}}
	got := (&Resolver{FileSystem: fs}).ResolveFiles("pageiter", LoaderConfig{ConfigFile: "/etc/pageiter.yml", EnvFile: "/etc/pageiter.env"})
	if got.ConfigFile != "/etc/pageiter.yml" || got.EnvFile != "/etc/pageiter.env" {
		t.Errorf("expected explicit paths, got %+v", got)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("ITERATOR_BATCH_SIZE")
	want := []string{"iterator_batch_size", "iterator.batch.size", "iterator.batch_size"}
	if !slices.Equal(got, want) {
		t.Errorf("envKeyVariants = %v, want %v", got, want)
	}
	if got := envKeyVariants("DEBUG"); !slices.Equal(got, []string{"debug"}) {
		t.Errorf("single part = %v", got)
	}
}
