package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testWhisper struct {
	ModelsDir    string `mapstructure:"models_dir"`
	DefaultModel string `mapstructure:"default_model"`
}

type testServer struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Whisper       testWhisper `mapstructure:"whisper"`
	Server        testServer  `mapstructure:"server"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging defaults to apply, got level %q", cfg.Logging.Level)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	path := writeConfig(t, `
name: whisperd
environment: staging
whisper:
  default_model: small
server:
  host: 0.0.0.0
  port: 9000
`)

	var cfg testConfig
	if err := LoadConfig("whisperd", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "whisperd" {
		t.Errorf("expected name 'whisperd', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Whisper.DefaultModel != "small" {
		t.Errorf("expected default model 'small', got %q", cfg.Whisper.DefaultModel)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
}

func TestLoadConfigEnvVariants(t *testing.T) {
	t.Setenv("WHISPER_MODELS_DIR", "/var/cache/models")

	var cfg testConfig
	if err := LoadConfig("whisperd", &cfg, WithConfigFile(writeConfig(t, "name: whisperd\n"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Whisper.ModelsDir != "/var/cache/models" {
		t.Errorf("expected env to reach whisper.models_dir, got %q", cfg.Whisper.ModelsDir)
	}
}

func TestLoadConfigEnvAlias(t *testing.T) {
	t.Setenv("WHISPER_PORT", "8888")
	t.Setenv("WHISPER_HOST", "0.0.0.0")
	path := writeConfig(t, "server:\n  port: 9000\n")

	var cfg testConfig
	err := LoadConfig("whisperd", &cfg,
		WithConfigFile(path),
		WithEnvAlias("WHISPER_PORT", "server.port"),
		WithEnvAlias("WHISPER_HOST", "server.host"),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 8888 {
		t.Errorf("expected alias to override file port, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected alias host, got %q", cfg.Server.Host)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/whisperd/config.yml": true,
		".env":                      true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("whisperd", LoaderConfig{})
	if files.ConfigFile != "./cmd/whisperd/config.yml" {
		t.Errorf("expected config file at ./cmd/whisperd/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected .env, got %q", files.EnvFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithEnvAlias("WHISPER_PORT", "server.port")(&lc)

	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
	if lc.EnvAliases["WHISPER_PORT"] != "server.port" {
		t.Errorf("expected alias to be recorded, got %v", lc.EnvAliases)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("whisperd", &cfg, WithConfigFile(writeConfig(t, "server: [port\n"))); err == nil {
		t.Fatal("expected a parse error for malformed YAML")
	}
}

func TestResolverSearchOrder(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./config.yml":             true,
		"/etc/whisperd/config.yml": true,
		"cmd/whisperd/.env":        true,
		".env.whisperd":            true,
	}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles("whisperd", LoaderConfig{})
	if files.ConfigFile != "./config.yml" {
		t.Errorf("config file = %q", files.ConfigFile)
	}
	if files.EnvFile != ".env.whisperd" {
		t.Errorf("env file = %q", files.EnvFile)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("WHISPER_SIDECAR_URL")
	want := []string{"whisper_sidecar_url", "whisper.sidecar.url", "whisper.sidecar_url"}
	for _, w := range want {
		found := false
		for _, v := range variants {
			if v == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected variant %q in %v", w, variants)
		}
	}
}
