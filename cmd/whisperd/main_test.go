package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/whisperd/audio"
	"github.com/kbukum/whisperd/bootstrap"
	"github.com/kbukum/whisperd/component"
	"github.com/kbukum/whisperd/config"
	"github.com/kbukum/whisperd/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(config.WithConfigFile(writeConfig(t, "name: whisperd\n")), config.WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8787 {
		t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	w := cfg.Whisper
	if w.DefaultModel != "base" || w.Device != "auto" || w.ComputeType != "auto" || w.Engine != "whispercpp" {
		t.Errorf("whisper = %+v", w.Config)
	}
	if !strings.HasSuffix(w.ModelsDir, filepath.Join(".cache", "whisper")) {
		t.Errorf("models_dir = %q", w.ModelsDir)
	}
	if w.WhisperCpp.Binary != "whisper-cli" || w.Sidecar.Timeout != 120*time.Second {
		t.Errorf("engines = %+v %+v", w.WhisperCpp, w.Sidecar)
	}
	if cfg.Audio.TranscodeTimeout != 30*time.Second || cfg.Transcription.VAD.MinSilenceMs != 500 {
		t.Errorf("audio/transcription = %+v %+v", cfg.Audio, cfg.Transcription)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("WHISPER_HOST", "0.0.0.0")
	t.Setenv("WHISPER_PORT", "9100")
	t.Setenv("WHISPER_MODELS_DIR", "/srv/models")
	t.Setenv("WHISPER_DEFAULT_MODEL", "small")
	t.Setenv("WHISPER_DEVICE", "cpu")
	t.Setenv("WHISPER_COMPUTE_TYPE", "int8")
	t.Setenv("WHISPER_ENGINE", "sidecar")

	cfg, err := loadConfig(config.WithConfigFile(writeConfig(t, "name: whisperd\nserver:\n  port: 8000\n")), config.WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9100 {
		t.Errorf("server = %s:%d, want 0.0.0.0:9100", cfg.Server.Host, cfg.Server.Port)
	}
	w := cfg.Whisper
	if w.ModelsDir != "/srv/models" || w.DefaultModel != "small" || w.Device != "cpu" || w.ComputeType != "int8" || w.Engine != "sidecar" {
		t.Errorf("whisper = %+v", w.Config)
	}
}

func TestConfigValidateNamesSection(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		section string
	}{
		{"bad device", func(c *Config) { c.Whisper.Device = "tpu" }, "whisper"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server"},
		{"bad sidecar url", func(c *Config) { c.Whisper.Sidecar.URL = "::not a url" }, "whisper.sidecar"},
		{"bad temp dir", func(c *Config) { c.Audio.TempDir = "/nonexistent/dir" }, "audio"},
		{"bad vad", func(c *Config) { c.Transcription.VAD.SpeechPadMs = -1 }, "transcription"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.HasPrefix(err.Error(), tt.section+":") {
				t.Errorf("Validate() = %v, want %s error", err, tt.section)
			}
		})
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func fakeSidecar(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(http.ResponseWriter, *http.Request) {})
	mux.HandleFunc("POST /transcribe", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"segments": [{"text": " hi ", "start": 0, "end": 1}], "language": "en", "language_probability": 0.8, "duration": 1.0}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWireServesTranscriptions(t *testing.T) {
	sc := fakeSidecar(t)
	port := freePort(t)

	cfg := &Config{}
	cfg.Name = serviceName
	cfg.Server.Port = port
	cfg.Whisper.Engine = "sidecar"
	cfg.Whisper.Device = "cpu"
	cfg.Whisper.ModelsDir = t.TempDir()
	cfg.Whisper.Sidecar.URL = sc.URL
	cfg.Audio.TempDir = t.TempDir()

	app, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(
		logger.NewWithWriter(&logger.Config{Level: "error", Format: "json"}, serviceName, io.Discard)))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := wire(ctx, app); err != nil {
		t.Fatal(err)
	}
	if err := app.Components.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = app.Shutdown(ctx) })

	base := "http://127.0.0.1:" + strconv.Itoa(port)

	data, _ := audio.SilentWAV(1, audio.SampleRate)
	body, _ := json.Marshal(map[string]string{"audio": base64.StdEncoding.EncodeToString(data), "format": "wav"})
	resp, err := http.Post(base+"/transcribe", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || got["text"] != "hi" || got["language"] != "en" {
		t.Fatalf("transcribe = %d %v", resp.StatusCode, got)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("request ID header missing")
	}

	resp, err = http.Get(base + "/info")
	if err != nil {
		t.Fatal(err)
	}
	var info map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&info)
	resp.Body.Close()
	if info["engine"] != "sidecar" || info["service"] != serviceName {
		t.Errorf("info = %v", info)
	}

	resp, err = http.Get(base + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var health map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health["current_model"] != "base" {
		t.Errorf("health = %v, want base preloaded", health)
	}

	for _, h := range app.Components.HealthAll(ctx) {
		if h.Status == component.StatusUnhealthy {
			t.Errorf("component %s unhealthy: %s", h.Name, h.Message)
		}
	}
	entries, _ := os.ReadDir(cfg.Audio.TempDir)
	if len(entries) != 0 {
		t.Errorf("temp files left: %d", len(entries))
	}
}

func TestSelectEngineAutoWithoutBackends(t *testing.T) {
	w := &WhisperConfig{}
	w.Engine = "auto"
	w.WhisperCpp.Binary = filepath.Join(t.TempDir(), "missing-cli")
	w.Sidecar.URL = "http://127.0.0.1:1"
	w.WhisperCpp.ApplyDefaults()
	w.Sidecar.ApplyDefaults()
	if _, _, err := selectEngine(context.Background(), w); err == nil {
		t.Error("selectEngine() succeeded with no available backend")
	}
}
