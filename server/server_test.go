package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/whisperd/component"
	apperrors "github.com/kbukum/whisperd/errors"
	"github.com/kbukum/whisperd/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "error", Format: "json"}, "test", io.Discard)
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1", cfg.Host)
	}
	if cfg.Port != 8787 {
		t.Errorf("Port = %d, want 8787", cfg.Port)
	}
	if cfg.ShutdownTimeout != 5 {
		t.Errorf("ShutdownTimeout = %d, want 5", cfg.ShutdownTimeout)
	}
	if cfg.MaxBodySize != "50MB" {
		t.Errorf("MaxBodySize = %q, want 50MB", cfg.MaxBodySize)
	}
	if cfg.CORS.Enabled() {
		t.Error("CORS should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"negative timeout", func(c *Config) { c.ReadTimeout = -1 }},
		{"bad body size", func(c *Config) { c.MaxBodySize = "lots" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tt.mod(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCORSDefaultsOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{}
	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.ApplyDefaults()
	if len(cfg.CORS.AllowedMethods) == 0 || len(cfg.CORS.AllowedHeaders) == 0 {
		t.Error("expected CORS methods and headers to be defaulted")
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"github.com/kbukum/whisperd/api.(*Handler).Transcribe-fm", "Handler.Transcribe"},
		{"github.com/kbukum/whisperd/server/endpoint.Info.func1", "info"},
		{"main.handler", "handler"},
	}
	for _, tt := range tests {
		if got := formatHandlerName(tt.in); got != tt.want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoutesOrdering(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	srv := New(cfg, testLogger())
	srv.RegisterDefaultEndpoints("whisperd", nil, nil)
	noop := func(c *gin.Context) {}
	srv.GinEngine().POST("/transcribe", noop)
	srv.GinEngine().GET("/models", noop)
	srv.GinEngine().GET("/health", noop)

	routes := NewComponent(srv).Routes()
	var paths []string
	for _, r := range routes {
		paths = append(paths, r.Path)
	}
	got := strings.Join(paths, ",")
	want := "/health,/models,/transcribe,/info,/ready"
	if got != want {
		t.Errorf("routes = %s, want %s", got, want)
	}
	if !strings.HasSuffix(routes[len(routes)-1].Handler, "⚙️") {
		t.Error("expected system route to be labelled")
	}
}

func TestServerMiddlewareAndEndpoints(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	srv := New(cfg, testLogger())
	srv.RegisterDefaultEndpoints("whisperd",
		func(ctx context.Context) []component.Health {
			return []component.Health{{Name: "models", Status: component.StatusUnhealthy}}
		},
		func() map[string]any { return map[string]any{"engine": "fake"} },
	)
	srv.GinEngine().POST("/fail", func(c *gin.Context) {
		RespondWithError(c, apperrors.MissingField("audio", "No audio data provided"))
	})
	srv.ApplyMiddleware()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/info")
	if err != nil {
		t.Fatalf("GET /info: %v", err)
	}
	var info map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&info)
	resp.Body.Close()
	if info["service"] != "whisperd" || info["engine"] != "fake" {
		t.Errorf("unexpected /info body: %v", info)
	}

	resp, err = http.Get(ts.URL + "/ready")
	if err != nil {
		t.Fatalf("GET /ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/ready status = %d, want 503", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/fail", "application/json", bytes.NewBufferString("{}"))
	if err != nil {
		t.Fatalf("POST /fail: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var body apperrors.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Detail != "No audio data provided" {
		t.Errorf("detail = %q", body.Detail)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header")
	}
}

func TestServerStartStop(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Port = 0
	srv := New(cfg, testLogger())
	srv.GinEngine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	comp := NewComponent(srv)

	ctx := context.Background()
	if h := comp.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %s, want unhealthy", h.Status)
	}
	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := comp.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health after start = %s, want healthy", h.Status)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	if err != nil {
		t.Fatalf("GET /ping: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(b) != "pong" {
		t.Errorf("body = %q, want pong", b)
	}

	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if srv.Listening() {
		t.Error("expected listener released after Stop")
	}
}
