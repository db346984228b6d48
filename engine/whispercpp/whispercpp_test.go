package whispercpp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/whisperd/audio"
	"github.com/kbukum/whisperd/engine"
)

const fakeCLI = `
echo "$@" > "$(dirname "$0")/args"
of=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-of" ]; then of="$2"; fi
  shift
done
echo "whisper_init_from_file_with_params_no_state: loading model" >&2
echo "auto-detected language: en (p = 0.973745)" >&2
printf '%s' '{"result":{"language":"en"},"transcription":[{"offsets":{"from":0,"to":1500},"text":" Hello"},{"offsets":{"from":1500,"to":2000},"text":" world."}]}' > "$of.json"
`

func writeCLI(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whisper-cli")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func weightsServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ggml-base.bin", "/ggml-base-q8_0.bin", "/" + defaultVADModel:
			_, _ = w.Write([]byte("ggml"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func drain(t *testing.T, segs engine.Segments) ([]engine.Segment, engine.Info) {
	t.Helper()
	if _, err := segs.Info(); err != engine.ErrNotConsumed {
		t.Fatalf("Info() before drain = %v, want ErrNotConsumed", err)
	}
	var out []engine.Segment
	for {
		s, ok := segs.Next()
		if !ok {
			break
		}
		out = append(out, s)
	}
	info, err := segs.Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	return out, info
}

func TestWeightsFile(t *testing.T) {
	tests := []struct {
		model, precision, want string
	}{
		{"base", engine.PrecisionFloat16, "ggml-base.bin"},
		{"base.en", engine.PrecisionFloat32, "ggml-base.en.bin"},
		{"small", engine.PrecisionInt8, "ggml-small-q8_0.bin"},
		{"medium", "int8_float16", "ggml-medium-q8_0.bin"},
		{"large-v3", engine.PrecisionInt8, "ggml-large-v3-q5_0.bin"},
		{"large-v2", "", "ggml-large-v2.bin"},
	}
	for _, tt := range tests {
		if got := WeightsFile(tt.model, tt.precision); got != tt.want {
			t.Errorf("WeightsFile(%q, %q) = %q, want %q", tt.model, tt.precision, got, tt.want)
		}
	}
}

func TestLoadAndTranscribe(t *testing.T) {
	var hits atomic.Int32
	srv := weightsServer(t, &hits)
	cli := writeCLI(t, fakeCLI)
	cache := t.TempDir()

	eng := New(Config{Binary: cli, Threads: 2, BaseURL: srv.URL, VADBaseURL: srv.URL})
	if !eng.IsAvailable(context.Background()) {
		t.Fatal("IsAvailable() = false for executable script")
	}
	m, err := eng.Load(context.Background(), engine.LoadSpec{
		Model: "base", Device: engine.DeviceCPU, Precision: engine.PrecisionInt8, CacheDir: cache,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(cache, "ggml-base-q8_0.bin")); err != nil {
		t.Errorf("weights not cached: %v", err)
	}

	wav := filepath.Join(t.TempDir(), "in.wav")
	data, _ := audio.SilentWAV(2, audio.SampleRate)
	if err := os.WriteFile(wav, data, 0o600); err != nil {
		t.Fatal(err)
	}

	segs, err := m.Transcribe(context.Background(), engine.RunOptions{
		AudioPath: wav,
		VAD:       engine.VADOptions{Enabled: true, MinSilence: 500 * time.Millisecond, SpeechPad: 400 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	out, info := drain(t, segs)
	if len(out) != 2 || out[0].Text != " Hello" || out[1].Start != 1.5 || out[1].End != 2 {
		t.Errorf("segments = %+v", out)
	}
	if info.Language != "en" || info.LanguageProbability != 0.973745 || info.Duration != 2 {
		t.Errorf("info = %+v", info)
	}

	rawArgs, err := os.ReadFile(filepath.Join(filepath.Dir(cli), "args"))
	if err != nil {
		t.Fatal(err)
	}
	args := strings.Fields(string(rawArgs))
	for _, want := range []string{"-oj", "-ng", "--vad", "auto", "500", "400"} {
		if !slices.Contains(args, want) {
			t.Errorf("args %v missing %q", args, want)
		}
	}

	// A second load reuses cached files.
	before := hits.Load()
	if _, err := eng.Load(context.Background(), engine.LoadSpec{Model: "base", Precision: engine.PrecisionInt8, CacheDir: cache}); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != before {
		t.Errorf("cached weights downloaded again")
	}
}

func TestLoadFailures(t *testing.T) {
	var hits atomic.Int32
	srv := weightsServer(t, &hits)

	missing := New(Config{Binary: filepath.Join(t.TempDir(), "nope")})
	if missing.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = true for missing binary")
	}
	if _, err := missing.Load(context.Background(), engine.LoadSpec{Model: "base", CacheDir: t.TempDir()}); err == nil {
		t.Error("Load() with missing binary should fail")
	}

	cache := t.TempDir()
	eng := New(Config{Binary: writeCLI(t, fakeCLI), BaseURL: srv.URL, VADBaseURL: srv.URL})
	if _, err := eng.Load(context.Background(), engine.LoadSpec{Model: "tiny", CacheDir: cache}); err == nil {
		t.Error("Load() should fail when weights are not published")
	}
	entries, _ := os.ReadDir(cache)
	if len(entries) != 0 {
		t.Errorf("failed download left files: %v", entries)
	}
}

func TestLoadWithoutVADModel(t *testing.T) {
	var hits atomic.Int32
	srv := weightsServer(t, &hits)
	eng := New(Config{Binary: writeCLI(t, fakeCLI), BaseURL: srv.URL, VADBaseURL: srv.URL + "/missing"})

	m, err := eng.Load(context.Background(), engine.LoadSpec{Model: "base", Device: engine.DeviceCUDA, CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	args := m.(*Model).Args(engine.RunOptions{AudioPath: "a.wav", Language: "de", VAD: engine.VADOptions{Enabled: true}}, "out")
	if slices.Contains(args, "--vad") {
		t.Errorf("VAD flags present without a VAD model: %v", args)
	}
	if slices.Contains(args, "-ng") {
		t.Errorf("-ng present for cuda: %v", args)
	}
	if i := slices.Index(args, "-l"); i < 0 || args[i+1] != "de" {
		t.Errorf("language flag = %v", args)
	}
}

func TestTranscribeFailure(t *testing.T) {
	m := &Model{binary: writeCLI(t, `echo "failed to read audio" >&2; exit 2`), threads: 1, weights: "w.bin"}
	_, err := m.Transcribe(context.Background(), engine.RunOptions{AudioPath: "a.ogg"})
	if err == nil || !strings.Contains(err.Error(), "failed to read audio") {
		t.Errorf("error = %v", err)
	}

	silent := &Model{binary: writeCLI(t, `exit 0`), threads: 1, weights: "w.bin"}
	if _, err := silent.Transcribe(context.Background(), engine.RunOptions{AudioPath: "a.wav"}); err == nil {
		t.Error("expected error when no JSON is written")
	}
}

func TestParseOutput(t *testing.T) {
	raw := []byte(`{"result":{"language":""},"transcription":[{"offsets":{"from":250,"to":1000},"text":" Bonjour"}]}`)

	segs, info, err := parseOutput(raw, []byte("auto-detected language: fr (p = 0.51)\n"), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || segs[0].Start != 0.25 || segs[0].End != 1 {
		t.Errorf("segments = %+v", segs)
	}
	if info.Language != "fr" || info.LanguageProbability != 0.51 {
		t.Errorf("info = %+v", info)
	}

	_, info, _ = parseOutput(raw, nil, "fr")
	if info.Language != "fr" || info.LanguageProbability != 1 {
		t.Errorf("requested language info = %+v", info)
	}

	if _, _, err := parseOutput([]byte("not json"), nil, ""); err == nil {
		t.Error("expected decode error")
	}
}

func TestFactory(t *testing.T) {
	eng, err := Factory()(map[string]any{"binary": "/opt/whisper-cli", "threads": 3, "base_url": "http://mirror/"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := eng.(*Engine).cfg
	if cfg.Binary != "/opt/whisper-cli" || cfg.Threads != 3 || cfg.BaseURL != "http://mirror" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.VADModel != defaultVADModel || cfg.VADBaseURL != defaultVADBaseURL {
		t.Errorf("VAD defaults = %+v", cfg)
	}
	if _, err := Factory()(map[string]any{"threads": -1}); err == nil {
		t.Error("negative threads accepted")
	}
}
