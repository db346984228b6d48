package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/whisperd/errors"
)

type engineSection struct {
	Binary  string `mapstructure:"binary" validate:"required"`
	Threads int    `mapstructure:"threads" validate:"gte=0,lte=64"`
}

type whisperSection struct {
	Device    string        `mapstructure:"device" validate:"oneof=auto cpu cuda"`
	URL       string        `json:"url" validate:"omitempty,url"`
	WhisperCP engineSection `mapstructure:"whispercpp"`
}

func TestStructValidateValid(t *testing.T) {
	cfg := whisperSection{Device: "cpu", WhisperCP: engineSection{Binary: "whisper-cli", Threads: 4}}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	cfg := whisperSection{Device: "tpu", URL: "not a url", WhisperCP: engineSection{Threads: 100}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"device: must be one of", "url: must be a valid URL", "whispercpp.binary: is required", "whispercpp.threads"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to contain %q, got %q", want, msg)
		}
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 4 {
		t.Errorf("expected 4 field errors, got %v", appErr.Details["fields"])
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"ModelsDir":    "models_dir",
		"Device":       "device",
		"DefaultModel": "default_model",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
