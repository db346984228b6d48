package util

import "testing"

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "", "base", "tiny"); got != "base" {
		t.Errorf("expected 'base', got %q", got)
	}
	if got := Coalesce(0, 0, 8787); got != 8787 {
		t.Errorf("expected 8787, got %d", got)
	}
	if got := Coalesce("", ""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
