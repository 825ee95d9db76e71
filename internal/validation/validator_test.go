package validation

import (
	"strings"
	"testing"
)

func TestValidateEventID(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateEventID("3f0b6a02-8f9e-4a43-b1d4-2a9c86a3d111"); err != nil {
		t.Errorf("valid UUID rejected: %v", err)
	}

	for _, id := range []string{"", "evt-1", "not-a-uuid", "3f0b6a02"} {
		if err := v.ValidateEventID(id); err == nil {
			t.Errorf("expected error for %q", id)
		}
	}
}

func TestValidateScanToken(t *testing.T) {
	v := NewValidator()

	valid := []string{
		"TKT-abc123",
		"eyJhbGciOiJIUzI1NiJ9.payload.sig",
		"a",
	}
	for _, token := range valid {
		if err := v.ValidateScanToken(token); err != nil {
			t.Errorf("valid token %q rejected: %v", token, err)
		}
	}

	invalid := []string{
		"",
		"token with spaces",
		"tok;rm -rf /",
		"tok\x00en",
		"tok`en`",
		strings.Repeat("a", MaxTokenLength+1),
	}
	for _, token := range invalid {
		if err := v.ValidateScanToken(token); err == nil {
			t.Errorf("expected error for %q", token)
		}
	}
}

func TestValidateUserID(t *testing.T) {
	v := NewValidator()

	valid := []string{
		"3f0b6a02-8f9e-4a43-b1d4-2a9c86a3d111",
		"user_42",
		"abc",
	}
	for _, id := range valid {
		if err := v.ValidateUserID(id); err != nil {
			t.Errorf("valid user ID %q rejected: %v", id, err)
		}
	}

	invalid := []string{"", "user 42", "u;id", strings.Repeat("a", 65)}
	for _, id := range invalid {
		if err := v.ValidateUserID(id); err == nil {
			t.Errorf("expected error for %q", id)
		}
	}
}

func TestValidateKioskName(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateKioskName("front-desk.2"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	for _, name := range []string{"", "front desk", "desk/1", strings.Repeat("a", 65)} {
		if err := v.ValidateKioskName(name); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestValidateAnswer(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateAnswer("Jane Döe\nACME Corp"); err != nil {
		t.Errorf("valid answer rejected: %v", err)
	}
	if err := v.ValidateAnswer(""); err != nil {
		t.Errorf("empty answer should be allowed: %v", err)
	}
	if err := v.ValidateAnswer("a\x00b"); err == nil {
		t.Error("expected error for null byte")
	}
	if err := v.ValidateAnswer(strings.Repeat("a", MaxAnswerLength+1)); err == nil {
		t.Error("expected error for oversized answer")
	}
}

func TestSanitizeString(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"with\x00null", "withnull"},
		{"keep\ttabs\nand\rnewlines", "keep\ttabs\nand\rnewlines"},
		{"strip\x07bell\x1bescape", "stripbellescape"},
	}
	for _, tt := range tests {
		if got := v.SanitizeString(tt.in); got != tt.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	v := NewValidator()

	if got := v.TruncateString("short", 10); got != "short" {
		t.Errorf("short string altered: %q", got)
	}
	got := v.TruncateString(strings.Repeat("x", 20), 10)
	if len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Errorf("unexpected truncation: %q", got)
	}
}
