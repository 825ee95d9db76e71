// Package validation checks operator-supplied input before it reaches the
// platform API or the local store. QR payloads in particular arrive from an
// untrusted scanner device and must be treated as hostile bytes.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	// MaxTokenLength bounds a scanned QR payload. Real ticket tokens are
	// well under this; anything longer is a misread or an attack.
	MaxTokenLength = 512
	// MaxAnswerLength bounds a single free-text form answer.
	MaxAnswerLength = 10000
)

// Validator provides input validation and sanitization
type Validator struct {
	tokenPattern  *regexp.Regexp
	userIDPattern *regexp.Regexp
	namePattern   *regexp.Regexp
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		// Ticket tokens: base64url alphabet plus dots, as issued by the
		// platform's QR generator.
		tokenPattern: regexp.MustCompile(`^[A-Za-z0-9._-]+$`),

		// User IDs: uuid or short alphanumeric handle.
		userIDPattern: regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`),

		// Kiosk names: alphanumeric with dots, underscores, hyphens.
		namePattern: regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`),
	}
}

// ValidateEventID validates a platform event identifier.
func (v *Validator) ValidateEventID(id string) error {
	if id == "" {
		return fmt.Errorf("event ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid event ID: must be a UUID")
	}
	return nil
}

// ValidateScanToken validates a QR payload before it is submitted or queued.
func (v *Validator) ValidateScanToken(token string) error {
	if token == "" {
		return fmt.Errorf("scan token cannot be empty")
	}
	if len(token) > MaxTokenLength {
		return fmt.Errorf("scan token too long: maximum %d characters", MaxTokenLength)
	}
	if !v.tokenPattern.MatchString(token) {
		return fmt.Errorf("invalid scan token: contains characters outside the ticket alphabet")
	}
	return nil
}

// ValidateUserID validates a manual check-in user identifier.
func (v *Validator) ValidateUserID(id string) error {
	if id == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err == nil {
		return nil
	}
	if !v.userIDPattern.MatchString(id) {
		return fmt.Errorf("invalid user ID: must be a UUID or a short alphanumeric handle")
	}
	return nil
}

// ValidateKioskName validates the name a kiosk registers itself under.
func (v *Validator) ValidateKioskName(name string) error {
	if name == "" {
		return fmt.Errorf("kiosk name cannot be empty")
	}
	if !v.namePattern.MatchString(name) {
		return fmt.Errorf("invalid kiosk name: must contain only alphanumeric characters, dots, underscores, and hyphens")
	}
	return nil
}

// ValidateAnswer validates a free-text form answer typed at the kiosk.
func (v *Validator) ValidateAnswer(answer string) error {
	if len(answer) > MaxAnswerLength {
		return fmt.Errorf("answer too long: maximum %d characters", MaxAnswerLength)
	}
	if strings.Contains(answer, "\x00") {
		return fmt.Errorf("answer contains null bytes")
	}
	return nil
}

// SanitizeString removes potentially dangerous characters from a string
func (v *Validator) SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except tab, newline, carriage return
	var sanitized strings.Builder
	for _, r := range input {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// TruncateString safely truncates a string to a maximum length
func (v *Validator) TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	// Truncate at rune boundary to avoid breaking multi-byte characters
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen-3]) + "..."
}
