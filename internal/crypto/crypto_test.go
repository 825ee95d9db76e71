package crypto

import (
	"strings"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	sealer := NewSealer("kiosk-passphrase-123")

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"session record", `{"token":"tok-abc","identity":{"id":"u-1"}}`},
		{"unicode", "Fältnamn: Anmälan 🎟"},
		{"long", strings.Repeat("a", 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := sealer.Seal([]byte(tt.plaintext))
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if strings.Contains(blob, tt.plaintext) && tt.plaintext != "" {
				t.Error("blob contains plaintext")
			}

			opened, err := sealer.Open(blob)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if string(opened) != tt.plaintext {
				t.Errorf("round trip mismatch: expected %q, got %q", tt.plaintext, string(opened))
			}
		})
	}
}

func TestSealFreshSaltPerCall(t *testing.T) {
	sealer := NewSealer("kiosk-passphrase-123")

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		blob, err := sealer.Seal([]byte("same plaintext"))
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}
		if seen[blob] {
			t.Fatal("identical blobs for repeated Seal calls")
		}
		seen[blob] = true
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	blob, err := NewSealer("right-passphrase").Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if _, err := NewSealer("wrong-passphrase").Open(blob); err == nil {
		t.Fatal("expected authentication failure with wrong passphrase")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	sealer := NewSealer("kiosk-passphrase-123")

	for _, blob := range []string{"", "not base64 !!!", "c2hvcnQ="} {
		if _, err := sealer.Open(blob); err == nil {
			t.Errorf("expected error opening %q", blob)
		}
	}
}

func TestOpenRejectsTamperedBlob(t *testing.T) {
	sealer := NewSealer("kiosk-passphrase-123")
	blob, err := sealer.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	// flip a character in the ciphertext portion
	tampered := []byte(blob)
	i := len(tampered) - 2
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}
	if _, err := sealer.Open(string(tampered)); err == nil {
		t.Fatal("expected error opening tampered blob")
	}
}

func TestGeneratePassphrase(t *testing.T) {
	if _, err := GeneratePassphrase(8); err == nil {
		t.Error("expected error for short length")
	}

	p1, err := GeneratePassphrase(32)
	if err != nil {
		t.Fatalf("GeneratePassphrase failed: %v", err)
	}
	p2, err := GeneratePassphrase(32)
	if err != nil {
		t.Fatalf("GeneratePassphrase failed: %v", err)
	}
	if len(p1) != 32 || p1 == p2 {
		t.Error("expected distinct 32-char passphrases")
	}
}

func TestSecureZero(t *testing.T) {
	data := []byte("sensitive")
	SecureZero(data)
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
}
