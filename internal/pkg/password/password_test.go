package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw123456")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "pw123456" {
		t.Fatal("Hash() returned the plaintext")
	}
	if !h.Verify("pw123456", hash) {
		t.Error("Verify() = false for the original password")
	}
	if h.Verify("pw1234567", hash) {
		t.Error("Verify() = true for a different password")
	}
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	b, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
	if !h.Verify("same-password", a) || !h.Verify("same-password", b) {
		t.Error("both hashes should verify")
	}
}

func TestHashEmpty(t *testing.T) {
	if _, err := NewHasher(bcrypt.MinCost).Hash(""); err != ErrEmptyPassword {
		t.Fatalf("Hash(\"\") error = %v, want %v", err, ErrEmptyPassword)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, hash := range []string{"", "not-a-hash", "$2a$04$short"} {
		if h.Verify("whatever", hash) {
			t.Errorf("Verify(%q) = true, want false", hash)
		}
	}
}

func TestNewHasherCostFallback(t *testing.T) {
	if got := NewHasher(0).cost; got != DefaultCost {
		t.Errorf("cost = %d, want %d", got, DefaultCost)
	}
	if got := NewHasher(bcrypt.MaxCost + 1).cost; got != DefaultCost {
		t.Errorf("cost = %d, want %d", got, DefaultCost)
	}
}

func TestValidatePassword(t *testing.T) {
	cases := map[string]bool{
		"short":                 false,
		"12345678":              true,
		strings.Repeat("a", 72): true,
		strings.Repeat("a", 73): false,
	}
	for input, want := range cases {
		if got := ValidatePassword(input); got != want {
			t.Errorf("ValidatePassword(len %d) = %v, want %v", len(input), got, want)
		}
	}
}
