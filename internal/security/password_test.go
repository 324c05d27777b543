package security

import (
	"errors"
	"testing"
)

func TestBcryptVerifier(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	v := NewBcryptVerifier()
	if err := v.Verify(hash, "correct horse battery staple"); err != nil {
		t.Fatalf("verify matching password: %v", err)
	}
	if err := v.Verify(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := v.Verify("not-a-bcrypt-hash", "anything"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("malformed hash must verify as a mismatch, got %v", err)
	}
}
