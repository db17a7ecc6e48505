package auth

import (
	"testing"

	"github.com/lingobuddy/server/internal/model"
)

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("12345"); err != ErrWeakPassword {
		t.Errorf("5 chars should be weak, got %v", err)
	}
	if err := ValidatePassword("123456"); err != nil {
		t.Errorf("6 chars should pass, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"alice@x.com", "a.b+c@sub.example.org"}
	invalid := []string{"", "alice", "alice@", "@x.com", "a b@x.com", "alice@x"}

	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Errorf("%q should be valid, got %v", e, err)
		}
	}
	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("%q should be invalid", e)
		}
	}
}

func TestHashPassword_roundTrip(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash must not equal plaintext")
	}
	if !CheckPassword(hash, "password123") {
		t.Error("correct password should verify")
	}
	if CheckPassword(hash, "password124") {
		t.Error("wrong password should not verify")
	}
}

func TestCheckPassword_federatedMarkerNeverMatches(t *testing.T) {
	if CheckPassword(model.PasswordMarkerGoogle, model.PasswordMarkerGoogle) {
		t.Error("federated marker must never verify as a password")
	}
}
