package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "Secret123" {
		t.Error("hash equals plain text")
	}
	if !VerifyPassword("Secret123", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("WrongPass1", hash) {
		t.Error("wrong password accepted")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"Secret123", true},
		{"short1A", false},
		{"nouppercase1", false},
		{"NOLOWERCASE1", false},
		{"NoDigitsHere", false},
		{strings.Repeat("Aa1", 50), false},
	}

	for _, tc := range cases {
		err := ValidatePasswordStrength(tc.password)
		if tc.valid && err != nil {
			t.Errorf("ValidatePasswordStrength(%q) = %v, want nil", tc.password, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("ValidatePasswordStrength(%q) = nil, want error", tc.password)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"user@example.com", "a.b+c@sub.domain.io"}
	invalid := []string{"", "plainaddress", "@no-local.com", "user@", "user@nodot"}

	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = false, want true", email)
		}
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = true, want false", email)
		}
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	session := UserSession{
		ID:      "u-1",
		Name:    "Alice",
		Email:   "alice@example.com",
		PlanID:  "pro",
		IsAdmin: true,
	}

	token, err := GenerateToken(session)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.User != session {
		t.Errorf("claims.User = %+v, want %+v", claims.User, session)
	}
	if claims.ID == "" {
		t.Error("token carries no JTI")
	}
	if claims.ExpiresAt == nil {
		t.Error("token carries no expiry")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestDecodeToken(t *testing.T) {
	token, err := GenerateToken(UserSession{ID: "u-1"})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken failed: %v", err)
	}
	if claims.User.ID != "u-1" {
		t.Errorf("decoded user ID = %q", claims.User.ID)
	}
}
