package utils

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "user-1", "admin", 15)
	if err != nil {
		t.Fatalf("NewAccessToken failed: %v", err)
	}
	claims, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "admin" {
		t.Errorf("Expected user-1/admin, got %s/%s", claims.UserID, claims.Role)
	}
	if claims.Exp.Unix() != tok.Exp.Unix() {
		t.Errorf("Expected exp %v, got %v", tok.Exp, claims.Exp)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	tok, _ := NewAccessToken("secret", "user-1", "user", 15)
	expired, _ := NewAccessToken("secret", "user-1", "user", -5)

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{"wrong secret", "other", tok.Token},
		{"expired", "secret", expired.Token},
		{"garbage", "secret", "not.a.jwt"},
		{"empty", "secret", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAccessToken(tt.secret, tt.raw); err != ErrInvalidToken {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestSessionToken(t *testing.T) {
	a, err := NewSessionToken(30)
	if err != nil {
		t.Fatalf("NewSessionToken failed: %v", err)
	}
	b, _ := NewSessionToken(30)
	if len(a.Raw) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(a.Raw))
	}
	if a.Raw == b.Raw {
		t.Error("Expected distinct tokens")
	}
	if d := time.Until(a.Exp); d < 29*24*time.Hour || d > 30*24*time.Hour {
		t.Errorf("Unexpected expiry distance %v", d)
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	if h != HashToken("abc") {
		t.Error("Expected stable hash")
	}
	if h == HashToken("abd") {
		t.Error("Expected different hashes for different input")
	}
	if len(h) != 64 || strings.Contains(h, "abc") {
		t.Errorf("Unexpected digest %q", h)
	}
}

func TestSecretHashing(t *testing.T) {
	hash, err := HashSecret("code", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}
	if !VerifySecret(hash, "code") {
		t.Error("Expected secret to verify")
	}
	if VerifySecret(hash, "other") {
		t.Error("Expected wrong secret to fail")
	}
}
