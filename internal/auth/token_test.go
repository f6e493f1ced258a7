package auth

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{
		Sub:   "user-1",
		Name:  "Avery",
		Email: "avery@example.com",
		SID:   "ses_abc",
		Exp:   time.Now().Add(time.Hour).Unix(),
	}

	token, err := IssueToken(secret, claims)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if parsed.Sub != claims.Sub || parsed.Email != claims.Email || parsed.SID != claims.SID {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	claims := Claims{Sub: "user-1", Name: "Avery", SID: "ses_abc", Exp: time.Now().Add(time.Hour).Unix()}
	token, err := IssueToken([]byte("secret-a"), claims)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken([]byte("secret-b"), token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	claims := Claims{Sub: "user-1", Name: "Avery", SID: "ses_abc", Exp: time.Now().Add(-time.Minute).Unix()}
	token, err := IssueToken([]byte("secret"), claims)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken([]byte("secret"), token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseTokenRejectsTamperedPayload(t *testing.T) {
	claims := Claims{Sub: "user-1", Name: "Avery", SID: "ses_abc", Exp: time.Now().Add(time.Hour).Unix()}
	token, err := IssueToken([]byte("secret"), claims)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	parts := strings.Split(token, ".")
	tampered := parts[0] + "x." + parts[1]
	if _, err := ParseToken([]byte("secret"), tampered); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsMissingSessionID(t *testing.T) {
	claims := Claims{Sub: "user-1", Name: "Avery", Exp: time.Now().Add(time.Hour).Unix()}
	token, err := IssueToken([]byte("secret"), claims)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken([]byte("secret"), token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
