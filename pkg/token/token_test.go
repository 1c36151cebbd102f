package token

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("test-secret", "bookclub", time.Hour)

	raw, err := m.Generate("u1", "Alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "u1" || claims.DisplayName != "Alice" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != "bookclub" {
		t.Errorf("issuer = %s", claims.Issuer)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	m := NewManager("test-secret", "bookclub", time.Hour)

	if _, err := m.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: %v", err)
	}

	other := NewManager("other-secret", "bookclub", time.Hour)
	raw, err := other.Generate("u1", "Alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("test-secret", "bookclub", -time.Minute)

	raw, err := m.Generate("u1", "Alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.Verify(raw); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expired token: %v", err)
	}
}
