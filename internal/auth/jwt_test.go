package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/Newrona-pi/AUTO-Call/internal/config"
)

func TestExchangeAndVerify(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: 15 * time.Minute,
		AdminAPIKey:    "topsecret",
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.ExchangeAPIKey(now, "topsecret")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if tok == "" {
		t.Fatalf("expected token string")
	}

	claims, err := m.Verify(tok, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != RoleAdmin || claims.TokenType != TokenTypeAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestExchangeRejectsWrongKey(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AdminAPIKey: "topsecret"})
	if _, err := m.ExchangeAPIKey(time.Now(), "guess"); !errors.Is(err, ErrBadAPIKey) {
		t.Fatalf("expected ErrBadAPIKey, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, AdminAPIKey: "k"})
	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.ExchangeAPIKey(now, "k")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	m1, _ := NewManager(config.AuthConfig{JWTSecret: "secret-a", AdminAPIKey: "k"})
	m2, _ := NewManager(config.AuthConfig{JWTSecret: "secret-b", AdminAPIKey: "k"})
	tok, err := m1.ExchangeAPIKey(time.Now(), "k")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if _, err := m2.Verify(tok, time.Now()); err == nil {
		t.Fatalf("expected signature error")
	}
}
