package services

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenServiceWithSecret("test-secret", time.Hour, 24*time.Hour)

	token, err := svc.GenerateToken("user_1", "a@b.com")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != "user_1" || claims.Email != "a@b.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefreshTokenOmitsEmail(t *testing.T) {
	svc := NewTokenServiceWithSecret("test-secret", time.Hour, 24*time.Hour)

	token, err := svc.GenerateRefreshToken("user_1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := svc.ParseRefreshToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != "user_1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	signer := NewTokenServiceWithSecret("secret-a", time.Hour, time.Hour)
	verifier := NewTokenServiceWithSecret("secret-b", time.Hour, time.Hour)

	token, err := signer.GenerateToken("user_1", "a@b.com")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := verifier.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc := NewTokenServiceWithSecret("test-secret", -time.Minute, -time.Minute)

	token, err := svc.GenerateToken("user_1", "a@b.com")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := svc.ParseToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	refresh, err := svc.GenerateRefreshToken("user_1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := svc.ParseRefreshToken(refresh); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := NewTokenServiceWithSecret("test-secret", time.Hour, time.Hour)

	if _, err := svc.ParseToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
