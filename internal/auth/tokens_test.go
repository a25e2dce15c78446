package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("unexpected user id %q", claims.UserID)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenIssuer("secret-b", time.Hour).Parse(token); err == nil {
		t.Fatal("expected parse to fail with wrong secret")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := NewTokenIssuer("secret", time.Hour).WithClock(past).Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenIssuer("secret", time.Hour).Parse(token); err == nil {
		t.Fatal("expected parse to fail for expired token")
	}
}

func TestNewTokenIssuerDefaultsLifetime(t *testing.T) {
	issuer := NewTokenIssuer("secret", 0)
	if issuer.ttl != 24*time.Hour {
		t.Fatalf("unexpected default ttl %v", issuer.ttl)
	}
	if NewTokenIssuer("secret", -time.Minute).ttl != -time.Minute {
		t.Fatal("negative lifetime should be kept as given")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := NewTokenIssuer("secret", time.Hour).Parse("not-a-token"); err == nil {
		t.Fatal("expected parse to fail")
	}
}
