package auth

import (
	"context"
	"testing"
	"time"
)

func TestIdentifyRoundTrip(t *testing.T) {
	identity := NewJWTIdentity("test-secret")

	token, err := identity.IssueToken("u1", "alice", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := identity.Identify(context.Background(), token)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if claims.UserID != "u1" || claims.Login != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestIdentifyRejectsBadTokens(t *testing.T) {
	identity := NewJWTIdentity("test-secret")

	if _, err := identity.Identify(context.Background(), "not-a-token"); err == nil {
		t.Fatalf("expected error for garbage token")
	}

	other := NewJWTIdentity("other-secret")
	token, err := other.IssueToken("u1", "alice", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := identity.Identify(context.Background(), token); err == nil {
		t.Fatalf("expected error for wrong signing key")
	}

	expired, err := identity.IssueToken("u1", "alice", -time.Minute)
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	if _, err := identity.Identify(context.Background(), expired); err == nil {
		t.Fatalf("expected error for expired token")
	}
}
