package token

import (
	"testing"
	"time"

	"github.com/fastygo/taskflow/domain"
)

func testSession() *domain.Session {
	now := time.Now().Truncate(time.Second)
	return &domain.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("secret", "taskflow")
	session := testSession()

	raw, err := issuer.Issue(session, "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.SessionID != "sess-1" || claims.Email != "a@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if !claims.Expiry().Equal(session.ExpiresAt) {
		t.Errorf("expected expiry %v, got %v", session.ExpiresAt, claims.Expiry())
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	raw, err := NewIssuer("secret", "taskflow").Issue(testSession(), "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = NewIssuer("other", "taskflow").Verify(raw)
	if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerify_RejectsExpired(t *testing.T) {
	session := testSession()
	session.CreatedAt = session.CreatedAt.Add(-2 * time.Hour)
	session.ExpiresAt = session.CreatedAt.Add(time.Hour)

	raw, err := NewIssuer("secret", "").Issue(session, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewIssuer("secret", "").Verify(raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseUnverified(t *testing.T) {
	raw, err := NewIssuer("secret", "taskflow").Issue(testSession(), "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := ParseUnverified(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SessionID != "sess-1" {
		t.Errorf("expected session id sess-1, got %q", claims.SessionID)
	}

	if _, err := ParseUnverified("not-a-token"); err == nil {
		t.Error("expected garbage to fail")
	}
}
