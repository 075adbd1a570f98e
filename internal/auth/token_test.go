package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testIssuer(t *testing.T, now time.Time, opts ...TokenOption) *TokenIssuer {
	t.Helper()
	opts = append([]TokenOption{WithClock(func() time.Time { return now })}, opts...)
	issuer, err := NewTokenIssuer("test-secret-0123456789", opts...)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return issuer
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := testIssuer(t, now)

	raw, exp, err := issuer.Issue("user-1", TokenClassAccess, false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Equal(now.Add(time.Hour)) {
		t.Fatalf("access expiry = %v, want %v", exp, now.Add(time.Hour))
	}

	claims, err := issuer.Verify(raw, TokenClassAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q", claims.Subject)
	}
	if claims.Class() != TokenClassAccess {
		t.Fatalf("class = %q", claims.Class())
	}
	if claims.ID == "" {
		t.Fatal("expected a jti")
	}
}

func TestTokenExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	issuer := testIssuer(t, issued, WithClock(func() time.Time { return clock }))

	raw, exp, err := issuer.Issue("user-1", TokenClassAccess, false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock = exp.Add(-time.Second)
	if _, err := issuer.Verify(raw, TokenClassAccess); err != nil {
		t.Fatalf("token should still verify just before expiry: %v", err)
	}

	// now == exp is already invalid.
	clock = exp
	if _, err := issuer.Verify(raw, TokenClassAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("token at exact expiry should be invalid, got %v", err)
	}
	clock = exp.Add(time.Second)
	if _, err := issuer.Verify(raw, TokenClassAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("token past expiry should be invalid, got %v", err)
	}
}

func TestTokenClassMismatch(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := testIssuer(t, now)

	refresh, _, err := issuer.Issue("user-1", TokenClassRefresh, false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := issuer.Verify(refresh, TokenClassAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token must not verify as access, got %v", err)
	}
	if _, err := issuer.Verify(refresh, TokenClassRefresh); err != nil {
		t.Fatalf("refresh token should verify as refresh: %v", err)
	}
}

func TestTokenRememberMeExtendsRefreshOnly(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := testIssuer(t, now)

	_, shortExp, err := issuer.Issue("user-1", TokenClassRefresh, false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, longExp, err := issuer.Issue("user-1", TokenClassRefresh, true)
	if err != nil {
		t.Fatalf("Issue remember: %v", err)
	}
	if !shortExp.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("refresh expiry = %v", shortExp)
	}
	if !longExp.Equal(now.Add(30 * 24 * time.Hour)) {
		t.Fatalf("remember-me refresh expiry = %v", longExp)
	}

	_, accessExp, err := issuer.Issue("user-1", TokenClassAccess, true)
	if err != nil {
		t.Fatalf("Issue access: %v", err)
	}
	if !accessExp.Equal(now.Add(time.Hour)) {
		t.Fatalf("remember-me must not extend access tokens, expiry = %v", accessExp)
	}
}

func TestTokenIssuerAudienceMismatch(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	minting := testIssuer(t, now, WithIssuer("other-issuer"))
	verifying := testIssuer(t, now)

	raw, _, err := minting.Issue("user-1", TokenClassAccess, false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifying.Verify(raw, TokenClassAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong issuer should fail verification, got %v", err)
	}

	minting = testIssuer(t, now, WithAudience("other-app"))
	raw, _, err = minting.Issue("user-1", TokenClassAccess, false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifying.Verify(raw, TokenClassAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong audience should fail verification, got %v", err)
	}
}

func TestTokenTamperAndGarbage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := testIssuer(t, now)

	raw, _, err := issuer.Issue("user-1", TokenClassAccess, false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := map[string]string{
		"empty":             "",
		"garbage":           "not-a-token",
		"two segments":      strings.Join(strings.Split(raw, ".")[:2], "."),
		"flipped signature": raw[:len(raw)-4] + "AAAA",
	}
	for name, tok := range cases {
		if _, err := issuer.Verify(tok, TokenClassAccess); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("%s: want ErrTokenInvalid, got %v", name, err)
		}
	}

	other := testIssuer(t, now)
	other.secret = []byte("different-secret-key")
	if _, err := other.Verify(raw, TokenClassAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("foreign key should fail verification, got %v", err)
	}
}
