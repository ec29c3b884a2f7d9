package auth

import (
	"strings"
	"testing"
	"time"
)

// newTestSigner uses a fixed, known secret so tests are deterministic.
func newTestSigner(t *testing.T) *CookieSigner {
	t.Helper()
	s, err := NewCookieSigner("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewCookieSigner: %v", err)
	}
	return s
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewCookieSigner_ShortSecret(t *testing.T) {
	if _, err := NewCookieSigner("short"); err == nil {
		t.Fatal("NewCookieSigner() should reject secrets shorter than 16 chars")
	}
}

func TestNewCookieSigner_ValidSecret(t *testing.T) {
	if _, err := NewCookieSigner("this-is-16-chars"); err != nil {
		t.Fatalf("NewCookieSigner() unexpected error for valid secret: %v", err)
	}
}

// =========================================================================
// SIGN / VERIFY TESTS
// =========================================================================

func TestSign_LooksLikeJWT(t *testing.T) {
	s := newTestSigner(t)

	value, err := s.Sign("sess-123", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	// header.payload.signature
	if strings.Count(value, ".") != 2 {
		t.Errorf("Sign() value doesn't look like a JWT: %q", value)
	}
}

func TestSign_EmptySessionID(t *testing.T) {
	s := newTestSigner(t)
	if _, err := s.Sign("", time.Now().Add(time.Hour)); err == nil {
		t.Error("Sign() should reject an empty session id")
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	s := newTestSigner(t)

	value, _ := s.Sign("sess-abc", time.Now().Add(time.Hour))
	got, err := s.Verify(value)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != "sess-abc" {
		t.Errorf("Verify() = %q, want %q", got, "sess-abc")
	}
}

func TestVerify_Expired(t *testing.T) {
	s := newTestSigner(t)

	value, _ := s.Sign("sess-abc", time.Now().Add(-time.Minute))
	if _, err := s.Verify(value); err == nil {
		t.Error("Verify() should reject an expired cookie")
	}
}

func TestVerify_ExpiresWithClock(t *testing.T) {
	s := newTestSigner(t)
	clock := time.Now()
	s.now = func() time.Time { return clock }

	value, _ := s.Sign("sess-abc", clock.Add(time.Hour))

	clock = clock.Add(59 * time.Minute)
	if _, err := s.Verify(value); err != nil {
		t.Fatalf("Verify() before expiry error = %v", err)
	}

	clock = clock.Add(2 * time.Minute)
	if _, err := s.Verify(value); err == nil {
		t.Error("Verify() after expiry should fail")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	s := newTestSigner(t)
	other, _ := NewCookieSigner("a-completely-different-secret")

	value, _ := other.Sign("sess-abc", time.Now().Add(time.Hour))
	if _, err := s.Verify(value); err == nil {
		t.Error("Verify() should reject a cookie signed with another secret")
	}
}

func TestVerify_Tampered(t *testing.T) {
	s := newTestSigner(t)
	value, _ := s.Sign("sess-abc", time.Now().Add(time.Hour))

	// Flip the first character of the signature part. The last character
	// carries padding bits, so changing it may not change the signature.
	i := strings.LastIndex(value, ".") + 1
	flipped := byte('A')
	if value[i] == 'A' {
		flipped = 'B'
	}
	tampered := value[:i] + string(flipped) + value[i+1:]

	if _, err := s.Verify(tampered); err == nil {
		t.Error("Verify() should reject a tampered cookie")
	}
}

func TestVerify_Garbage(t *testing.T) {
	s := newTestSigner(t)

	for _, value := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := s.Verify(value); err == nil {
			t.Errorf("Verify(%q) should fail", value)
		}
	}
}
