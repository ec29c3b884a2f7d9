package auth

import (
	"errors"
	"strings"
	"testing"
)

// newTestBcrypt uses cost 4, the minimum bcrypt allows, so tests run in
// milliseconds instead of ~250ms each.
func newTestBcrypt() *BcryptPasswords {
	return NewBcryptPasswordsForTest(4)
}

func TestNewPasswordChecker(t *testing.T) {
	tests := []struct {
		mode    string
		want    string
		wantErr bool
	}{
		{"", "auth.PlaintextPasswords", false},
		{"plaintext", "auth.PlaintextPasswords", false},
		{"bcrypt", "*auth.BcryptPasswords", false},
		{"md5", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			pc, err := NewPasswordChecker(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPasswordChecker(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			switch pc.(type) {
			case PlaintextPasswords:
				if tt.want != "auth.PlaintextPasswords" {
					t.Errorf("got PlaintextPasswords, want %s", tt.want)
				}
			case *BcryptPasswords:
				if tt.want != "*auth.BcryptPasswords" {
					t.Errorf("got *BcryptPasswords, want %s", tt.want)
				}
			default:
				t.Errorf("unexpected checker type %T", pc)
			}
		})
	}
}

// =========================================================================
// PLAINTEXT TESTS
// =========================================================================

func TestPlaintext_StoresAsGiven(t *testing.T) {
	stored, err := PlaintextPasswords{}.Prepare("hunter2")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if stored != "hunter2" {
		t.Errorf("Prepare() = %q, want the password unchanged", stored)
	}
}

func TestPlaintext_Verify(t *testing.T) {
	pc := PlaintextPasswords{}

	if err := pc.Verify("hunter2", "hunter2"); err != nil {
		t.Errorf("Verify() equal passwords: error = %v", err)
	}
	if err := pc.Verify("hunter2", "Hunter2"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify() different case: error = %v, want ErrPasswordMismatch", err)
	}
	if err := pc.Verify("hunter2", ""); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify() empty: error = %v, want ErrPasswordMismatch", err)
	}
}

// =========================================================================
// BCRYPT TESTS
// =========================================================================

func TestBcrypt_PrepareLooksBcrypt(t *testing.T) {
	hash, err := newTestBcrypt().Prepare("password123")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	// bcrypt hashes always start with $2a$ or $2b$
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Prepare() does not look like a bcrypt hash: %q", hash)
	}
}

func TestBcrypt_SamePasswordProducesDifferentHashes(t *testing.T) {
	pc := newTestBcrypt()

	hash1, _ := pc.Prepare("same-password")
	hash2, _ := pc.Prepare("same-password")
	if hash1 == hash2 {
		t.Error("Prepare() produced identical hashes for the same password (salt must be random)")
	}
}

func TestBcrypt_RejectsLongPassword(t *testing.T) {
	if _, err := newTestBcrypt().Prepare(strings.Repeat("a", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Error("Prepare() should reject passwords over 72 bytes")
	}
}

func TestBcrypt_Verify(t *testing.T) {
	pc := newTestBcrypt()
	hash, _ := pc.Prepare("correct-horse")

	if err := pc.Verify(hash, "correct-horse"); err != nil {
		t.Errorf("Verify() correct password: error = %v", err)
	}
	if err := pc.Verify(hash, "wrong-horse"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify() wrong password: error = %v, want ErrPasswordMismatch", err)
	}
}

func TestBcrypt_VerifyPlaintextRecordIsMismatch(t *testing.T) {
	// A record written before switching modes holds the raw password.
	if err := newTestBcrypt().Verify("hunter2", "hunter2"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify() on non-hash: error = %v, want ErrPasswordMismatch", err)
	}
}
