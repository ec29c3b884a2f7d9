package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned by PasswordChecker.Verify when the password
// is wrong. Callers turn it into apperror.InvalidCredentials.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// ErrPasswordTooLong is returned by BcryptPasswords.Prepare for passwords
// bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("Password must be 72 bytes or fewer")

// PasswordChecker decides what gets stored for a password and how a login
// attempt is compared against it.
type PasswordChecker interface {
	// Prepare returns the value to store for plaintext.
	Prepare(plaintext string) (string, error)
	// Verify returns nil on a match and ErrPasswordMismatch otherwise.
	Verify(stored, plaintext string) error
}

// NewPasswordChecker picks a checker by mode: "plaintext" (default) or "bcrypt".
func NewPasswordChecker(mode string) (PasswordChecker, error) {
	switch mode {
	case "", "plaintext":
		return PlaintextPasswords{}, nil
	case "bcrypt":
		return NewBcryptPasswords(), nil
	default:
		return nil, fmt.Errorf("auth: unknown password mode %q", mode)
	}
}

// PlaintextPasswords stores passwords as given and compares them for equality.
//
// This is the historical behaviour of the service and stays the default so
// existing records keep working. It is a known weakness: anyone who can read
// the users table can read every password. Switch to PASSWORD_MODE=bcrypt for
// new deployments.
type PlaintextPasswords struct{}

func (PlaintextPasswords) Prepare(plaintext string) (string, error) {
	return plaintext, nil
}

func (PlaintextPasswords) Verify(stored, plaintext string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(plaintext)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// WHY BCRYPT?
// bcrypt is a password hashing function specifically designed to be slow.
// That slowness is a security feature: it makes brute-force attacks expensive.
//
// bcrypt automatically:
//   - Generates a random salt (so two users with the same password get different hashes)
//   - Embeds the salt in the output hash (no separate salt column needed)
//   - Controls the work factor via "cost" (higher = slower = harder to crack)
//
// Hash format:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 = 4096 iterations)
//	 version

// defaultCost is the bcrypt work factor. ~250ms on a modern server.
const defaultCost = 12

// BcryptPasswords hashes on Prepare and uses bcrypt's comparison on Verify.
//
// It's a struct so that the cost can be injected in tests.
type BcryptPasswords struct {
	cost int
}

func NewBcryptPasswords() *BcryptPasswords {
	return &BcryptPasswords{cost: defaultCost}
}

// NewBcryptPasswordsForTest uses the given (low) cost. Do NOT use in production.
func NewBcryptPasswordsForTest(cost int) *BcryptPasswords {
	return &BcryptPasswords{cost: cost}
}

// Prepare rejects passwords over 72 bytes, which bcrypt would silently truncate.
func (p *BcryptPasswords) Prepare(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify compares in constant time. A stored value that isn't a bcrypt hash
// (a leftover plaintext record) is reported as a mismatch: bcrypt only fails
// on malformed hashes, never for operational reasons.
func (p *BcryptPasswords) Verify(stored, plaintext string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
