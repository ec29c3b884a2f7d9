// Package auth resolves requests to identities.
//
// SESSION FLOW OVERVIEW:
// 1. POST /login checks email + password and creates a server-side session record
// 2. The session ID is signed and sent back in an HttpOnly cookie
// 3. On every request the Identify middleware verifies the cookie, loads the
//    record, and puts the Identity (or nothing) in the request context
// 4. Services receive the identity explicitly and refuse anonymous callers
// 5. DELETE /login deletes the record and clears the cookie
//
// WHY SIGN THE COOKIE IF THE SESSION IS SERVER-SIDE?
// The record is the source of truth; logout and expiry work by deleting it.
// Signing means a forged or truncated cookie is rejected without touching the
// store at all, and the exp claim lets us drop stale cookies early.
//
// The signature is a JWT (HS256):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: {"sub":"<session id>","exp":<session expiry>,"iss":"social-network"}
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "social-network"

// CookieSigner signs and verifies session cookie values.
//
// It holds the HMAC secret key used for both operations.
type CookieSigner struct {
	secret []byte
	now    func() time.Time
}

// NewCookieSigner creates a CookieSigner with the given secret.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewCookieSigner(secret string) (*CookieSigner, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &CookieSigner{secret: []byte(secret), now: time.Now}, nil
}

// Sign wraps sessionID in a signed token that stops verifying at expiresAt.
func (s *CookieSigner) Sign(sessionID string, expiresAt time.Time) (string, error) {
	if sessionID == "" {
		return "", errors.New("auth: empty session id")
	}

	c := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing cookie: %w", err)
	}
	return signed, nil
}

// Verify parses a cookie value and returns the session ID inside it.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired
//   - Issuer matches
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
func (s *CookieSigner) Verify(value string) (string, error) {
	token, err := jwt.ParseWithClaims(
		value,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("auth: session cookie expired")
		}
		return "", fmt.Errorf("auth: invalid session cookie: %w", err)
	}

	c, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid session cookie claims")
	}
	if c.Subject == "" {
		return "", errors.New("auth: session cookie has no subject")
	}
	return c.Subject, nil
}
