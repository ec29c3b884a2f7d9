// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the store
//
// Handlers should only know about HTTP (status codes, headers, JSON).
// Services should only know about business rules (validation, permissions).
// Neither should know about SQL or BSON.
//
// WHO IS CALLING?
// Every operation that depends on the caller takes an actor *auth.Identity as
// an explicit argument; nil means anonymous. Services check it themselves and
// return apperror.Unauthorized, so the rule "mutations need a logged-in user"
// lives next to the mutation, not in router configuration.
//
// DEPENDENCY INJECTION:
// Services take repository interfaces (not *sqlite.DB or *mongodb.Store), so
// tests pass in-memory fakes and the server picks the backend at startup.
package service

import (
	"strings"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/repository"
)

// Unauthorized messages for operations an anonymous caller may not perform.
// Handlers that read a body check the session with the same message first, so
// an anonymous request is a 401 whatever it sent.
const (
	MsgLoginToPost     = "Must be logged in to post content"
	MsgLoginToDelete   = "Must be logged in to delete content"
	MsgLoginToFollow   = "Must be logged in to follow users"
	MsgLoginToUnfollow = "Must be logged in to unfollow users"
	MsgLoginToViewFeed = "Must be logged in to view feed"
)

// MaxListLimit caps the page size a caller can ask for.
// No limit at all means "everything", matching the unpaginated listings.
const MaxListLimit = 100

// normalizeListOptions clamps pagination to sane values.
func normalizeListOptions(opts repository.ListOptions) repository.ListOptions {
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	return opts
}

// searchQuery trims q and rejects it when nothing is left. An empty search
// is a caller error, not "match everything".
func searchQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", apperror.ValidationFailed("q", "Search query must not be empty")
	}
	return q, nil
}

// blank reports whether a required field is missing.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
