package auth

import (
	"context"
	"net/http"
)

// Identity is an authenticated caller. A nil *Identity means anonymous.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// Only THIS package can create a key of type contextKey, so no other package
// can read or shadow the identity stored under it.
type contextKey string

const identityKey contextKey = "identity"

// Identify resolves every request through the gate and stores the result in
// the request context. It never blocks: whether a route needs a logged-in
// caller is decided by the service it calls, so the rejection message can be
// specific ("Must be logged in to post content").
func Identify(gate *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := gate.Resolve(r); id != nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller's identity, or nil when anonymous.
//
// Usage in handlers:
//
//	actor := auth.IdentityFromContext(r.Context())
//	item, err := h.contents.Create(r.Context(), actor, req.Title, req.Body)
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}
