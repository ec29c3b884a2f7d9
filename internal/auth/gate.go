package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/social-network/internal/session"
)

// Gate turns session cookies into identities and back.
//
// FAIL CLOSED:
// Anything short of a verified cookie pointing at a live record resolves to
// anonymous, including store errors. A broken session store therefore logs
// everybody out instead of letting anybody in.
type Gate struct {
	signer *CookieSigner
	store  session.Store
	cookie session.CookieOptions
	logger *slog.Logger
	now    func() time.Time
}

func NewGate(signer *CookieSigner, store session.Store, cookie session.CookieOptions, logger *slog.Logger) *Gate {
	return &Gate{
		signer: signer,
		store:  store,
		cookie: cookie,
		logger: logger,
		now:    time.Now,
	}
}

// Issue signs the session id and sets it as the session cookie.
func (g *Gate) Issue(w http.ResponseWriter, s session.Session) error {
	value, err := g.signer.Sign(s.ID, s.ExpiresAt)
	if err != nil {
		return err
	}
	session.SetCookie(w, value, s.ExpiresAt, g.cookie)
	return nil
}

// Clear expires the session cookie on the client.
func (g *Gate) Clear(w http.ResponseWriter) {
	session.ClearCookie(w, g.cookie)
}

// SessionID returns the verified session id from the request cookie, or "".
func (g *Gate) SessionID(r *http.Request) string {
	value := session.ReadCookie(r)
	if value == "" {
		return ""
	}
	id, err := g.signer.Verify(value)
	if err != nil {
		g.logger.Debug("rejected session cookie", "error", err)
		return ""
	}
	return id
}

// Resolve returns the identity behind the request, or nil for anonymous.
func (g *Gate) Resolve(r *http.Request) *Identity {
	id := g.SessionID(r)
	if id == "" {
		return nil
	}
	return g.lookup(r.Context(), id)
}

func (g *Gate) lookup(ctx context.Context, sessionID string) *Identity {
	s, err := g.store.Get(ctx, sessionID)
	if err != nil {
		g.logger.Error("session store lookup failed", "error", err)
		return nil
	}
	if s == nil {
		return nil
	}
	if s.Expired(g.now()) {
		if err := g.store.Delete(ctx, sessionID); err != nil {
			g.logger.Warn("failed to delete expired session", "error", err)
		}
		return nil
	}
	return &Identity{UserID: s.UserID, Username: s.Username}
}
