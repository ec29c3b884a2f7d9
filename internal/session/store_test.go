package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/social-network/internal/repository/sqlite"
)

// storeFactories builds every backend so the contract tests run against each.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			db, err := sqlite.New(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return NewSQLStore(db.Conn())
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return NewRedisStore(client)
		},
	}
}

func TestStoreContract(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			sess, err := New("u1", "alice", time.Hour, time.Now())
			require.NoError(t, err)
			require.NoError(t, store.Create(ctx, sess))

			got, err := store.Get(ctx, sess.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "u1", got.UserID)
			assert.Equal(t, "alice", got.Username)
			assert.True(t, got.ExpiresAt.Equal(sess.ExpiresAt))

			missing, err := store.Get(ctx, "nope")
			require.NoError(t, err)
			assert.Nil(t, missing)

			require.NoError(t, store.Delete(ctx, sess.ID))
			gone, err := store.Get(ctx, sess.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)

			// Deleting twice is fine.
			assert.NoError(t, store.Delete(ctx, sess.ID))
		})
	}
}

func TestStoreRejectsIncompleteSession(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			err := newStore(t).Create(context.Background(), Session{ID: "x"})
			assert.Error(t, err)
		})
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	s, err := New("u1", "alice", DefaultTTL, now)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)

	_, err = New("", "alice", DefaultTTL, now)
	assert.Error(t, err)

	_, err = New("u1", "alice", 0, now)
	assert.Error(t, err)
}

func TestExpired(t *testing.T) {
	exp := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: exp}

	assert.False(t, s.Expired(exp.Add(-time.Nanosecond)))
	assert.True(t, s.Expired(exp))
	assert.True(t, s.Expired(exp.Add(time.Second)))
}

func TestGenerateID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		assert.Len(t, id, 43) // 32 bytes, unpadded base64
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

// =========================================================================
// EXPIRY
// =========================================================================

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	sess, err := New("u1", "alice", time.Hour, clock)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, sess))

	clock = clock.Add(59 * time.Minute)
	got, _ := store.Get(ctx, sess.ID)
	assert.NotNil(t, got, "session should still be live")

	clock = clock.Add(time.Minute)
	got, _ = store.Get(ctx, sess.ID)
	assert.Nil(t, got, "session should have expired at exactly one hour")
	assert.Equal(t, 0, store.Len(), "expired record should be dropped on read")
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	old, _ := New("u1", "alice", time.Minute, now.Add(-2*time.Minute))
	fresh, _ := New("u2", "bob", time.Hour, now)
	require.NoError(t, store.Create(ctx, old))
	require.NoError(t, store.Create(ctx, fresh))

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())
}

func TestSQLStore_Expiry(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewSQLStore(db.Conn())
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	sess, err := New("u1", "alice", time.Hour, clock)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, sess))

	clock = clock.Add(time.Hour)
	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := store.DeleteExpired(ctx, clock)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStore(client)

	sess, err := New("u1", "alice", time.Hour, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, sess))

	ttl := mr.TTL("session:" + sess.ID)
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl = %v", ttl)

	mr.FastForward(time.Hour)
	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, store.Ping(ctx))
}

func TestRedisStore_RejectsPastExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sess, _ := New("u1", "alice", time.Minute, time.Now().Add(-time.Hour))
	err := NewRedisStore(client).Create(context.Background(), sess)
	assert.Error(t, err)
}

func TestRedisStore_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStore(client)
	mr.Close()

	_, err := store.Get(context.Background(), "anything")
	assert.Error(t, err)
}

// =========================================================================
// COOKIES
// =========================================================================

func TestSetAndReadCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	exp := time.Now().Add(time.Hour)
	SetCookie(rec, "signed-value", exp, CookieOptions{Secure: true})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "signed-value", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	assert.Equal(t, "signed-value", ReadCookie(req))

	assert.Equal(t, "", ReadCookie(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookie(rec, CookieOptions{})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}
