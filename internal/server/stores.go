package server

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/social-network/internal/config"
	"github.com/sakif/social-network/internal/repository"
	"github.com/sakif/social-network/internal/repository/mongodb"
	sqliteRepo "github.com/sakif/social-network/internal/repository/sqlite"
	"github.com/sakif/social-network/internal/session"
)

// store is whichever backend the config picked, seen through the repository
// interfaces. sqlite is set only for the SQLite driver, so the SQL session
// store can share its file.
type store struct {
	users    repository.UserRepository
	contents repository.ContentRepository
	ping     func(ctx context.Context) error
	close    func() error
	sqlite   *sqliteRepo.DB
}

func (s *store) Ping(ctx context.Context) error { return s.ping(ctx) }

// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo so it isn't confused with the
// modernc.org/sqlite driver it wraps.
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return &store{
			users:    db.Users(),
			contents: db.Contents(),
			ping:     db.Ping,
			close:    db.Close,
			sqlite:   db,
		}, nil

	case config.DriverMongo:
		m, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		return &store{
			users:    m.Users(),
			contents: m.Contents(),
			ping:     m.Ping,
			close:    m.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// openSessions builds the configured session store. The returned close func
// is nil when the store holds nothing to release.
func openSessions(ctx context.Context, cfg *config.Config, st *store) (session.Store, func() error, error) {
	switch cfg.SessionStore {
	case config.SessionMemory:
		return session.NewMemoryStore(), nil, nil

	case config.SessionSQLite:
		// Same file as the data when the data is in SQLite too; otherwise a
		// file of its own at DBPath.
		if st.sqlite != nil {
			return session.NewSQLStore(st.sqlite.Conn()), nil, nil
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening session database: %w", err)
		}
		return session.NewSQLStore(db.Conn()), db.Close, nil

	case config.SessionRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		rs := session.NewRedisStore(client)
		if err := rs.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		return rs, client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
}
