// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. It is the
// default backend; repository/mongodb is the document-store alternative.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// LAYOUT:
// One *DB owns the connection pool. It hands out two repositories that share it:
//
//	db.Users()    → *UserDB     (repository.UserRepository)
//	db.Contents() → *ContentDB  (repository.ContentRepository)
//
// Both need methods called Create/GetByID/Delete, so they can't live on the same type.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	// The driver's init() registers a database/sql driver named "sqlite".
	// It is imported by name (not blank) because fold() is registered on it.
	sqlitedriver "modernc.org/sqlite"
)

// WHY fold() AND NOT lower()?
// SQLite's built-in lower() only folds ASCII letters, so "ÜBER" would never
// match "über". fold() runs strings.ToLower over the whole string, which is
// what search means by case-insensitive. It is registered on the driver, so
// every connection opened afterwards has it.
func init() {
	sqlitedriver.MustRegisterDeterministicScalarFunction("fold", 1, fold)
}

func fold(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// migrations holds the goose SQL files. go:embed compiles them into the
// binary, so the server never depends on the working directory.
//
//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a sql.DB connection pool and provides the repositories.
type DB struct {
	conn     *sql.DB
	users    *UserDB
	contents *ContentDB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/social.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// ONE CONNECTION:
	// SQLite serialises writers anyway, and every new connection to ":memory:"
	// would see its own empty database. Pinning the pool to one connection
	// keeps both cases correct. The price: never run a query while a *sql.Rows
	// from another query is still open.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. user_follows cascades on user delete.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	if err := migrate(context.Background(), conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return newDB(conn), nil
}

// newDB wires the repositories around an already-open pool.
// Tests use it directly with a sqlmock connection.
func newDB(conn *sql.DB) *DB {
	return &DB{
		conn:     conn,
		users:    &UserDB{conn: conn},
		contents: &ContentDB{conn: conn},
	}
}

// Users returns the user repository.
func (db *DB) Users() *UserDB { return db.users }

// Contents returns the content repository.
func (db *DB) Contents() *ContentDB { return db.contents }

// Conn exposes the pool for components that keep their own tables in the same
// file (session.SQLStore).
func (db *DB) Conn() *sql.DB { return db.conn }

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies the embedded goose migrations.
//
// goose keeps its own goose_db_version table, so running this on every start
// only applies what is new.
func migrate(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, conn, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// TIMESTAMPS:
// Times are stored as INTEGER unix nanoseconds. Text timestamps with variable
// fractional digits don't sort correctly, and the feed depends on ORDER BY created_at.

func toUnix(t time.Time) int64 { return t.UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

// limitOffset converts ListOptions into SQLite's LIMIT/OFFSET values.
// LIMIT -1 means "no limit" in SQLite.
func limitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
