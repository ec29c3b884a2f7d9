package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore keeps sessions in the "sessions" table of the SQLite database.
// The table is created by the sqlite repository's migrations.
type SQLStore struct {
	conn *sql.DB
	now  func() time.Time
}

func NewSQLStore(conn *sql.DB) *SQLStore {
	return &SQLStore{conn: conn, now: time.Now}
}

func (s *SQLStore) Create(ctx context.Context, sess Session) error {
	if err := validate(sess); err != nil {
		return err
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, username, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.Username,
		sess.CreatedAt.UnixNano(), sess.ExpiresAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("session: inserting: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	var createdAt, expiresAt int64

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, user_id, username, created_at, expires_at
		 FROM sessions WHERE id = ? AND expires_at > ?`,
		sessionID, s.now().UnixNano(),
	).Scan(&sess.ID, &sess.UserID, &sess.Username, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: loading: %w", err)
	}

	sess.CreatedAt = time.Unix(0, createdAt).UTC()
	sess.ExpiresAt = time.Unix(0, expiresAt).UTC()
	return &sess, nil
}

func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("session: deleting: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("session: sweeping: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("session: sweeping: %w", err)
	}
	return int(n), nil
}
