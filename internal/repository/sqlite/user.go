package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores users and their follow sets.
//
// The follow set lives in its own table (user_follows) rather than in a
// column, so "add if absent" and "remove if present" are single statements.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, username, email, password, full_name, created_at`

// Create inserts a new user. ID is always generated here; CreatedAt is set
// when the caller left it zero.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Follows == nil {
		user.Follows = []string{}
	}

	tx, err := u.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning user insert: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password, full_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.Password,
		user.FullName,
		toUnix(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	for _, name := range user.Follows {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_follows (user_id, username, created_at) VALUES (?, ?, ?)`,
			user.ID, name, toUnix(user.CreatedAt),
		); err != nil {
			return fmt.Errorf("sqlite: inserting follows for user %s: %w", user.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing user insert: %w", err)
	}
	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := u.getOne(ctx, `id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

func (u *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := u.getOne(ctx, `username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFoundBy("user", "username", username)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by username %q: %w", username, err)
	}
	return user, nil
}

func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := u.getOne(ctx, `email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFoundBy("user", "email", email)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

func (u *UserDB) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	user, err := u.getOne(ctx, `email = ? OR username = ?`, email, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFoundBy("user", "username", username)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding user by email or username: %w", err)
	}
	return user, nil
}

// List returns users in registration order.
func (u *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := limitOffset(opts.Limit, opts.Offset)
	return u.queryMany(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY created_at, id
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
}

// Search matches query as a literal, case-insensitive substring of username
// or full name. instr() is used instead of LIKE so '%' and '_' in the query
// are not wildcards; fold() lowercases non-ASCII letters too.
func (u *UserDB) Search(ctx context.Context, query string, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := limitOffset(opts.Limit, opts.Offset)
	return u.queryMany(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE instr(fold(username), fold(?)) > 0
		    OR instr(fold(full_name), fold(?)) > 0
		 ORDER BY created_at, id
		 LIMIT ? OFFSET ?`,
		query, query, limit, offset,
	)
}

// Delete removes a user. Their own follow rows go with them (ON DELETE
// CASCADE); other users' follow entries naming them and their posts stay.
func (u *UserDB) Delete(ctx context.Context, id string) error {
	result, err := u.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// AddFollow inserts (userID, username) unless it is already present.
//
// INSERT ... SELECT ... WHERE EXISTS only writes when the follower row still
// exists, so a session outliving its user reports modified=false instead of
// tripping the foreign key.
func (u *UserDB) AddFollow(ctx context.Context, userID, username string) (bool, error) {
	result, err := u.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_follows (user_id, username, created_at)
		 SELECT ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM users WHERE id = ?)`,
		userID, username, toUnix(time.Now()), userID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: adding follow %s -> %q: %w", userID, username, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n > 0, nil
}

func (u *UserDB) RemoveFollow(ctx context.Context, userID, username string) (bool, error) {
	result, err := u.conn.ExecContext(ctx,
		`DELETE FROM user_follows WHERE user_id = ? AND username = ?`,
		userID, username,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing follow %s -> %q: %w", userID, username, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n > 0, nil
}

// getOne runs a single-user SELECT with the given WHERE clause and attaches
// the follow set. It returns sql.ErrNoRows unwrapped so callers can pick the
// right NotFound message.
func (u *UserDB) getOne(ctx context.Context, where string, args ...any) (*model.User, error) {
	var user model.User
	var createdAt int64

	err := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+` ORDER BY created_at, id LIMIT 1`,
		args...,
	).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.FullName,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = fromUnix(createdAt)

	follows, err := u.loadFollows(ctx, []string{user.ID})
	if err != nil {
		return nil, err
	}
	user.Follows = follows[user.ID]
	if user.Follows == nil {
		user.Follows = []string{}
	}
	return &user, nil
}

// queryMany scans a list of users, closes the rows, then loads all their
// follow sets with one extra query.
func (u *UserDB) queryMany(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := u.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}

	users := []model.User{}
	for rows.Next() {
		var user model.User
		var createdAt int64
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.Password,
			&user.FullName, &createdAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		user.CreatedAt = fromUnix(createdAt)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	// Close BEFORE the next query: the pool has a single connection.
	rows.Close()

	if len(users) == 0 {
		return users, nil
	}

	ids := make([]string, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	follows, err := u.loadFollows(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Follows = follows[users[i].ID]
		if users[i].Follows == nil {
			users[i].Follows = []string{}
		}
	}
	return users, nil
}

// loadFollows returns follow sets keyed by user ID, each in the order the
// follows were added. rowid breaks ties between follows added in the same
// nanosecond.
func (u *UserDB) loadFollows(ctx context.Context, userIDs []string) (map[string][]string, error) {
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := u.conn.QueryContext(ctx,
		`SELECT user_id, username FROM user_follows
		 WHERE user_id IN (`+placeholders(len(userIDs))+`)
		 ORDER BY created_at, rowid`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading follows: %w", err)
	}
	defer rows.Close()

	follows := make(map[string][]string, len(userIDs))
	for rows.Next() {
		var userID, username string
		if err := rows.Scan(&userID, &username); err != nil {
			return nil, fmt.Errorf("sqlite: scanning follow row: %w", err)
		}
		follows[userID] = append(follows[userID], username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating follows: %w", err)
	}
	return follows, nil
}
