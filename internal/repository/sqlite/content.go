package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

var _ repository.ContentRepository = (*ContentDB)(nil)

// ContentDB stores posts.
type ContentDB struct {
	conn *sql.DB
}

const contentColumns = `id, user_id, username, title, body, created_at`

// Create inserts a new post. ID is generated here; CreatedAt is kept when the
// caller already set it.
//
// xid ids are 20 URL-safe chars and sort by creation time, which makes them a
// good tie-breaker when two posts share a timestamp.
func (c *ContentDB) Create(ctx context.Context, content *model.Content) error {
	content.ID = xid.New().String()
	if content.CreatedAt.IsZero() {
		content.CreatedAt = time.Now().UTC()
	}

	_, err := c.conn.ExecContext(ctx,
		`INSERT INTO content (id, user_id, username, title, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		content.ID,
		content.UserID,
		content.Username,
		content.Title,
		content.Body,
		toUnix(content.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating content: %w", err)
	}
	return nil
}

// GetByID retrieves a single post.
// Returns apperror.ErrNotFound if it doesn't exist.
func (c *ContentDB) GetByID(ctx context.Context, id string) (*model.Content, error) {
	var content model.Content
	var createdAt int64

	err := c.conn.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content WHERE id = ?`,
		id,
	).Scan(
		&content.ID,
		&content.UserID,
		&content.Username,
		&content.Title,
		&content.Body,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("content", id)
		}
		return nil, fmt.Errorf("sqlite: getting content %s: %w", id, err)
	}
	content.CreatedAt = fromUnix(createdAt)

	return &content, nil
}

// List returns posts newest first.
func (c *ContentDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Content, error) {
	limit, offset := limitOffset(opts.Limit, opts.Offset)
	return c.queryMany(ctx,
		`SELECT `+contentColumns+` FROM content
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
}

// Search matches query as a literal, case-insensitive substring of the title or body.
func (c *ContentDB) Search(ctx context.Context, query string, opts repository.ListOptions) ([]model.Content, error) {
	limit, offset := limitOffset(opts.Limit, opts.Offset)
	return c.queryMany(ctx,
		`SELECT `+contentColumns+` FROM content
		 WHERE instr(fold(title), fold(?)) > 0
		    OR instr(fold(body), fold(?)) > 0
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		query, query, limit, offset,
	)
}

// ListByAuthors is the feed query: every post whose author username is in
// usernames, newest first.
func (c *ContentDB) ListByAuthors(ctx context.Context, usernames []string) ([]model.Content, error) {
	if len(usernames) == 0 {
		return []model.Content{}, nil
	}

	args := make([]any, len(usernames))
	for i, name := range usernames {
		args[i] = name
	}

	return c.queryMany(ctx,
		`SELECT `+contentColumns+` FROM content
		 WHERE username IN (`+placeholders(len(usernames))+`)
		 ORDER BY created_at DESC, id DESC`,
		args...,
	)
}

// Delete removes a post by its ID.
func (c *ContentDB) Delete(ctx context.Context, id string) error {
	result, err := c.conn.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting content %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("content", id)
	}
	return nil
}

func (c *ContentDB) queryMany(ctx context.Context, query string, args ...any) ([]model.Content, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing content: %w", err)
	}
	// CRITICAL: always close rows when done!
	defer rows.Close()

	items := []model.Content{}
	for rows.Next() {
		var item model.Content
		var createdAt int64
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Username,
			&item.Title, &item.Body, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning content row: %w", err)
		}
		item.CreatedAt = fromUnix(createdAt)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating content: %w", err)
	}
	return items, nil
}
