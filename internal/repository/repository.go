// Package repository declares the storage contracts the service layer depends on.
//
// Two backends implement them: repository/sqlite (embedded, the default) and
// repository/mongodb (document store). Services only ever see these interfaces.
package repository

import (
	"context"

	"github.com/sakif/social-network/internal/model"
)

// ListOptions is optional pagination. A Limit <= 0 means "no limit".
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// Create inserts the user and fills in ID and CreatedAt.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByEmailOrUsername returns any user holding either value, or
	// apperror.ErrNotFound when neither is taken.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	// Search matches query as a case-insensitive substring of username or full name.
	Search(ctx context.Context, query string, opts ListOptions) ([]model.User, error)
	Delete(ctx context.Context, id string) error

	// AddFollow adds username to the follow set of userID with set semantics.
	// modified is false when the entry was already there (or userID is gone).
	AddFollow(ctx context.Context, userID, username string) (modified bool, err error)
	// RemoveFollow removes username from the follow set. Absence is not an error.
	RemoveFollow(ctx context.Context, userID, username string) (modified bool, err error)
}

type ContentRepository interface {
	// Create inserts the content and fills in ID (and CreatedAt when zero).
	Create(ctx context.Context, content *model.Content) error
	GetByID(ctx context.Context, id string) (*model.Content, error)
	// List returns content newest first.
	List(ctx context.Context, opts ListOptions) ([]model.Content, error)
	// Search matches query as a case-insensitive substring of title or body, newest first.
	Search(ctx context.Context, query string, opts ListOptions) ([]model.Content, error)
	// ListByAuthors returns every item whose username is in usernames, newest first.
	ListByAuthors(ctx context.Context, usernames []string) ([]model.Content, error)
	Delete(ctx context.Context, id string) error
}
