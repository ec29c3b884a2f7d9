package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

// ContentService handles posts.
type ContentService struct {
	contents repository.ContentRepository
	logger   *slog.Logger
}

func NewContentService(contents repository.ContentRepository, logger *slog.Logger) *ContentService {
	return &ContentService{contents: contents, logger: logger}
}

// Create posts under the actor's identity. The username is copied onto the
// post and never updated afterwards.
func (s *ContentService) Create(ctx context.Context, actor *auth.Identity, title, body string) (*model.Content, error) {
	if actor == nil {
		return nil, apperror.Unauthorized(MsgLoginToPost)
	}
	if blank(title) || blank(body) {
		return nil, apperror.ValidationFailed("", "Title and body are required")
	}

	item := &model.Content{
		UserID:   actor.UserID,
		Username: actor.Username,
		Title:    title,
		Body:     body,
	}
	if err := s.contents.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("service/content: creating: %w", err)
	}

	s.logger.Info("content created",
		slog.String("contentID", item.ID),
		slog.String("username", item.Username),
	)
	return item, nil
}

// List returns every post, newest first.
func (s *ContentService) List(ctx context.Context, opts repository.ListOptions) ([]model.Content, error) {
	items, err := s.contents.List(ctx, normalizeListOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("service/content: listing: %w", err)
	}
	return items, nil
}

// Search matches q against title and body, case-insensitively.
func (s *ContentService) Search(ctx context.Context, q string, opts repository.ListOptions) ([]model.Content, error) {
	q, err := searchQuery(q)
	if err != nil {
		return nil, err
	}
	items, err := s.contents.Search(ctx, q, normalizeListOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("service/content: searching: %w", err)
	}
	return items, nil
}

func (s *ContentService) GetByID(ctx context.Context, id string) (*model.Content, error) {
	item, err := s.contents.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFoundMessage("Content not found")
	}
	if err != nil {
		return nil, fmt.Errorf("service/content: fetching %s: %w", id, err)
	}
	return item, nil
}

// Delete removes a post. Only its author may do so.
//
// OWNERSHIP:
// The check compares user IDs, not usernames: the username on a post is a
// display copy, the user ID is what the post belongs to.
func (s *ContentService) Delete(ctx context.Context, actor *auth.Identity, id string) error {
	if actor == nil {
		return apperror.Unauthorized(MsgLoginToDelete)
	}

	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item.UserID != actor.UserID {
		s.logger.Warn("content delete refused",
			slog.String("contentID", id),
			slog.String("ownerID", item.UserID),
			slog.String("actorID", actor.UserID),
		)
		return apperror.Forbidden("You can only delete your own content")
	}

	err = s.contents.Delete(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.NotFoundMessage("Content not found")
	}
	if err != nil {
		return fmt.Errorf("service/content: deleting %s: %w", id, err)
	}

	s.logger.Info("content deleted",
		slog.String("contentID", id),
		slog.String("username", actor.Username),
	)
	return nil
}
