package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

// UserService reads and deletes user accounts. Registration lives in
// AuthService.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// List returns users in registration order.
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	users, err := s.users.List(ctx, normalizeListOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("service/user: listing: %w", err)
	}
	return users, nil
}

// Search matches q against username and full name, case-insensitively.
func (s *UserService) Search(ctx context.Context, q string, opts repository.ListOptions) ([]model.User, error) {
	q, err := searchQuery(q)
	if err != nil {
		return nil, err
	}
	users, err := s.users.Search(ctx, q, normalizeListOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("service/user: searching: %w", err)
	}
	return users, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFoundMessage("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching %s: %w", id, err)
	}
	return user, nil
}

// Delete removes the account. It is not tied to the caller's session, and it
// leaves the user's posts and other users' follow entries naming them alone.
func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.NotFoundMessage("User not found")
	}
	if err != nil {
		return fmt.Errorf("service/user: deleting %s: %w", id, err)
	}

	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}
