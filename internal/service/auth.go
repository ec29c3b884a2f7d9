package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
	"github.com/sakif/social-network/internal/session"
)

// AuthService handles registration, login and logout.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (store)
//	                                 ↘ session.Store (session records)
//	                                 ↘ auth.PasswordChecker
//
// It never touches cookies: Login returns the session and the handler asks
// the auth.Gate to issue the cookie for it.
type AuthService struct {
	users     repository.UserRepository
	sessions  session.Store
	passwords auth.PasswordChecker
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions session.Store,
	passwords auth.PasswordChecker,
	ttl time.Duration,
	logger *slog.Logger,
) *AuthService {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterInput is what a new account needs. FullName is optional.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// Register creates an account.
//
// UNIQUENESS:
// Username and email are checked with one lookup before the insert. Two
// concurrent registrations with the same email can both pass the check; the
// store has no unique index to stop the second insert.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	// Follow trims the name it is given, so a stored name must not carry
	// spaces either or nobody could follow it.
	in.Username = strings.TrimSpace(in.Username)
	if blank(in.Username) || blank(in.Email) || blank(in.Password) {
		return nil, apperror.ValidationFailed("", "Username, email, and password are required")
	}

	existing, err := s.users.FindByEmailOrUsername(ctx, in.Email, in.Username)
	switch {
	case err == nil:
		if existing.Email == in.Email {
			return nil, apperror.Duplicate("email", "Email already registered")
		}
		return nil, apperror.Duplicate("username", "Username already taken")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking for existing user: %w", err)
	}

	stored, err := s.passwords.Prepare(in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperror.ValidationFailed("password", err.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: preparing password: %w", err)
	}

	fullName := in.FullName
	if blank(fullName) {
		fullName = in.Username
	}

	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Password: stored,
		FullName: fullName,
		Follows:  []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// LoginResult bundles the user and the new session so the handler can set
// the cookie and respond in one step.
type LoginResult struct {
	User    *model.User
	Session session.Session
}

// Login checks credentials and opens a new session.
//
// Unknown email and wrong password produce the same error, so the response
// never tells a caller which one they got wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if blank(email) || blank(password) {
		return nil, apperror.ValidationFailed("", "Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		s.logger.Info("login failed", slog.String("reason", "unknown email"))
		return nil, apperror.InvalidCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.Password, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed",
				slog.String("reason", "wrong password"),
				slog.String("userID", user.ID),
			)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	sess, err := session.New(user.ID, user.Username, s.ttl, s.now())
	if err != nil {
		return nil, fmt.Errorf("service/auth: building session: %w", err)
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("service/auth: storing session: %w", err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return &LoginResult{User: user, Session: sess}, nil
}

// Status describes the caller's login state. It is never an error.
type Status struct {
	LoggedIn bool
	UserID   string
	Username string
}

func (s *AuthService) Status(actor *auth.Identity) Status {
	if actor == nil {
		return Status{}
	}
	return Status{LoggedIn: true, UserID: actor.UserID, Username: actor.Username}
}

// Logout deletes the session record. An empty or unknown id is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("service/auth: deleting session: %w", err)
	}
	return nil
}
