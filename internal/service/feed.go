package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

// EmptyFeedMessage is returned alongside an empty feed when the caller
// follows nobody.
const EmptyFeedMessage = "Follow some users to see their posts in your feed"

// FeedService owns the social graph (follow/unfollow) and builds feeds.
//
// FAN-OUT ON READ:
// Nothing is precomputed. A feed is one query for "posts whose author is in
// my follow set", run when the feed is requested. Following someone makes
// their existing posts show up immediately; unfollowing hides them.
type FeedService struct {
	users    repository.UserRepository
	contents repository.ContentRepository
	logger   *slog.Logger
}

func NewFeedService(users repository.UserRepository, contents repository.ContentRepository, logger *slog.Logger) *FeedService {
	return &FeedService{users: users, contents: contents, logger: logger}
}

// Follow adds target to the actor's follow set.
//
// Following someone already followed succeeds with modified=false.
func (s *FeedService) Follow(ctx context.Context, actor *auth.Identity, target string) (bool, error) {
	if actor == nil {
		return false, apperror.Unauthorized(MsgLoginToFollow)
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return false, apperror.ValidationFailed("usernameToFollow", "Username to follow is required")
	}

	followed, err := s.users.GetByUsername(ctx, target)
	if errors.Is(err, apperror.ErrNotFound) {
		return false, apperror.NotFoundMessage("User not found")
	}
	if err != nil {
		return false, fmt.Errorf("service/feed: looking up %q: %w", target, err)
	}

	if followed.ID == actor.UserID {
		return false, apperror.InvalidOperation("Cannot follow yourself")
	}

	modified, err := s.users.AddFollow(ctx, actor.UserID, target)
	if err != nil {
		return false, fmt.Errorf("service/feed: following %q: %w", target, err)
	}

	s.logger.Info("follow",
		slog.String("username", actor.Username),
		slog.String("target", target),
		slog.Bool("modified", modified),
	)
	return modified, nil
}

// Unfollow removes target from the actor's follow set. Removing someone who
// isn't followed, or who doesn't exist, succeeds with modified=false.
func (s *FeedService) Unfollow(ctx context.Context, actor *auth.Identity, target string) (bool, error) {
	if actor == nil {
		return false, apperror.Unauthorized(MsgLoginToUnfollow)
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return false, apperror.ValidationFailed("usernameToUnfollow", "Username to unfollow is required")
	}

	modified, err := s.users.RemoveFollow(ctx, actor.UserID, target)
	if err != nil {
		return false, fmt.Errorf("service/feed: unfollowing %q: %w", target, err)
	}

	s.logger.Info("unfollow",
		slog.String("username", actor.Username),
		slog.String("target", target),
		slog.Bool("modified", modified),
	)
	return modified, nil
}

// Feed is the result of Feed. Message is set only when the feed is empty
// because the caller follows nobody.
type Feed struct {
	Items   []model.Content
	Message string
}

// Feed returns every post by someone the actor follows, newest first.
//
// ISOLATION:
// A post by someone the actor doesn't follow must never appear. The store
// query already filters by author, but the result is filtered again here
// against the follow set so a backend bug can't leak posts into a feed.
func (s *FeedService) Feed(ctx context.Context, actor *auth.Identity) (*Feed, error) {
	if actor == nil {
		return nil, apperror.Unauthorized(MsgLoginToViewFeed)
	}

	// The follow set is re-read on every request; the session only
	// carries who the actor is.
	user, err := s.users.GetByID(ctx, actor.UserID)
	if errors.Is(err, apperror.ErrNotFound) {
		return emptyFeed(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("service/feed: loading follow set: %w", err)
	}
	if len(user.Follows) == 0 {
		return emptyFeed(), nil
	}

	items, err := s.contents.ListByAuthors(ctx, user.Follows)
	if err != nil {
		return nil, fmt.Errorf("service/feed: loading posts: %w", err)
	}

	follows := make(map[string]struct{}, len(user.Follows))
	for _, name := range user.Follows {
		follows[name] = struct{}{}
	}

	feed := make([]model.Content, 0, len(items))
	for _, item := range items {
		if _, ok := follows[item.Username]; ok {
			feed = append(feed, item)
		}
	}
	if dropped := len(items) - len(feed); dropped > 0 {
		s.logger.Error("feed query returned posts by unfollowed authors",
			slog.String("userID", actor.UserID),
			slog.Int("dropped", dropped),
		)
	}

	sortNewestFirst(feed)
	return &Feed{Items: feed}, nil
}

func emptyFeed() *Feed {
	return &Feed{Items: []model.Content{}, Message: EmptyFeedMessage}
}

// sortNewestFirst orders by CreatedAt descending, then ID descending so equal
// timestamps still give a stable order.
func sortNewestFirst(items []model.Content) {
	slices.SortStableFunc(items, func(a, b model.Content) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
