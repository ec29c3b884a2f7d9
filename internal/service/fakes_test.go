package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces.
// They are deliberately dumb: no indexes, linear scans, copies in and out so
// a test can't mutate stored state through a returned pointer.
//
// failWith, when set, makes every method return that error, to simulate the
// store being down.

var errStoreDown = errors.New("store down")

type fakeUserRepo struct {
	users    []*model.User
	nextID   int
	failWith error
}

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{} }

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	stored := *u
	stored.Follows = slices.Clone(u.Follows)
	f.users = append(f.users, &stored)
	return nil
}

func (f *fakeUserRepo) find(match func(*model.User) bool) (*model.User, bool) {
	for _, u := range f.users {
		if match(u) {
			c := *u
			c.Follows = slices.Clone(u.Follows)
			if c.Follows == nil {
				c.Follows = []string{}
			}
			return &c, true
		}
	}
	return nil, false
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if u, ok := f.find(func(u *model.User) bool { return u.ID == id }); ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if u, ok := f.find(func(u *model.User) bool { return u.Username == username }); ok {
		return u, nil
	}
	return nil, apperror.NotFoundBy("user", "username", username)
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if u, ok := f.find(func(u *model.User) bool { return u.Email == email }); ok {
		return u, nil
	}
	return nil, apperror.NotFoundBy("user", "email", email)
}

func (f *fakeUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if u, ok := f.find(func(u *model.User) bool { return u.Email == email || u.Username == username }); ok {
		return u, nil
	}
	return nil, apperror.NotFoundBy("user", "username", username)
}

func (f *fakeUserRepo) List(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	return f.filter(func(*model.User) bool { return true }, opts)
}

func (f *fakeUserRepo) Search(_ context.Context, q string, opts repository.ListOptions) ([]model.User, error) {
	q = strings.ToLower(q)
	return f.filter(func(u *model.User) bool {
		return strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.FullName), q)
	}, opts)
}

func (f *fakeUserRepo) filter(match func(*model.User) bool, opts repository.ListOptions) ([]model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.User{}
	for _, u := range f.users {
		if match(u) {
			out = append(out, *u)
		}
	}
	return paginate(out, opts), nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	for i, u := range f.users {
		if u.ID == id {
			f.users = slices.Delete(f.users, i, i+1)
			return nil
		}
	}
	return apperror.NotFound("user", id)
}

func (f *fakeUserRepo) AddFollow(_ context.Context, userID, username string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, u := range f.users {
		if u.ID == userID {
			if slices.Contains(u.Follows, username) {
				return false, nil
			}
			u.Follows = append(u.Follows, username)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) RemoveFollow(_ context.Context, userID, username string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, u := range f.users {
		if u.ID == userID {
			i := slices.Index(u.Follows, username)
			if i < 0 {
				return false, nil
			}
			u.Follows = slices.Delete(u.Follows, i, i+1)
			return true, nil
		}
	}
	return false, nil
}

type fakeContentRepo struct {
	items    []model.Content
	nextID   int
	failWith error

	// leak, when set, is appended to every ListByAuthors result, to check
	// that the service doesn't trust the store's author filter.
	leak []model.Content
}

func newFakeContentRepo() *fakeContentRepo { return &fakeContentRepo{} }

func (f *fakeContentRepo) Create(_ context.Context, c *model.Content) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	c.ID = fmt.Sprintf("content-%03d", f.nextID)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	f.items = append(f.items, *c)
	return nil
}

func (f *fakeContentRepo) GetByID(_ context.Context, id string) (*model.Content, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, c := range f.items {
		if c.ID == id {
			item := c
			return &item, nil
		}
	}
	return nil, apperror.NotFound("content", id)
}

func (f *fakeContentRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Content, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := slices.Clone(f.items)
	sortNewestFirst(out)
	return paginate(out, opts), nil
}

func (f *fakeContentRepo) Search(_ context.Context, q string, opts repository.ListOptions) ([]model.Content, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	q = strings.ToLower(q)
	out := []model.Content{}
	for _, c := range f.items {
		if strings.Contains(strings.ToLower(c.Title), q) || strings.Contains(strings.ToLower(c.Body), q) {
			out = append(out, c)
		}
	}
	sortNewestFirst(out)
	return paginate(out, opts), nil
}

// ListByAuthors returns matches in insertion order, not newest first, so the
// service's own sort is what the tests observe.
func (f *fakeContentRepo) ListByAuthors(_ context.Context, usernames []string) ([]model.Content, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Content{}
	for _, c := range f.items {
		if slices.Contains(usernames, c.Username) {
			out = append(out, c)
		}
	}
	return append(out, f.leak...), nil
}

func (f *fakeContentRepo) Delete(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	for i, c := range f.items {
		if c.ID == id {
			f.items = slices.Delete(f.items, i, i+1)
			return nil
		}
	}
	return apperror.NotFound("content", id)
}

func paginate[T any](items []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedUser puts a user straight into the fake, bypassing registration.
func seedUser(t *testing.T, repo *fakeUserRepo, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username: username,
		Email:    username + "@x.com",
		Password: "pw-" + username,
		FullName: username,
		Follows:  []string{},
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return u
}
