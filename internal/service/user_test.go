package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/repository"
)

func TestUserService_ListAndPaginate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, testLogger())
	for _, name := range []string{"a", "b", "c"} {
		seedUser(t, repo, name)
	}
	ctx := context.Background()

	all, err := svc.List(ctx, repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() = %d users, want 3", len(all))
	}

	page, _ := svc.List(ctx, repository.ListOptions{Limit: 1, Offset: 2})
	if len(page) != 1 || page[0].Username != "c" {
		t.Errorf("List(limit=1, offset=2) = %v", page)
	}

	// Negative values are clamped rather than rejected.
	clamped, _ := svc.List(ctx, repository.ListOptions{Limit: -5, Offset: -1})
	if len(clamped) != 3 {
		t.Errorf("List(negative) = %d users, want 3", len(clamped))
	}
}

func TestNormalizeListOptions(t *testing.T) {
	got := normalizeListOptions(repository.ListOptions{Limit: 5000, Offset: -2})
	if got.Limit != MaxListLimit || got.Offset != 0 {
		t.Errorf("normalizeListOptions() = %+v", got)
	}
}

func TestUserService_Search(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, testLogger())
	seedUser(t, repo, "alice")
	seedUser(t, repo, "bob")
	ctx := context.Background()

	got, err := svc.Search(ctx, "  ALI ", repository.ListOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Username != "alice" {
		t.Errorf("Search() = %v, want [alice]", got)
	}

	for _, q := range []string{"", "   "} {
		if _, err := svc.Search(ctx, q, repository.ListOptions{}); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Search(%q) error = %v, want ErrValidation", q, err)
		}
	}
}

func TestUserService_GetByID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, testLogger())
	u := seedUser(t, repo, "alice")

	got, err := svc.GetByID(context.Background(), u.ID)
	if err != nil || got.Username != "alice" {
		t.Fatalf("GetByID() = %v, %v", got, err)
	}

	_, err = svc.GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) || err.Error() != "User not found" {
		t.Errorf("GetByID(missing) error = %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	users := newFakeUserRepo()
	contents := newFakeContentRepo()
	svc := NewUserService(users, testLogger())
	ctx := context.Background()

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	users.AddFollow(ctx, bob.ID, "alice")
	contents.Create(ctx, newPost(alice, "left behind"))

	if err := svc.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, alice.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	// Nothing cascades from the service.
	if len(contents.items) != 1 {
		t.Errorf("content count = %d, want the post kept", len(contents.items))
	}
	b, _ := users.GetByID(ctx, bob.ID)
	if !b.IsFollowing("alice") {
		t.Error("bob's follow entry for alice was removed")
	}
}

func TestUserService_StoreDown(t *testing.T) {
	repo := newFakeUserRepo()
	repo.failWith = errStoreDown
	svc := NewUserService(repo, testLogger())

	_, err := svc.GetByID(context.Background(), "x")
	if !errors.Is(err, errStoreDown) || errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want wrapped store error", err)
	}
}
