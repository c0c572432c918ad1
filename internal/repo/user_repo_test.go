package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-art-booking/internal/domain"
)

func TestCreateUser_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if err := CreateUser(context.Background(), db, &domain.User{Username: "a"}); err == nil {
		t.Fatalf("expected error creating without table")
	}
}

func TestCreateUser_DefaultsAndGet(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	u := &domain.User{Username: "ana@example.com", Email: "ana@example.com", PasswordHash: "h"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("expected ID to be assigned")
	}

	got, err := GetUser(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Role != domain.RoleCustomer || !got.IsActive || got.IsSuperuser {
		t.Fatalf("unexpected defaults: %+v", got)
	}

	if _, err := GetUser(ctx, db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	if err := CreateUser(ctx, db, &domain.User{Username: "dup", Email: "a@x.io", PasswordHash: "h"}); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := CreateUser(ctx, db, &domain.User{Username: "dup", Email: "b@x.io", PasswordHash: "h"}); err == nil {
		t.Fatalf("expected unique violation on username")
	}
}

func TestFindUserByUsernameAndEmail(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	admin := &domain.User{Username: "studio", Email: "Owner@Studio.ph", PasswordHash: "h", Role: domain.RoleAdmin}
	if err := CreateUser(ctx, db, admin); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := FindUserByUsername(ctx, db, "studio")
	if err != nil || got.ID != admin.ID {
		t.Fatalf("FindUserByUsername: got=%+v err=%v", got, err)
	}
	if _, err := FindUserByUsername(ctx, db, "Studio"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("username lookup must be exact, got %v", err)
	}

	got, err = FindUserByEmail(ctx, db, "  owner@studio.PH ")
	if err != nil || got.ID != admin.ID {
		t.Fatalf("FindUserByEmail: got=%+v err=%v", got, err)
	}
	if _, err := FindUserByEmail(ctx, db, "nobody@x.io"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEmailTaken(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	if err := CreateUser(ctx, db, &domain.User{Username: "ana@example.com", Email: "ana@example.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := CreateUser(ctx, db, &domain.User{Username: "legacy@example.com", Email: "other@example.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := map[string]bool{
		"ana@example.com":    true,
		"ANA@example.com":    true,
		"legacy@example.com": true,
		"free@example.com":   false,
	}
	for email, want := range cases {
		got, err := EmailTaken(ctx, db, email)
		if err != nil {
			t.Fatalf("EmailTaken(%q): %v", email, err)
		}
		if got != want {
			t.Fatalf("EmailTaken(%q)=%v, want %v", email, got, want)
		}
	}
}
