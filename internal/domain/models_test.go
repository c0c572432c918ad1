package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	if (User{}).TableName() != "users" {
		t.Fatalf("User.TableName() = %q; want %q", (User{}).TableName(), "users")
	}
	if (Booking{}).TableName() != "bookings" {
		t.Fatalf("Booking.TableName() = %q; want %q", (Booking{}).TableName(), "bookings")
	}
	if (GalleryEntry{}).TableName() != "gallery_entries" {
		t.Fatalf("GalleryEntry.TableName() = %q; want %q", (GalleryEntry{}).TableName(), "gallery_entries")
	}
}

func TestUser_IsAdministrator(t *testing.T) {
	cases := []struct {
		name string
		u    *User
		want bool
	}{
		{"nil", nil, false},
		{"customer", &User{Role: RoleCustomer}, false},
		{"admin role", &User{Role: RoleAdmin}, true},
		{"superuser customer", &User{Role: RoleCustomer, IsSuperuser: true}, true},
	}
	for _, tc := range cases {
		if got := tc.u.IsAdministrator(); got != tc.want {
			t.Fatalf("%s: IsAdministrator() = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestUser_DisplayName(t *testing.T) {
	if got := (&User{Username: "ana@example.com", FirstName: "Ana"}).DisplayName(); got != "Ana" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := (&User{Username: "ana@example.com"}).DisplayName(); got != "ana@example.com" {
		t.Fatalf("DisplayName fallback = %q", got)
	}
	var nilUser *User
	if got := nilUser.DisplayName(); got != "" {
		t.Fatalf("nil DisplayName = %q", got)
	}
}

func TestBooking_Predicates(t *testing.T) {
	b := &Booking{Status: StatusPending}
	if !b.IsPending() || b.IsAccepted() {
		t.Fatalf("pending predicates wrong: %+v", b)
	}
	if b.HasAssets() {
		t.Fatalf("no assets expected")
	}
	b.Status = StatusAccepted
	b.ReferenceImage = "references/x.png"
	if b.IsPending() || !b.IsAccepted() || !b.HasAssets() {
		t.Fatalf("accepted predicates wrong: %+v", b)
	}
}

func TestMigrations_Defaults_AndCascade(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&User{}, &Booking{}, &GalleryEntry{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&User{}, &Booking{}, &GalleryEntry{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	u := &User{Username: "ana@example.com", Email: "ana@example.com", PasswordHash: "x", Role: RoleCustomer, IsActive: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	// Status omitted -> DB default "Pending".
	b := &Booking{
		UserID:   &u.ID,
		FullName: "Ana",
		Email:    "ana@example.com",
		Contact:  "0917",
		Date:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		ArtStyle: "Linework",
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("create booking: %v", err)
	}
	var got Booking
	if err := db.First(&got, b.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("default status = %q; want Pending", got.Status)
	}

	// Duplicate username rejected by unique index.
	dup := &User{Username: "ana@example.com", Email: "other@example.com", PasswordHash: "x"}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on username")
	}

	// Deleting the user cascades to its bookings.
	if err := db.Delete(&User{}, u.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var n int64
	db.Model(&Booking{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected cascade delete, %d bookings remain", n)
	}
}
