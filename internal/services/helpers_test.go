package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-art-booking/internal/auth"
	"github.com/tbourn/go-art-booking/internal/domain"
	"github.com/tbourn/go-art-booking/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.User{}, &domain.Booking{}, &domain.GalleryEntry{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testHasher() auth.Hasher { return auth.NewHasher(bcrypt.MinCost) }

func newLocalStore(t *testing.T) (*storage.Local, string) {
	t.Helper()
	root := t.TempDir()
	st, err := storage.NewLocal(root, "/media/")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	return st, root
}

// countFiles returns the number of regular files below root.
func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return n
}

func pngUpload(t *testing.T) *Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.RGBA{B: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return &Upload{Data: buf.Bytes()}
}

func seedUser(t *testing.T, db *gorm.DB, username string, role domain.Role, superuser bool) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        username,
		PasswordHash: "x",
		Role:         role,
		IsSuperuser:  superuser,
		IsActive:     true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func validInput() BookingInput {
	return BookingInput{
		FullName: "Ana",
		Email:    "ana@example.com",
		Contact:  "09171234567",
		Date:     "2025-06-01",
		ArtStyle: "Linework",
	}
}

// failingStore wraps a Store and fails Put or Copy on demand.
type failingStore struct {
	storage.Store
	failPutPrefix string
	failCopy      bool
}

func (f *failingStore) Put(ctx context.Context, prefix string, data []byte, ct string) (string, error) {
	if prefix == f.failPutPrefix {
		return "", errors.New("put failed")
	}
	return f.Store.Put(ctx, prefix, data, ct)
}

func (f *failingStore) Copy(ctx context.Context, src, dst string) (string, error) {
	if f.failCopy {
		return "", errors.New("copy failed")
	}
	return f.Store.Copy(ctx, src, dst)
}
