// Package services – GalleryService
//
// Read access to published gallery entries. Entries are only ever created by
// BookingService.Accept.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-art-booking/internal/domain"
	"github.com/tbourn/go-art-booking/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GalleryService lists gallery entries.
type GalleryService struct {
	DB *gorm.DB
}

// List returns every entry, newest upload first.
func (s *GalleryService) List(ctx context.Context) ([]domain.GalleryEntry, error) {
	return repo.ListGallery(ctx, s.DB)
}

// ListPage returns a page of entries and the total count. It applies
// defaults for invalid page/pageSize.
func (s *GalleryService) ListPage(ctx context.Context, page, pageSize int) ([]domain.GalleryEntry, int64, error) {
	tr := otel.Tracer("services/GalleryService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountGallery(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.GalleryEntry{}, 0, nil
	}

	items, err := repo.ListGalleryPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Stats returns the entry count and latest update time for ETag generation.
func (s *GalleryService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return repo.GalleryStats(ctx, s.DB)
}
