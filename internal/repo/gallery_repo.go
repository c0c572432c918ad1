// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// GalleryEntry model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-art-booking/internal/domain"
)

const galleryOrder = "created_at desc, id desc"

// GalleryEntryExists reports whether an entry with the given client name and
// contact already exists. A nil contact matches entries without a contact.
func GalleryEntryExists(ctx context.Context, db *gorm.DB, clientName string, contact *string) (bool, error) {
	q := db.WithContext(ctx).
		Model(&domain.GalleryEntry{}).
		Where("client_name = ?", clientName)
	if contact == nil {
		q = q.Where("contact IS NULL")
	} else {
		q = q.Where("contact = ?", *contact)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateGalleryEntry inserts e.
func CreateGalleryEntry(ctx context.Context, db *gorm.DB, e *domain.GalleryEntry) error {
	return db.WithContext(ctx).Create(e).Error
}

// ListGallery returns all entries, newest upload first.
func ListGallery(ctx context.Context, db *gorm.DB) ([]domain.GalleryEntry, error) {
	var out []domain.GalleryEntry
	err := db.WithContext(ctx).Order(galleryOrder).Find(&out).Error
	return out, err
}

// CountGallery returns the total number of gallery entries.
func CountGallery(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.GalleryEntry{}).Count(&total).Error
	return total, err
}

// ListGalleryPage returns a page of entries, newest first. The caller
// computes offset and limit.
func ListGalleryPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.GalleryEntry, error) {
	var out []domain.GalleryEntry
	err := db.WithContext(ctx).
		Order(galleryOrder).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
