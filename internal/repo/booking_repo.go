// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Booking
// model.
//
// Listing functions order newest first (created_at desc, id desc) so that
// rows created within the same clock tick still have a stable order.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-art-booking/internal/domain"
)

const bookingOrder = "created_at desc, id desc"

// CreateBooking inserts b. A zero Status is stored as Pending.
func CreateBooking(ctx context.Context, db *gorm.DB, b *domain.Booking) error {
	if b.Status == "" {
		b.Status = domain.StatusPending
	}
	return db.WithContext(ctx).Create(b).Error
}

// GetBooking fetches a booking by primary key, or ErrNotFound.
func GetBooking(ctx context.Context, db *gorm.DB, id uint) (*domain.Booking, error) {
	var b domain.Booking
	if err := db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBookings returns every booking, newest first. With excludeAccepted,
// Accepted bookings are left out (Pending and Denied remain).
func ListBookings(ctx context.Context, db *gorm.DB, excludeAccepted bool) ([]domain.Booking, error) {
	var out []domain.Booking
	q := db.WithContext(ctx).Order(bookingOrder)
	if excludeAccepted {
		q = q.Where("status <> ?", domain.StatusAccepted)
	}
	err := q.Find(&out).Error
	return out, err
}

// LatestBookingForUser returns the most recent booking owned by userID, or
// ErrNotFound when the user has none.
func LatestBookingForUser(ctx context.Context, db *gorm.DB, userID uint) (*domain.Booking, error) {
	var b domain.Booking
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(bookingOrder).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBookingStatus sets the status of booking id. It returns ErrNotFound
// when no row matches.
func UpdateBookingStatus(ctx context.Context, db *gorm.DB, id uint, status domain.Status) error {
	res := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
