// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. When a user is not found, functions
// return gorm.ErrRecordNotFound (exported as ErrNotFound).
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-art-booking/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so callers can use errors.Is with either.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateUser inserts u and fills its ID and timestamps.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Create(u).Error
}

// GetUser fetches a user by primary key.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByUsername fetches a user by exact username.
func FindUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("username = ?", username).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByEmail fetches the oldest user whose email matches
// case-insensitively.
func FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("id asc").
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailTaken reports whether email is already used as an email or as a
// username by any user. Comparison is case-insensitive.
func EmailTaken(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("LOWER(email) = ? OR LOWER(username) = ?", e, e).
		Count(&n).Error
	return n > 0, err
}
