// Package handlers implements the HTTP endpoints: server-rendered pages for
// customers and administrators, and the public JSON gallery API.
//
// Handlers are transport-thin. They read forms, call the services with the
// signed-in identity from the session middleware, and translate results and
// service errors into pages, flash messages and redirects.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-art-booking/internal/content"
	"github.com/tbourn/go-art-booking/internal/domain"
	"github.com/tbourn/go-art-booking/internal/http/middleware"
	"github.com/tbourn/go-art-booking/internal/services"
)

// AccountService covers signup, login and identity lookup.
type AccountService interface {
	Signup(ctx context.Context, in services.SignupInput) (*domain.User, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*domain.User, error)
}

// BookingService covers the booking lifecycle.
type BookingService interface {
	Submit(ctx context.Context, actor *domain.User, in services.BookingInput) (*domain.Booking, error)
	Accept(ctx context.Context, actor *domain.User, id uint) (*domain.Booking, error)
	Deny(ctx context.Context, actor *domain.User, id uint) (*domain.Booking, error)
	List(ctx context.Context, actor *domain.User, opts services.ListOptions) ([]domain.Booking, error)
	Latest(ctx context.Context, actor *domain.User) (*domain.Booking, error)
}

// GalleryService lists published gallery entries.
type GalleryService interface {
	List(ctx context.Context) ([]domain.GalleryEntry, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.GalleryEntry, int64, error)
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// SessionIssuer mints session tokens for a signed-in user.
type SessionIssuer interface {
	Issue(userID uint) (string, error)
}

// Options wires a Handlers.
type Options struct {
	Accounts AccountService
	Bookings BookingService
	Gallery  GalleryService
	Sessions SessionIssuer
	Cookie   middleware.SessionCookie

	// About is the studio information shown on every page.
	About *content.About
	// MediaURL resolves an asset key for the JSON API.
	MediaURL func(key string) string
	// Location is the studio's time zone, used for the booking form.
	Location *time.Location
	// MaxUploadBytes is the per-file upload limit.
	MaxUploadBytes int64
}

// Handlers groups every endpoint.
type Handlers struct {
	accounts AccountService
	bookings BookingService
	gallery  GalleryService
	sessions SessionIssuer
	cookie   middleware.SessionCookie

	about     *content.About
	mediaURL  func(string) string
	loc       *time.Location
	maxUpload int64
}

// New constructs Handlers from o, defaulting the location to UTC and the
// upload limit to 10 MiB.
func New(o Options) *Handlers {
	h := &Handlers{
		accounts:  o.Accounts,
		bookings:  o.Bookings,
		gallery:   o.Gallery,
		sessions:  o.Sessions,
		cookie:    o.Cookie,
		about:     o.About,
		mediaURL:  o.MediaURL,
		loc:       o.Location,
		maxUpload: o.MaxUploadBytes,
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.maxUpload <= 0 {
		h.maxUpload = 10 << 20
	}
	if h.mediaURL == nil {
		h.mediaURL = func(string) string { return "" }
	}
	return h
}
