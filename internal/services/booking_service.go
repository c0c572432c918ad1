// Package services – BookingService
//
// This file implements the booking lifecycle: customers submit requests,
// administrators accept or deny them. Accepting a booking that carries
// uploaded assets publishes a GalleryEntry holding byte copies of those
// assets, unless an entry with the same client name and contact exists.
//
// Every administrator operation goes through requireAdmin. All public
// methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-art-booking/internal/domain"
	"github.com/tbourn/go-art-booking/internal/repo"
	"github.com/tbourn/go-art-booking/internal/search"
	"github.com/tbourn/go-art-booking/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const dateLayout = "2006-01-02"

// Upload is an uploaded file read into memory.
type Upload struct {
	Data []byte
}

// BookingInput is the booking form. Uploads are optional.
type BookingInput struct {
	FullName  string  `form:"fullname"          validate:"required,max=100"`
	Email     string  `form:"email"             validate:"required,email,max=100"`
	Contact   string  `form:"contact"           validate:"required,max=20"`
	Date      string  `form:"date"              validate:"required,datetime=2006-01-02"`
	ArtStyle  string  `form:"artstyle"          validate:"required,max=100"`
	ArtImage  *Upload `form:"art_image"         validate:"-"`
	Reference *Upload `form:"payment_reference" validate:"-"`
}

// ListOptions narrows List.
type ListOptions struct {
	// ExcludeAccepted leaves out Accepted bookings (admin gallery view).
	ExcludeAccepted bool
	// Query, when non-blank, keeps only bookings matching it and orders them
	// by relevance.
	Query string
}

// BookingService coordinates booking persistence and asset handling.
type BookingService struct {
	DB    *gorm.DB
	Store storage.Store

	// MaxUploadBytes caps each uploaded asset; 0 disables the check.
	MaxUploadBytes int64
	// Location interprets the requested date.
	Location *time.Location
}

// NewBookingService constructs a BookingService with a 10 MiB upload cap and
// UTC dates.
func NewBookingService(db *gorm.DB, store storage.Store) *BookingService {
	return &BookingService{
		DB:             db,
		Store:          store,
		MaxUploadBytes: 10 << 20,
		Location:       time.UTC,
	}
}

// Submit validates in and persists a Pending booking owned by actor.
//
// Errors: ErrUnauthenticated when actor is nil, *ValidationError when any
// field or upload is invalid. On any failure no booking is persisted and
// assets stored by this call are removed.
func (s *BookingService) Submit(ctx context.Context, actor *domain.User, in BookingInput) (*domain.Booking, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Submit")
	defer span.End()

	if actor == nil {
		return nil, ErrUnauthenticated
	}
	span.SetAttributes(attribute.Int("user.id", int(actor.ID)))

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Contact = strings.TrimSpace(in.Contact)
	in.Date = strings.TrimSpace(in.Date)
	in.ArtStyle = strings.TrimSpace(in.ArtStyle)

	ve := &ValidationError{}
	if err := checkStruct(ve, in); err != nil {
		return nil, err
	}
	var date time.Time
	if _, bad := ve.Fields["date"]; !bad && in.Date != "" {
		d, err := time.ParseInLocation(dateLayout, in.Date, s.location())
		if err != nil {
			ve.add("date", "Enter a valid date.")
		}
		date = d
	}
	artType := s.checkUpload(ve, "art_image", in.ArtImage)
	refType := s.checkUpload(ve, "payment_reference", in.Reference)
	if len(ve.Fields) > 0 {
		ve.Summary = "Error submitting booking. Please check your inputs."
		return nil, ve
	}

	b := &domain.Booking{
		UserID:   &actor.ID,
		FullName: in.FullName,
		Email:    in.Email,
		Contact:  in.Contact,
		Date:     date,
		ArtStyle: in.ArtStyle,
		Status:   domain.StatusPending,
	}

	var stored []string
	cleanup := func() {
		for _, k := range stored {
			_ = s.Store.Delete(context.WithoutCancel(ctx), k)
		}
	}
	if in.ArtImage != nil {
		key, err := s.Store.Put(ctx, storage.PrefixArtUploads, in.ArtImage.Data, artType)
		if err != nil {
			return nil, fmt.Errorf("store art image: %w", err)
		}
		stored = append(stored, key)
		b.ArtImage = key
	}
	if in.Reference != nil {
		key, err := s.Store.Put(ctx, storage.PrefixReferences, in.Reference.Data, refType)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("store reference image: %w", err)
		}
		stored = append(stored, key)
		b.ReferenceImage = key
	}

	if err := repo.CreateBooking(ctx, s.DB, b); err != nil {
		cleanup()
		span.RecordError(err)
		span.SetStatus(codes.Error, "create booking")
		return nil, err
	}
	span.SetAttributes(attribute.Int("booking.id", int(b.ID)))
	bookingsSubmitted.Inc()
	return b, nil
}

// checkUpload validates an optional upload and returns its sniffed type.
func (s *BookingService) checkUpload(ve *ValidationError, field string, u *Upload) string {
	if u == nil {
		return ""
	}
	if len(u.Data) == 0 {
		ve.add(field, "The submitted file is empty.")
		return ""
	}
	if s.MaxUploadBytes > 0 && int64(len(u.Data)) > s.MaxUploadBytes {
		ve.add(field, fmt.Sprintf("File too large. Maximum size is %d MB.", s.MaxUploadBytes>>20))
		return ""
	}
	ct, err := storage.DetectImage(u.Data)
	if err != nil {
		ve.add(field, "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		return ""
	}
	return ct
}

func (s *BookingService) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// Accept marks booking id Accepted. Before the status change, when no
// GalleryEntry matches the booking's (full name, contact) and the booking
// has at least one asset, its assets are copied in the store and a
// GalleryEntry referencing the copies is created in the same transaction as
// the status update. Repeated calls never create a second entry. Assets
// missing from the store are skipped.
//
// Errors: ErrUnauthenticated, ErrForbidden, ErrNotFound.
func (s *BookingService) Accept(ctx context.Context, actor *domain.User, id uint) (*domain.Booking, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Accept", trace.WithAttributes(attribute.Int("booking.id", int(id))))
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	contact := b.Contact
	exists, err := repo.GalleryEntryExists(ctx, s.DB, b.FullName, &contact)
	if err != nil {
		return nil, err
	}

	var entry *domain.GalleryEntry
	if !exists && b.HasAssets() {
		entry = &domain.GalleryEntry{ClientName: b.FullName, Contact: &contact}
		if entry.Art, err = s.copyAsset(ctx, span, b.ArtImage, storage.PrefixArtworks); err != nil {
			return nil, fmt.Errorf("copy art image: %w", err)
		}
		if entry.Reference, err = s.copyAsset(ctx, span, b.ReferenceImage, storage.PrefixReferences); err != nil {
			s.discard(ctx, entry)
			return nil, fmt.Errorf("copy reference image: %w", err)
		}
		if entry.Art == "" && entry.Reference == "" {
			entry = nil
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if entry != nil {
			if err := repo.CreateGalleryEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		return repo.UpdateBookingStatus(ctx, tx, b.ID, domain.StatusAccepted)
	})
	if err != nil {
		if entry != nil {
			s.discard(ctx, entry)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "accept booking")
		return nil, err
	}

	if entry != nil {
		galleryEntriesCreated.Inc()
		span.SetAttributes(attribute.Int("gallery.id", int(entry.ID)))
	}
	bookingDecisions.WithLabelValues("accepted").Inc()
	b.Status = domain.StatusAccepted
	return b, nil
}

// copyAsset copies key under prefix. An empty key or an original that is no
// longer in the store yields "".
func (s *BookingService) copyAsset(ctx context.Context, span trace.Span, key, prefix string) (string, error) {
	if key == "" {
		return "", nil
	}
	dst, err := s.Store.Copy(ctx, key, prefix)
	if errors.Is(err, storage.ErrNotFound) {
		span.AddEvent("asset missing", trace.WithAttributes(attribute.String("asset.key", key)))
		return "", nil
	}
	return dst, err
}

// discard removes the asset copies of an entry that was never persisted.
func (s *BookingService) discard(ctx context.Context, e *domain.GalleryEntry) {
	for _, k := range []string{e.Art, e.Reference} {
		if k != "" {
			_ = s.Store.Delete(context.WithoutCancel(ctx), k)
		}
	}
}

// Deny marks booking id Denied. It never touches the gallery and does not
// guard against denying an Accepted booking.
//
// Errors: ErrUnauthenticated, ErrForbidden, ErrNotFound.
func (s *BookingService) Deny(ctx context.Context, actor *domain.User, id uint) (*domain.Booking, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Deny", trace.WithAttributes(attribute.Int("booking.id", int(id))))
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := repo.UpdateBookingStatus(ctx, s.DB, b.ID, domain.StatusDenied); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	bookingDecisions.WithLabelValues("denied").Inc()
	b.Status = domain.StatusDenied
	return b, nil
}

func (s *BookingService) get(ctx context.Context, id uint) (*domain.Booking, error) {
	b, err := repo.GetBooking(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

// List returns bookings newest first for an administrator. With a Query,
// only matching bookings are returned, best match first.
//
// Errors: ErrUnauthenticated, ErrForbidden.
func (s *BookingService) List(ctx context.Context, actor *domain.User, opts ListOptions) ([]domain.Booking, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Bool("exclude_accepted", opts.ExcludeAccepted),
			attribute.Bool("query", strings.TrimSpace(opts.Query) != ""),
		),
	)
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	items, err := repo.ListBookings(ctx, s.DB, opts.ExcludeAccepted)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Query) == "" {
		return items, nil
	}
	return rankBookings(items, opts.Query), nil
}

// searchStopwords are email and domain fragments that match almost every
// booking.
var searchStopwords = []string{"com", "net", "org", "www", "gmail", "yahoo", "mail"}

// maxSearchDocs bounds the dashboard index to the newest bookings.
const maxSearchDocs = 2000

func rankBookings(items []domain.Booking, q string) []domain.Booking {
	docs := make([]search.Document, len(items))
	byID := make(map[uint]domain.Booking, len(items))
	for i, b := range items {
		docs[i] = search.Document{
			ID:   b.ID,
			Text: strings.Join([]string{b.FullName, b.Email, b.Contact, b.ArtStyle, string(b.Status)}, " "),
		}
		byID[b.ID] = b
	}
	res := search.NewIndex(docs, search.WithStopwords(searchStopwords), search.WithMaxDocs(maxSearchDocs)).TopK(q, 0)
	out := make([]domain.Booking, 0, len(res))
	for _, r := range res {
		out = append(out, byID[r.ID])
	}
	return out
}

// Latest returns actor's most recent booking, or nil when there is none.
//
// Errors: ErrUnauthenticated when actor is nil.
func (s *BookingService) Latest(ctx context.Context, actor *domain.User) (*domain.Booking, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	b, err := repo.LatestBookingForUser(ctx, s.DB, actor.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return b, err
}
