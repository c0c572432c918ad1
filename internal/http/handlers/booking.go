package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-art-booking/internal/http/middleware"
	"github.com/tbourn/go-art-booking/internal/services"
)

const (
	msgBookLogin     = "Please log in before booking."
	msgBooked        = "Booking submitted! Wait for admin approval."
	msgBookingFailed = "Error submitting booking. Please check your inputs."

	// multipartOverhead allows for the text fields and part headers on top
	// of two maximum-size files.
	multipartOverhead = 1 << 20
	// multipartMemory is held in memory before parts spill to temp files.
	multipartMemory = 32 << 20
)

// BookPage renders the booking form, prefilled from the signed-in account.
func (h *Handlers) BookPage(c *gin.Context) {
	u := middleware.CurrentUser(c)
	form := services.BookingInput{}
	if u != nil {
		form.FullName = strings.TrimSpace(u.FirstName + " " + u.LastName)
		form.Email = u.Email
	}
	h.bookingForm(c, http.StatusOK, form, nil)
}

// Book submits a booking request with optional art and payment reference
// images.
func (h *Handlers) Book(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		middleware.AddFlash(c, middleware.FlashError, msgBookLogin)
		redirect(c, pathLogin)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.maxUpload+multipartOverhead)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		status, fields := http.StatusBadRequest, map[string]string(nil)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status, fields = http.StatusRequestEntityTooLarge, map[string]string{"art_image": "File too large."}
		}
		middleware.LoggerFrom(c).Warn().Err(err).Msg("booking form unreadable")
		middleware.AddFlash(c, middleware.FlashError, msgBookingFailed)
		h.bookingForm(c, status, services.BookingInput{}, fields)
		return
	}

	in := services.BookingInput{
		FullName: c.PostForm("fullname"),
		Email:    c.PostForm("email"),
		Contact:  c.PostForm("contact"),
		Date:     c.PostForm("date"),
		ArtStyle: c.PostForm("artstyle"),
	}
	var err error
	if in.ArtImage, err = h.readUpload(c, "art_image"); err == nil {
		in.Reference, err = h.readUpload(c, "payment_reference")
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	b, err := h.bookings.Submit(c.Request.Context(), u, in)
	var ve *services.ValidationError
	switch {
	case err == nil:
		middleware.LoggerFrom(c).Info().Uint("booking_id", b.ID).Msg("booking submitted")
		middleware.AddFlash(c, middleware.FlashSuccess, msgBooked)
		redirect(c, pathGallery)
	case errors.As(err, &ve):
		middleware.AddFlash(c, middleware.FlashError, ve.Message())
		h.bookingForm(c, http.StatusBadRequest, in, ve.Fields)
	default:
		h.handleError(c, err)
	}
}

func (h *Handlers) bookingForm(c *gin.Context, status int, form services.BookingInput, fields map[string]string) {
	if fields == nil {
		fields = map[string]string{}
	}
	var styles []string
	if h.about != nil {
		styles = h.about.Styles
	}
	h.page(c, status, "book.html", "Book", gin.H{
		"Form":   form,
		"Errors": fields,
		"Styles": styles,
		"Today":  time.Now().In(h.loc).Format("2006-01-02"),
	})
}

// readUpload reads an optional file field. A missing field is nil. At most
// maxUpload+1 bytes are read so the service can reject oversized files.
func (h *Handlers) readUpload(c *gin.Context, field string) (*services.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return readFileHeader(fh, h.maxUpload+1)
}

func readFileHeader(fh *multipart.FileHeader, limit int64) (*services.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return nil, err
	}
	return &services.Upload{Data: data}, nil
}

// Gallery shows the customer's latest booking and the published gallery.
func (h *Handlers) Gallery(c *gin.Context) {
	u := middleware.CurrentUser(c)
	latest, err := h.bookings.Latest(c.Request.Context(), u)
	if err != nil {
		h.handleError(c, err)
		return
	}
	entries, err := h.gallery.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.page(c, http.StatusOK, "gallery.html", "Gallery", gin.H{
		"LatestBooking": latest,
		"Entries":       entries,
	})
}

// About renders the studio information page.
func (h *Handlers) About(c *gin.Context) {
	h.page(c, http.StatusOK, "about.html", "About", nil)
}
