package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-art-booking/internal/domain"
	"github.com/tbourn/go-art-booking/internal/http/middleware"
	"github.com/tbourn/go-art-booking/internal/services"
)

// Flash texts shared by several handlers.
const (
	msgLoginRequired = "Please log in to continue."
	msgForbidden     = "You are not authorized to access this page."
	msgNotFound      = "Page not found."
	msgInternal      = "Something went wrong. Please try again."
)

// Page paths used as redirect targets.
const (
	pathLogin     = "/login/"
	pathGallery   = "/gallery/"
	pathDashboard = "/admin-dashboard/"
)

// page renders the named template. Every page receives the signed-in user,
// the administrator flag, the user's latest booking, the studio info and any
// pending flash messages.
func (h *Handlers) page(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	u := middleware.CurrentUser(c)
	data["Title"] = title
	data["User"] = u
	data["IsAdmin"] = services.IsAdministrator(u)
	data["Studio"] = h.about

	if _, set := data["LatestBooking"]; !set {
		var latest *domain.Booking
		if u != nil {
			b, err := h.bookings.Latest(c.Request.Context(), u)
			if err != nil {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("latest booking lookup failed")
			}
			latest = b
		}
		data["LatestBooking"] = latest
	}

	data["Flashes"] = middleware.Flashes(c)
	c.HTML(status, name, data)
}

// ErrorPage renders the error template with status and msg.
func (h *Handlers) ErrorPage(c *gin.Context, status int, msg string) {
	h.page(c, status, "error.html", http.StatusText(status), gin.H{
		"Status":        status,
		"Message":       msg,
		"LatestBooking": (*domain.Booking)(nil),
	})
}

// InternalErrorPage is the HTML renderer used by panic recovery.
func (h *Handlers) InternalErrorPage(c *gin.Context) {
	h.ErrorPage(c, http.StatusInternalServerError, msgInternal)
}

// NotFoundPage renders the HTML 404 page.
func (h *Handlers) NotFoundPage(c *gin.Context) {
	h.ErrorPage(c, http.StatusNotFound, msgNotFound)
}

// handleError maps service errors to the page-level response: a redirect
// with a notice for authentication and authorization failures, the 404 page
// for missing records, and the 500 page for anything else.
func (h *Handlers) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		middleware.AddFlash(c, middleware.FlashInfo, msgLoginRequired)
		redirect(c, pathLogin)
	case errors.Is(err, services.ErrForbidden):
		middleware.AddFlash(c, middleware.FlashError, msgForbidden)
		redirect(c, pathGallery)
	case errors.Is(err, services.ErrNotFound):
		h.ErrorPage(c, http.StatusNotFound, msgNotFound)
	default:
		_ = c.Error(err)
		h.ErrorPage(c, http.StatusInternalServerError, msgInternal)
	}
}

// redirect uses 302 for safe methods and 303 after a form submission.
func redirect(c *gin.Context, location string) {
	status := http.StatusFound
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	c.Redirect(status, location)
	c.Abort()
}

// homeFor is where a signed-in user lands: the dashboard for administrators,
// the gallery for customers.
func homeFor(u *domain.User) string {
	if services.IsAdministrator(u) {
		return pathDashboard
	}
	return pathGallery
}
