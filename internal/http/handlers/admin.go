package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-art-booking/internal/http/middleware"
	"github.com/tbourn/go-art-booking/internal/services"
)

// Dashboard lists every booking newest first, optionally filtered by q.
func (h *Handlers) Dashboard(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	items, err := h.bookings.List(c.Request.Context(), middleware.CurrentUser(c), services.ListOptions{Query: q})
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.page(c, http.StatusOK, "admin_dashboard.html", "Dashboard", gin.H{
		"Bookings": items,
		"Query":    q,
	})
}

// AdminGallery lists bookings that are not Accepted alongside every gallery
// entry.
func (h *Handlers) AdminGallery(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.bookings.List(ctx, middleware.CurrentUser(c), services.ListOptions{ExcludeAccepted: true})
	if err != nil {
		h.handleError(c, err)
		return
	}
	uploads, err := h.gallery.List(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.page(c, http.StatusOK, "admin_gallery.html", "Admin gallery", gin.H{
		"Bookings": items,
		"Uploads":  uploads,
	})
}

// Accept accepts booking {id} and returns to the dashboard.
func (h *Handlers) Accept(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		h.NotFoundPage(c)
		return
	}
	b, err := h.bookings.Accept(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	middleware.LoggerFrom(c).Info().Uint("booking_id", b.ID).Msg("booking accepted")
	middleware.AddFlash(c, middleware.FlashSuccess, b.FullName+"'s booking has been accepted and added to the gallery.")
	redirect(c, pathDashboard)
}

// Deny denies booking {id} and returns to the dashboard.
func (h *Handlers) Deny(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		h.NotFoundPage(c)
		return
	}
	b, err := h.bookings.Deny(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	middleware.LoggerFrom(c).Info().Uint("booking_id", b.ID).Msg("booking denied")
	redirect(c, pathDashboard)
}

// bookingID parses the {id} path parameter. Non-numeric ids resolve to no
// booking.
func bookingID(c *gin.Context) (uint, bool) { return parseID(c.Param("id")) }

func parseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
