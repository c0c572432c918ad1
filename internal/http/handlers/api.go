package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-art-booking/internal/domain"
	"github.com/tbourn/go-art-booking/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// GalleryItem is the public view of a gallery entry. Contact details and
// payment references are never exposed.
type GalleryItem struct {
	ID           uint      `json:"id" example:"12"`
	ClientName   string    `json:"client_name" example:"Ana Cruz"`
	ArtURL       string    `json:"art_url,omitempty" example:"/media/artworks/0b9d2c2e-6a43-4bb3-9d6e-2f1f8b3c4d5e.png"`
	DateUploaded time.Time `json:"date_uploaded"`
}

// ListGalleryResponse wraps a page of gallery items.
type ListGalleryResponse struct {
	Entries    []GalleryItem `json:"entries"`
	Pagination Pagination    `json:"pagination"`
}

// clampPagination bounds page and page_size to sane defaults and limits.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// ListGallery godoc
// @ID          listGallery
// @Summary     List gallery entries (paginated)
// @Description Returns published pieces, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Gallery
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"gallery:3:1700000000\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListGalleryResponse
// @Header      200  {string} ETag  "Weak ETag for the current gallery"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /gallery [get]
func (h *Handlers) ListGallery(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.gallery.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"gallery:%d:%d:%d:%d"`, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.gallery.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list gallery")
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListGalleryResponse{
		Entries: h.galleryItems(items),
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

func (h *Handlers) galleryItems(entries []domain.GalleryEntry) []GalleryItem {
	out := make([]GalleryItem, 0, len(entries))
	for _, e := range entries {
		it := GalleryItem{ID: e.ID, ClientName: e.ClientName, DateUploaded: e.CreatedAt}
		if e.Art != "" {
			it.ArtURL = h.mediaURL(e.Art)
		}
		out = append(out, it)
	}
	return out
}
