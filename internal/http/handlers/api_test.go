package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-art-booking/internal/domain"
)

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		q          string
		page, size int
	}{
		{"", 1, 20},
		{"?page=0&page_size=0", 1, 1},
		{"?page=3&page_size=500", 3, 100},
		{"?page=x&page_size=y", 1, 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/gallery"+tc.q, nil)
		p, s := clampPagination(c)
		if p != tc.page || s != tc.size {
			t.Fatalf("%q: got (%d,%d) want (%d,%d)", tc.q, p, s, tc.page, tc.size)
		}
	}
}

func TestListGallery_PageAndETag(t *testing.T) {
	f := newFixture()
	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	contact := "0917"
	f.gallery.statsFn = func(context.Context) (int64, *time.Time, error) { return 3, &ts, nil }
	f.gallery.listPageFn = func(_ context.Context, page, size int) ([]domain.GalleryEntry, int64, error) {
		if page != 2 || size != 2 {
			t.Fatalf("page=%d size=%d", page, size)
		}
		return []domain.GalleryEntry{
			{ID: 1, ClientName: "Ana", Contact: &contact, Art: "artworks/a.png", Reference: "references/r.png", CreatedAt: ts},
		}, 3, nil
	}
	r := f.router(t, nil)

	w := do(r, http.MethodGet, "/api/v1/gallery?page=2&page_size=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("json: %v", err)
	}
	entries := raw["entries"].([]any)
	first := entries[0].(map[string]any)
	if first["art_url"] != "/media/artworks/a.png" || first["client_name"] != "Ana" {
		t.Fatalf("entry = %v", first)
	}
	if _, leaked := first["contact"]; leaked {
		t.Fatalf("contact must not be exposed")
	}
	if _, leaked := first["reference"]; leaked {
		t.Fatalf("reference must not be exposed")
	}
	pg := raw["pagination"].(map[string]any)
	if pg["total"].(float64) != 3 || pg["total_pages"].(float64) != 2 || pg["has_next"].(bool) {
		t.Fatalf("pagination = %v", pg)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gallery?page=2&page_size=2", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional GET = %d", w.Code)
	}
}

func TestListGallery_EmptyAndErrors(t *testing.T) {
	f := newFixture()
	w := do(f.router(t, nil), http.MethodGet, "/api/v1/gallery", nil)
	if w.Code != http.StatusOK || w.Header().Get("ETag") != "" {
		t.Fatalf("empty: %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
	var resp ListGalleryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Entries == nil || len(resp.Entries) != 0 {
		t.Fatalf("resp = %+v err=%v", resp, err)
	}

	f.gallery.listPageFn = func(context.Context, int, int) ([]domain.GalleryEntry, int64, error) {
		return nil, 0, errors.New("db down")
	}
	w = do(f.router(t, nil), http.MethodGet, "/api/v1/gallery", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeListFailed {
		t.Fatalf("error body = %+v err=%v", er, err)
	}
}
