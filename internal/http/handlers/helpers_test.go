package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-art-booking/internal/content"
	"github.com/tbourn/go-art-booking/internal/domain"
	"github.com/tbourn/go-art-booking/internal/http/middleware"
	"github.com/tbourn/go-art-booking/internal/services"
	"github.com/tbourn/go-art-booking/internal/web"
)

// ---- stubs ----

type stubAccounts struct {
	signupFn func(ctx context.Context, in services.SignupInput) (*domain.User, error)
	loginFn  func(ctx context.Context, usernameOrEmail, password string) (*domain.User, error)
}

func (s *stubAccounts) Signup(ctx context.Context, in services.SignupInput) (*domain.User, error) {
	if s.signupFn != nil {
		return s.signupFn(ctx, in)
	}
	return &domain.User{ID: 1}, nil
}

func (s *stubAccounts) Login(ctx context.Context, u, p string) (*domain.User, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, u, p)
	}
	return nil, services.ErrUnauthorized
}

type stubBookings struct {
	submitFn func(ctx context.Context, actor *domain.User, in services.BookingInput) (*domain.Booking, error)
	acceptFn func(ctx context.Context, actor *domain.User, id uint) (*domain.Booking, error)
	denyFn   func(ctx context.Context, actor *domain.User, id uint) (*domain.Booking, error)
	listFn   func(ctx context.Context, actor *domain.User, opts services.ListOptions) ([]domain.Booking, error)
	latestFn func(ctx context.Context, actor *domain.User) (*domain.Booking, error)
}

func (s *stubBookings) Submit(ctx context.Context, a *domain.User, in services.BookingInput) (*domain.Booking, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, a, in)
	}
	return &domain.Booking{ID: 1}, nil
}

func (s *stubBookings) Accept(ctx context.Context, a *domain.User, id uint) (*domain.Booking, error) {
	if s.acceptFn != nil {
		return s.acceptFn(ctx, a, id)
	}
	return &domain.Booking{ID: id, Status: domain.StatusAccepted}, nil
}

func (s *stubBookings) Deny(ctx context.Context, a *domain.User, id uint) (*domain.Booking, error) {
	if s.denyFn != nil {
		return s.denyFn(ctx, a, id)
	}
	return &domain.Booking{ID: id, Status: domain.StatusDenied}, nil
}

func (s *stubBookings) List(ctx context.Context, a *domain.User, o services.ListOptions) ([]domain.Booking, error) {
	if s.listFn != nil {
		return s.listFn(ctx, a, o)
	}
	return nil, nil
}

func (s *stubBookings) Latest(ctx context.Context, a *domain.User) (*domain.Booking, error) {
	if s.latestFn != nil {
		return s.latestFn(ctx, a)
	}
	return nil, nil
}

type stubGallery struct {
	listFn     func(ctx context.Context) ([]domain.GalleryEntry, error)
	listPageFn func(ctx context.Context, page, pageSize int) ([]domain.GalleryEntry, int64, error)
	statsFn    func(ctx context.Context) (int64, *time.Time, error)
}

func (s *stubGallery) List(ctx context.Context) ([]domain.GalleryEntry, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubGallery) ListPage(ctx context.Context, page, pageSize int) ([]domain.GalleryEntry, int64, error) {
	if s.listPageFn != nil {
		return s.listPageFn(ctx, page, pageSize)
	}
	return []domain.GalleryEntry{}, 0, nil
}

func (s *stubGallery) Stats(ctx context.Context) (int64, *time.Time, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx)
	}
	return 0, nil, errors.New("no stats")
}

type stubSessions struct{ err error }

func (s stubSessions) Issue(id uint) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("tok-%d", id), nil
}

// ---- fixtures ----

var (
	admin    = &domain.User{ID: 1, Username: "admin", FirstName: "Trish", Role: domain.RoleAdmin, IsActive: true}
	customer = &domain.User{ID: 2, Username: "ana@example.com", Email: "ana@example.com", FirstName: "Ana", LastName: "Cruz", Role: domain.RoleCustomer, IsActive: true}
)

type fixture struct {
	accounts *stubAccounts
	bookings *stubBookings
	gallery  *stubGallery
	sessions stubSessions
}

func newFixture() *fixture {
	return &fixture{accounts: &stubAccounts{}, bookings: &stubBookings{}, gallery: &stubGallery{}}
}

func (f *fixture) handlers() *Handlers {
	return New(Options{
		Accounts:       f.accounts,
		Bookings:       f.bookings,
		Gallery:        f.gallery,
		Sessions:       f.sessions,
		Cookie:         middleware.SessionCookie{Name: "session", TTL: time.Hour},
		About:          &content.About{Name: "Test Studio", Styles: []string{"Linework", "Realism"}},
		MediaURL:       func(k string) string { return "/media/" + k },
		MaxUploadBytes: 1 << 10,
	})
}

// router mounts every page handler with the given signed-in user (nil for
// anonymous).
func (f *fixture) router(t *testing.T, as *domain.User) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := f.handlers()

	r := gin.New()
	r.SetHTMLTemplate(web.MustTemplates(web.Funcs{MediaURL: func(k string) string { return "/media/" + k }}))
	r.Use(middleware.Flash())
	r.Use(func(c *gin.Context) {
		if as != nil {
			middleware.SetCurrentUser(c, as)
		}
		c.Next()
	})
	r.GET("/", h.Root)
	r.GET("/about/", h.About)
	r.GET("/login/", h.LoginPage)
	r.POST("/login/", h.Login)
	r.GET("/signup/", h.SignupPage)
	r.POST("/signup/", h.Signup)
	r.POST("/logout/", h.Logout)
	r.GET("/book/", h.BookPage)
	r.POST("/book/", h.Book)
	r.GET("/gallery/", h.Gallery)
	r.GET("/admin-dashboard/", h.Dashboard)
	r.GET("/admin_gallery/", h.AdminGallery)
	r.POST("/accept/:id/", h.Accept)
	r.POST("/deny/:id/", h.Deny)
	r.GET("/api/v1/gallery", h.ListGallery)
	r.NoRoute(h.NotFoundPage)
	return r
}

func do(r http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// multipartBody builds a booking form with optional files (field -> bytes).
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("field: %v", err)
		}
	}
	for k, data := range files {
		fw, err := mw.CreateFormFile(k, k+".png")
		if err != nil {
			t.Fatalf("file: %v", err)
		}
		_, _ = fw.Write(data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// flashTexts decodes the flash cookie set on a response.
func flashTexts(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var ck *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "flash" && c.Value != "" {
			ck = c
		}
	}
	if ck == nil {
		return nil
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Flash())
	var out []string
	r.GET("/", func(c *gin.Context) {
		for _, m := range middleware.Flashes(c) {
			out = append(out, m.Text)
		}
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(ck)
	r.ServeHTTP(httptest.NewRecorder(), req)
	return out
}

func containsText(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
