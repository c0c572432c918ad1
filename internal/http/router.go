// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, templates, and route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging/redaction, panic
// recovery, metrics, compression, security headers, flash messages, sessions,
// and login throttling.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-art-booking/internal/auth"
	"github.com/tbourn/go-art-booking/internal/config"
	"github.com/tbourn/go-art-booking/internal/content"
	"github.com/tbourn/go-art-booking/internal/docs"
	"github.com/tbourn/go-art-booking/internal/http/handlers"
	"github.com/tbourn/go-art-booking/internal/http/middleware"
	"github.com/tbourn/go-art-booking/internal/services"
	"github.com/tbourn/go-art-booking/internal/storage"
	"github.com/tbourn/go-art-booking/internal/web"
)

// formBodyLimit caps non-upload form posts.
const formBodyLimit = 1 << 20

// RegisterRoutes attaches all middleware and endpoints to the given Gin
// engine: the server-rendered site, static and media files, health and
// metrics, swagger, and the read-only JSON API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Metrics
//  6. Gzip (not /metrics)
//  7. Security headers and CSP
//  8. Flash messages, then the session (so logout flashes survive)
//  9. RequestLogger: scoped logger carrying the user id
func RegisterRoutes(r *gin.Engine, db *gorm.DB, store storage.Store, about *content.About, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	// Dependency injection: services ← repo/db/store
	accounts := services.NewAccountService(db, auth.NewHasher(0))
	bookings := services.NewBookingService(db, store)
	bookings.Location = loc
	if cfg.Storage.MaxUploadBytes > 0 {
		bookings.MaxUploadBytes = cfg.Storage.MaxUploadBytes
	}
	gallery := &services.GalleryService{DB: db}
	sessions := auth.NewSessions(cfg.Session.Secret, cfg.Session.TTL)
	cookie := middleware.SessionCookie{
		Name:   cfg.Session.CookieName,
		TTL:    sessions.TTL(),
		Secure: cfg.Session.CookieSecure,
	}

	h := handlers.New(handlers.Options{
		Accounts:       accounts,
		Bookings:       bookings,
		Gallery:        gallery,
		Sessions:       sessions,
		Cookie:         cookie,
		About:          about,
		MediaURL:       store.URL,
		Location:       loc,
		MaxUploadBytes: bookings.MaxUploadBytes,
	})

	r.SetHTMLTemplate(web.MustTemplates(web.Funcs{MediaURL: store.URL, Location: loc}))

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		SkipPaths: []string{"/health", "/metrics"},
	}))

	// 4) Panic recovery: JSON under the API prefix, error page elsewhere
	r.Use(middleware.Recovery(middleware.RecoveryOptions{
		APIPrefix: cfg.APIBasePath,
		HTML:      h.InternalErrorPage,
	}))

	// 5) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 6) Compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:            cfg.Security.EnableHSTS,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		EnablePolicy:          true,
		ContentSecurityPolicy: middleware.DefaultContentSecurityPolicy,
		SkipCSPPrefixes:       []string{"/swagger/"},
	}))

	// 8) Flash messages and the signed-in user
	r.Use(middleware.Flash())
	r.Use(middleware.Session(middleware.SessionOptions{
		Cookie: cookie,
		Parse:  sessions.Parse,
		Lookup: accounts.Get,
	}))

	// 9) Per-request logger with user id
	r.Use(middleware.RequestLogger())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		if isAPI(c, cfg.APIBasePath) {
			handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
			return
		}
		h.NotFoundPage(c)
	})
	r.NoMethod(func(c *gin.Context) {
		if isAPI(c, cfg.APIBasePath) {
			handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
			return
		}
		h.ErrorPage(c, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Static assets and locally stored media
	r.StaticFS("/static", web.Static())
	if cfg.Storage.Backend == "local" && strings.HasPrefix(cfg.Storage.MediaURL, "/") {
		r.Static(strings.TrimSuffix(cfg.Storage.MediaURL, "/"), cfg.Storage.MediaRoot)
	}

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Login throttling per client IP; rejected attempts bounce back to the form
	limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	limiter.OnLimit = h.RateLimited
	throttle := limiter.Handler()

	login := middleware.RequireLogin("/login/")
	small := limitBody(formBodyLimit)

	// Site
	r.GET("/", h.Root)
	r.GET("/about/", h.About)
	r.GET("/login/", h.LoginPage)
	r.POST("/login/", throttle, small, h.Login)
	r.GET("/signup/", h.SignupPage)
	r.POST("/signup/", throttle, small, h.Signup)
	r.POST("/logout/", login, small, h.Logout)

	r.GET("/book/", login, h.BookPage)
	r.POST("/book/", h.Book)
	r.GET("/gallery/", login, h.Gallery)

	r.GET("/admin-dashboard/", login, h.Dashboard)
	r.GET("/admin_gallery/", login, h.AdminGallery)
	r.POST("/accept/:id/", login, small, h.Accept)
	r.POST("/deny/:id/", login, small, h.Deny)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(apiCORS(cfg.CORS))
	{
		api.GET("/gallery", h.ListGallery)
		api.OPTIONS("/gallery", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}
}

// apiCORS returns the CORS middleware for the JSON API: every origin when
// none are configured, the configured list otherwise.
func apiCORS(cc config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Accept", "If-None-Match"},
		ExposeHeaders: []string{"X-Request-ID", "ETag", "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cc.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cc.AllowedOrigins
	}
	return cors.New(c)
}

// isAPI reports whether the request path falls under the API prefix.
func isAPI(c *gin.Context, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return false
	}
	p := c.Request.URL.Path
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// limitBody returns a Gin middleware that caps the request body size to
// maxBytes using http.MaxBytesReader. Requests exceeding the cap cause
// downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
