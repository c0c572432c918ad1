// @title       Art Booking API
// @version     1.0
// @description Read-only access to the studio's published gallery.
// @BasePath    /api/v1

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-art-booking/internal/auth"
	"github.com/tbourn/go-art-booking/internal/config"
	"github.com/tbourn/go-art-booking/internal/content"
	httpapi "github.com/tbourn/go-art-booking/internal/http"
	"github.com/tbourn/go-art-booking/internal/observability"
	"github.com/tbourn/go-art-booking/internal/repo"
	"github.com/tbourn/go-art-booking/internal/services"
	"github.com/tbourn/go-art-booking/internal/storage"
	"github.com/tbourn/go-art-booking/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	sysutil.SetupLogging(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, observability.BuildInfo{
		Version:     sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version),
		Environment: cfg.GinMode,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer flushOTel(shutdownOTel, cfg.ShutdownTimeout)

	db, err := repo.Open(cfg.DB.Driver, cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeDB(db)
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	store, err := storage.New(storage.Options{
		Backend:     cfg.Storage.Backend,
		MediaRoot:   cfg.Storage.MediaRoot,
		MediaURL:    cfg.Storage.MediaURL,
		SupabaseURL: cfg.Storage.SupabaseURL,
		SupabaseKey: cfg.Storage.SupabaseKey,
		Bucket:      cfg.Storage.SupabaseBucket,
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	about, err := content.LoadAbout(cfg.AboutPath)
	if err != nil {
		return err
	}

	if cfg.Admin.Enabled() {
		accounts := services.NewAccountService(db, auth.NewHasher(0))
		u, created, err := accounts.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info().Uint("user_id", u.ID).Bool("created", created).Msg("administrator ready")
	}

	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}
	httpapi.RegisterRoutes(r, db, store, about, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db", cfg.DB.Driver).
			Str("storage", cfg.Storage.Backend).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("server stopped")
	return nil
}

// flushOTel exports buffered spans on every exit path of run.
func flushOTel(shutdown func(context.Context) error, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("close database")
	}
}
