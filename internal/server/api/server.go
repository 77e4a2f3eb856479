// Package api exposes the vault over HTTP using gin.
//
// All routes live under /api/v1. Callers identify themselves with the
// opaque user secret, passed as the "secret" query parameter (or in the
// body/path for the two routes that predate that convention).
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/otpx"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/server/services"
	"github.com/dmitrijs2005/passvault/internal/vault"
	"github.com/gin-gonic/gin"
)

// UserService is implemented by services.UserService.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, secret string) (*models.User, error)
	Unlock(ctx context.Context, secret, password string) (*models.User, error)
	Update(ctx context.Context, secret string, p services.UserPatch) (*models.User, error)
}

// EntryService is implemented by services.EntryService.
type EntryService interface {
	List(ctx context.Context, userID string) ([]services.ListItem, error)
	Create(ctx context.Context, userID string, d vault.Draft) (vault.View, error)
	Get(ctx context.Context, userID, id string) (vault.View, error)
	Update(ctx context.Context, userID, id string, p vault.Patch) (vault.View, error)
	Delete(ctx context.Context, userID, id string) error
	Code(ctx context.Context, userID, id string) (otpx.Code, bool, error)
	LogoUploadURL(ctx context.Context, userID, id string) (key, url string, err error)
	LogoURL(ctx context.Context, userID, id string) (string, error)
}

type Server struct {
	address         string
	users           UserService
	entries         EntryService
	logger          logging.Logger
	shutdownTimeout time.Duration
	router          *gin.Engine
}

func NewServer(a string, l logging.Logger, us UserService, es EntryService, shutdownTimeout time.Duration) *Server {
	s := &Server{
		address:         a,
		logger:          l.With("module", "http_server"),
		users:           us,
		entries:         es,
		shutdownTimeout: shutdownTimeout,
	}
	s.router = s.routes()
	return s
}

// Handler returns the configured gin engine.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.requestLogger())

	r.GET("/healthz", s.healthz)

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("", s.login)
	auth.POST("/register", s.register)
	auth.PATCH("/profile", s.updateProfile)

	pw := v1.Group("/passwords")
	pw.POST("/get-all", s.listEntries)
	pw.GET("/user/totp/:secret/:id", s.totpCode)

	owned := pw.Group("", s.requireSecret())
	owned.POST("", s.createEntry)
	owned.GET("/:id", s.getEntry)
	owned.PATCH("/:id", s.updateEntry)
	owned.DELETE("/:id", s.deleteEntry)
	owned.POST("/:id/logo", s.logoUploadURL)
	owned.GET("/:id/logo", s.logoURL)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
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

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
