package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"user-auth-service/internal/config"
	"user-auth-service/internal/database"
	"user-auth-service/internal/handler"
	"user-auth-service/internal/middleware"
	"user-auth-service/internal/repository"
	"user-auth-service/internal/router"
	"user-auth-service/internal/security"
	"user-auth-service/internal/service"
)

type App struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	server *http.Server
	auth   *service.AuthService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	userRepo := repository.NewUserRepository(pool)
	tokenStore := repository.NewPostgresTokenStore(pool)

	hasher, err := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		pool.Close()
		return nil, err
	}
	signer, err := security.NewTokenSigner(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL)
	if err != nil {
		pool.Close()
		return nil, err
	}

	authSvc, err := service.NewAuthService(userRepo, tokenStore, hasher, signer, cfg.Auth.RefreshTTL)
	if err != nil {
		pool.Close()
		return nil, err
	}
	rotationSvc, err := service.NewRotationService(tokenStore, userRepo, signer, cfg.Auth.RefreshTTL)
	if err != nil {
		pool.Close()
		return nil, err
	}
	userSvc, err := service.NewUserService(userRepo, tokenStore, hasher)
	if err != nil {
		pool.Close()
		return nil, err
	}

	mux := router.New(router.Dependencies{
		Auth:           handler.NewAuthHandler(authSvc, rotationSvc, userSvc),
		Users:          handler.NewUserHandler(userSvc),
		Guard:          middleware.NewAuthMiddleware(signer),
		CORSOrigins:    cfg.CORS.Origins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{cfg: cfg, pool: pool, server: server, auth: authSvc}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.runCleanup(janitorCtx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.pool.Close()
	return nil
}

// runCleanup periodically deletes refresh tokens that expired long enough
// ago that reuse detection no longer needs them.
func (a *App) runCleanup(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Auth.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := a.auth.CleanupExpired(ctx)
			if err != nil {
				slog.Warn("token cleanup failed", "error", err.Error())
				continue
			}
			if deleted > 0 {
				slog.Info("expired tokens cleaned up", "deleted", deleted)
			}
		}
	}
}
