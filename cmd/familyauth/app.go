package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/andrekirst/familyauth/internal/db"
	"github.com/andrekirst/familyauth/internal/handlers"
	"github.com/andrekirst/familyauth/internal/logger"
	"github.com/andrekirst/familyauth/internal/repository/postgres"
	"github.com/andrekirst/familyauth/internal/service/auth"
	"github.com/andrekirst/familyauth/internal/service/auth/tokenmanager"
	"github.com/andrekirst/familyauth/internal/service/email"
	"github.com/andrekirst/familyauth/internal/service/password"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		Issuer:     c.TokenIssuer,
		Audience:   c.TokenAudience,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	}, storage.Refresh(), storage.User(), logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	hasher, err := password.NewHasher(password.DefaultHasherConfig())
	if err != nil {
		return nil, fmt.Errorf("error while creating hasher. Err: %w", err)
	}

	authService, err := auth.NewService(
		auth.Config{
			Lockout: auth.LockoutConfig{
				MaxFailedAttempts: c.MaxFailedAttempts,
				LockoutDuration:   c.LockoutDuration,
			},
		},
		tokenManager,
		hasher,
		password.NewPolicy(c.PasswordPolicy),
		storage,
		email.NewLogSender(logger),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	mux := handlers.NewRouter(authService, logger)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
