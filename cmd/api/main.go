package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sentrabank/sentra-api/internal/config"
	"github.com/sentrabank/sentra-api/internal/handler"
	"github.com/sentrabank/sentra-api/internal/logging"
	"github.com/sentrabank/sentra-api/internal/loginlimit"
	"github.com/sentrabank/sentra-api/internal/middleware"
	"github.com/sentrabank/sentra-api/internal/repository"
	"github.com/sentrabank/sentra-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("sentra-api", cfg.LogLevel, cfg.AppEnv)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := repository.NewPostgresDB(connectCtx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancelConnect()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := repository.NewDB(pool)
	accountRepo := repository.NewAccountRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	limiter := loginlimit.New(cfg.LoginMaxAttempts, time.Duration(cfg.LoginLockoutMin)*time.Minute)

	accountSvc := service.NewAccountService(db, accountRepo)
	userSvc := service.NewUserService(userRepo)
	authSvc := service.NewAuthService(userRepo, limiter, cfg.JWTSecret, time.Duration(cfg.JWTExpiryH)*time.Hour)

	accountH := handler.NewAccountHandler(accountSvc)
	userH := handler.NewUserHandler(userSvc)
	authH := handler.NewAuthHandler(authSvc)
	healthH := handler.NewHealthHandler(pool)

	requireAuth := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthH.Liveness)
	mux.HandleFunc("GET /health/ready", healthH.Readiness)
	mux.HandleFunc("POST /login", authH.Login)

	protected := map[string]http.HandlerFunc{
		"GET /accounts":                    accountH.List,
		"POST /accounts":                   accountH.Create,
		"GET /accounts/{id}":               accountH.Get,
		"DELETE /accounts/{id}":            accountH.Delete,
		"POST /accounts/{id}/transfer":     accountH.Transfer,
		"POST /accounts/{id}/topup":        accountH.Topup,
		"POST /accounts/{id}/change-pin":   accountH.ChangePin,
		"PUT /accounts/{id}/phone-number":  accountH.UpdatePhoneNumber,
		"GET /users":                       userH.List,
		"POST /users":                      userH.Create,
		"GET /users/{id}":                  userH.Get,
		"PUT /users/{id}":                  userH.Update,
		"DELETE /users/{id}":               userH.Delete,
		"POST /users/{id}/change-password": userH.ChangePassword,
	}
	for pattern, h := range protected {
		mux.Handle(pattern, requireAuth(h))
	}

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
