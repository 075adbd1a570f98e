package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/auth"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/config"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/content"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/httpapi"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/obs"
)

var version = "0.3.0"

func main() {
	obs.Init()
	cfg := config.Load()

	if cfg.AuthSecret == "" {
		log.Fatal("AUTH_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	tokens, err := auth.NewTokenIssuer(cfg.AuthSecret,
		auth.WithIssuer(cfg.TokenIssuer),
		auth.WithAudience(cfg.TokenAudience),
		auth.WithAccessTTL(cfg.AccessTokenTTL),
		auth.WithRefreshTTL(cfg.RefreshTokenTTL),
		auth.WithRememberTTL(cfg.RememberMeTTL),
	)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	authSvc, err := auth.NewService(auth.NewPGStore(db), tokens)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := authSvc.EnsureBuiltins(seedCtx); err != nil {
		cancelSeed()
		log.Fatalf("seed roles: %v", err)
	}
	cancelSeed()

	api := httpapi.New(authSvc, content.NewPGStore(db), httpapi.ReadyProbe{DB: db}, version, &httpapi.Options{
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerSec: cfg.RateLimitPerSec,
		MaxBodyBytes:    cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting boxuemingti-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
