package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/bidboard-backend/internal/config"
	"github.com/shinyyama/bidboard-backend/internal/db"
	appmw "github.com/shinyyama/bidboard-backend/internal/middleware"
	"github.com/shinyyama/bidboard-backend/internal/server"
	"github.com/shinyyama/bidboard-backend/internal/storage"
)

// set via -ldflags at build time
var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authMw, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
	if err != nil {
		log.Fatalf("auth init error: %v", err)
	}

	opts := server.Options{
		SHA:                   gitSHA,
		BuildTime:             buildTime,
		Auth:                  authMw,
		AllowedOriginSuffixes: cfg.AllowedOriginSuffixes,
		RealtimeBuffer:        cfg.RealtimeBuffer,
		MaxUploadBytes:        cfg.MaxUploadBytes,
	}
	if client := authMw.Client(); client != nil {
		opts.Users = client
	}
	if cfg.StorageBucket != "" {
		store, err := storage.NewGCSStore(ctx, cfg.StorageBucket, cfg.CredentialsFile)
		if err != nil {
			log.Printf("storage init error, uploads disabled: %v", err)
		} else {
			defer store.Close()
			opts.Store = store
		}
	}

	// Listen before the database is reachable; repositories answer
	// ErrDBNotReady until SetDB runs.
	srv := server.New(nil, opts)
	addr := ":" + cfg.Port

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			log.Printf("db connect error: %v", err)
			return
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(conn); err != nil {
				log.Printf("auto migrate error: %v", err)
				return
			}
		}
		srv.SetDB(conn)
		log.Printf("database ready driver=%s", cfg.DBDriver)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}
