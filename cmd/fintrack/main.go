package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/backend/local"
	"fintrack/internal/backend/memory"
	"fintrack/internal/backend/rest"
	"fintrack/internal/config"
	"fintrack/internal/finance"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storage.RunMigrations(cfg.BlobDBPath); err != nil {
		logger.Error("Failed to run migrations", "error", err, "path", cfg.BlobDBPath)
		os.Exit(1)
	}

	blobs, err := storage.NewSQLiteBlobStore(cfg.BlobDBPath)
	if err != nil {
		logger.Error("Failed to open blob store", "error", err, "path", cfg.BlobDBPath)
		os.Exit(1)
	}
	defer blobs.Close()

	var (
		auth     backend.AuthProvider
		profiles backend.ProfileStore
	)
	switch cfg.AuthBackend {
	case "local":
		be, err := local.New(cfg.LocalAuthDBPath, cfg.JWTSecret)
		if err != nil {
			logger.Error("Failed to initialize local auth backend", "error", err, "path", cfg.LocalAuthDBPath)
			os.Exit(1)
		}
		defer be.Close()
		auth, profiles = be, be
	case "rest":
		be, err := rest.New(cfg.RestBaseURL, cfg.RestAPIKey, blobs)
		if err != nil {
			logger.Error("Failed to initialize rest auth backend", "error", err, "url", cfg.RestBaseURL)
			os.Exit(1)
		}
		auth, profiles = be, be
	default:
		be := memory.New()
		auth, profiles = be, be
	}
	logger.Info("Initialized auth backend", "backend", cfg.AuthBackend)

	// AMQP is optional; without it mutations simply skip the sync hint.
	var notifier finance.Notifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifier = amqpClient
		logger.Info("AMQP sync publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	fin, err := finance.NewStore(ctx, blobs, notifier)
	if err != nil {
		logger.Error("Failed to initialize finance store", "error", err)
		os.Exit(1)
	}

	sessions, err := session.New(ctx, auth, profiles)
	if err != nil {
		logger.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	srv := apphttp.NewServer(":"+cfg.Port, fin, sessions)
	srv.Handler = applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(srv.Handler)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.AuthBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
