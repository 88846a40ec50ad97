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

	"precisionpulse/config"
	"precisionpulse/controller"
	"precisionpulse/database"
	"precisionpulse/handlers"
	"precisionpulse/logger"
	"precisionpulse/middleware"
	"precisionpulse/mirror"
	"precisionpulse/notify"
	"precisionpulse/policy"
	"precisionpulse/storage"
	"precisionpulse/store"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "precisionpulse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "precisionpulse")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Initialize JWT secret
	middleware.SetJWTSecret(cfg.JWTSecret)

	// Initialize database
	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	st := store.New(db)
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.SeedDefaultAdmin(ctx, st, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	mirr := mirror.New(mirror.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), "precisionpulse", log)
	if !mirr.Enabled() {
		log.Warn("redis mirror disabled, lists will not fall back to a cached copy")
	}

	files, err := storage.NewLocal(cfg.StorageDir, cfg.JWTSecret, log)
	if err != nil {
		return err
	}

	sender, err := notify.NewSender(cfg, log)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(sender, log)
	defer dispatcher.Close()

	services := controller.NewServices(controller.Deps{
		Store:     st,
		Policy:    policy.New(),
		Mirror:    mirr,
		Snapshots: mirr,
		Files:     files,
		Notifier:  dispatcher,
		URLTTL:    cfg.SignedURLTTL,
		Logger:    log,
	})

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:   cfg,
		Services: services,
		Files:    files,
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, st)
		},
		Logger: log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.ServerPort))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
