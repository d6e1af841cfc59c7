package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"planroom/api/internal/app"
	"planroom/api/internal/board"
	"planroom/api/internal/config"
	"planroom/api/internal/folders"
	"planroom/api/internal/lock"
	"planroom/api/internal/search"
	"planroom/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	drive, err := folders.NewMinioDrive(ctx, folders.MinioConfig{
		Endpoint:  cfg.DriveEndpoint,
		AccessKey: cfg.DriveAccessKey,
		SecretKey: cfg.DriveSecretKey,
		Bucket:    cfg.DriveBucket,
		UseSSL:    cfg.DriveUseSSL,
		OwnerID:   cfg.DriveOwnerID,
	})
	if err != nil {
		log.Fatalf("drive connection failed: %v", err)
	}
	folderManager := folders.NewManager(drive)

	locks, err := lock.NewScopeLock(cfg.RedisURL, cfg.BoardLockTTL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer locks.Close()

	boardClient := board.NewHTTPClient(cfg.BoardGatewayURL)
	synchronizer := board.NewSynchronizer(boardClient, locks, cfg.BoardSheet)

	pgSearch := search.NewPgSearch(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgSearch)

	service := app.New(cfg, dataStore, folderManager, synchronizer, searchService)

	httpServer := app.NewHTTPServer(service, searchService, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Planroom API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
