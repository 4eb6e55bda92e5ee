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

	"github.com/lysyi3m/anp-comb/app/api"
	"github.com/lysyi3m/anp-comb/app/cfg"
	"github.com/lysyi3m/anp-comb/app/database"
	"github.com/lysyi3m/anp-comb/app/formatter"
	"github.com/lysyi3m/anp-comb/app/ingest"
	"github.com/lysyi3m/anp-comb/app/media"
	"github.com/lysyi3m/anp-comb/app/newsapi"
	"github.com/lysyi3m/anp-comb/app/photo"
	"github.com/lysyi3m/anp-comb/app/search"
	"github.com/lysyi3m/anp-comb/app/tasks"
	"github.com/lysyi3m/anp-comb/app/validate"
	"github.com/lysyi3m/anp-comb/app/video"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if c == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting ANP Comb server", "version", c.Version)

	db, err := database.NewConnection(c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	providerRepo := database.NewProviderRepository(db)
	cursorRepo := database.NewCursorRepository(db)
	itemRepo := database.NewItemRepository(db)
	vocabularyRepo := database.NewVocabularyRepository(db)
	profileRepo := database.NewProfileRepository(db)

	if err := vocabularyRepo.SeedVocabularies(c.VocabulariesFile); err != nil {
		slog.Warn("Failed to seed vocabularies", "file", c.VocabulariesFile, "error", err)
	}

	if _, err := profileRepo.EnsureProfile(validate.VideoProfileLabel); err != nil {
		slog.Error("Failed to ensure video content profile", "error", err)
		os.Exit(1)
	}

	mediaService := media.NewService(c.MediaDir, c.BaseUrl)

	ingest.RegisterFeedingService(newsapi.Name, func(provider *ingest.Config) ingest.FeedingService {
		return newsapi.NewFeedingService(provider, vocabularyRepo, mediaService)
	})

	configCache := ingest.NewConfigCache(c.ProvidersDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load provider configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Provider configurations loaded", "count", configCache.GetConfigCount())

	if c.PhotoAPIURL != "" {
		photoProvider, err := photo.NewProvider(c.PhotoAPIURL, c.PhotoAPIKey, mediaService, mediaService)
		if err != nil {
			slog.Error("Failed to initialize photo search provider", "error", err)
			os.Exit(1)
		}
		search.RegisterProvider(photo.Name, photoProvider)
	}
	if c.VideoAPIURL != "" {
		search.RegisterProvider(video.Name, video.NewProvider(c.VideoAPIURL))
	}
	slog.Info("Search providers registered", "providers", search.RegisteredProviders())

	validateBus := validate.NewBus()
	validateBus.Connect(validate.NewVideoThumbnailRule(profileRepo))

	scheduler := tasks.NewScheduler(configCache, providerRepo, cursorRepo, itemRepo)
	scheduler.Start()
	defer scheduler.Stop()

	formatter.RegisterFormatter(formatter.NewNINJSFormatter())

	apiHandler := api.NewHandler(configCache, providerRepo, itemRepo,
		mediaService, validateBus, scheduler)
	server := api.NewServer(apiHandler, c.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
