package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azure/discussion-insights/internal/config"
	"github.com/azure/discussion-insights/internal/entities"
	"github.com/azure/discussion-insights/internal/notifications"
	"github.com/azure/discussion-insights/internal/pipeline"
	"github.com/azure/discussion-insights/internal/scheduler"
	"github.com/azure/discussion-insights/internal/sentiment"
	"github.com/azure/discussion-insights/internal/sources"
	"github.com/azure/discussion-insights/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Discussion Insights analyzer")

	// Initialize storage
	storageClient, err := newStorage(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize notification services
	notificationService := notifications.NewService(cfg)
	if !notificationService.Enabled() {
		logrus.Warn("No Teams webhook or email configured, reports will only be stored")
	}

	srcs, err := newSources(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize sources: %v", err)
	}

	// The scorer and tagger are shared by every source pipeline
	scorer := sentiment.NewLimitedScorer(sentiment.NewVaderScorer(true), cfg.ScorerRPS, cfg.CommentWorkers)
	tagger := entities.NewLimitedTagger(entities.NewHeuristicTagger(), cfg.TaggerRPS, cfg.CommentWorkers)
	analyzer := sentiment.NewAnalyzer(scorer, cfg.CommentWorkers)
	extractor := entities.NewExtractor(tagger, analyzer, cfg.ContextWindow, cfg.MinEntityConfidence)

	pipelineService := pipeline.NewService(cfg, srcs, analyzer, extractor, storageClient, notificationService)

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, pipelineService)

	// Start scheduler
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()
	logrus.Infof("Next scheduled analysis at %s", schedulerService.Next().Format(time.RFC3339))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      newRouter(cfg, pipelineService),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RunTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// newStorage uses Azure Blob Storage when an account is configured and a local directory otherwise
func newStorage(cfg *config.Config) (storage.StorageInterface, error) {
	if cfg.StorageAccount != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
	}

	logrus.Infof("No storage account configured, storing results in %s", cfg.LocalStorageDir)
	return storage.NewLocalStorage(cfg.LocalStorageDir)
}

func newSources(cfg *config.Config) ([]sources.Source, error) {
	srcs := []sources.Source{
		sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret,
			sources.WithRedditUserAgent(cfg.RedditUserAgent),
			sources.WithRequestsPerMinute(cfg.RedditRequestsPerMinute),
		),
		sources.NewHackerNewsSource(),
	}

	if cfg.FixturePath != "" {
		static, err := sources.LoadFixture(cfg.FixturePath)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, static)
	}

	for _, src := range srcs {
		if !src.IsEnabled() {
			logrus.Warnf("Source %s is disabled", src.GetName())
		}
	}
	return srcs, nil
}
