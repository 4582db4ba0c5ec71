package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/blobstore"
	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/config"
	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/fetcher"
	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/handler"
	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/inference"
	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/repository"
	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Deepfake Detection Service...")

	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Initialize blob store
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	blobs, err := blobstore.NewMinioStore(ctx, blobstore.Config{
		Endpoint:  cfg.BlobStore.Endpoint,
		AccessKey: cfg.BlobStore.AccessKey,
		SecretKey: cfg.BlobStore.SecretKey,
		Bucket:    cfg.BlobStore.Bucket,
		UseSSL:    cfg.BlobStore.UseSSL,
	}, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize blob store", zap.Error(err))
	}

	// Initialize record store
	var repo *repository.DetectionRepository
	switch cfg.RecordStore.Type {
	case "postgres":
		repo, err = repository.NewPostgres(cfg.RecordStore.URL, logger)
	default:
		os.MkdirAll("./data", 0755)
		repo, err = repository.NewSQLite(cfg.RecordStore.Path, logger)
	}
	if err != nil {
		logger.Fatal("Failed to initialize record store", zap.Error(err))
	}
	defer repo.Close()

	// Initialize image fetcher
	imageFetcher := fetcher.New(fetcher.Config{
		Timeout:  time.Duration(cfg.Fetcher.TimeoutSeconds) * time.Second,
		MaxBytes: cfg.Fetcher.MaxBytes,
	}, logger)

	// Initialize inference client
	classifier, err := inference.NewClient(inference.Config{
		URL:          cfg.Inference.URL,
		AuthToken:    cfg.Inference.AuthToken,
		ModelName:    cfg.Inference.ModelName,
		ModelVersion: cfg.Inference.ModelVersion,
		Timeout:      time.Duration(cfg.Inference.TimeoutSeconds) * time.Second,
		MaxRetries:   cfg.Inference.MaxRetries,
		RetryDelay:   time.Duration(cfg.Inference.RetryDelaySeconds) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize inference client", zap.Error(err))
	}

	// Initialize detection pipeline
	detector := service.NewDetector(imageFetcher, blobs, classifier, repo, service.Config{
		KeyPrefix:      cfg.BlobStore.KeyPrefix,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
	}, logger)

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(detector, repo, blobs, cfg.BlobStore.KeyPrefix, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	apiHandler.RegisterRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", serverAddr))

	// Graceful shutdown
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Deepfake Detection Service is running",
		zap.String("port", cfg.Server.Port),
		zap.String("model", cfg.Inference.ModelName),
		zap.String("model_version", cfg.Inference.ModelVersion))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
