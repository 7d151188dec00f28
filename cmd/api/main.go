package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/clipquery/clipquery/internal/api"
	"github.com/clipquery/clipquery/internal/api/handler"
	"github.com/clipquery/clipquery/internal/api/middleware"
	"github.com/clipquery/clipquery/internal/config"
	"github.com/clipquery/clipquery/internal/index"
	"github.com/clipquery/clipquery/internal/logger"
	"github.com/clipquery/clipquery/internal/media"
	"github.com/clipquery/clipquery/internal/pipeline"
	"github.com/clipquery/clipquery/internal/repository"
	"github.com/clipquery/clipquery/internal/scene"
	"github.com/clipquery/clipquery/internal/segment"
	"github.com/clipquery/clipquery/internal/service"
	"github.com/clipquery/clipquery/internal/storage"
)

func main() {
	// CONFIG_PATH selects the config file for production deployments.
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	log := logger.NewFromEnv(logger.LoadFromEnv())
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	videoRepo := repository.NewVideoRepository(db)
	jobRepo := repository.NewJobRepository(db)

	qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: cfg.Embedding.Dimensions,
	})
	if err != nil {
		logger.Fatal("Failed to initialize Qdrant repository: %v", err)
	}
	defer qdrantRepo.Close()

	ctx := context.Background()
	if err := qdrantRepo.EnsureCollection(ctx); err != nil {
		logger.Fatal("Failed to ensure Qdrant collection: %v", err)
	}

	embeddingService := service.NewEmbeddingService(&cfg.Embedding)
	indexer := index.New(embeddingService, qdrantRepo, cfg.Pipeline.IndexWorkers, log)

	tools := media.NewTools()

	segmenter := segment.New(tools, cfg.Pipeline.ChunkSeconds, cfg.Pipeline.FrameIntervalSeconds)
	describer := scene.NewDescriber(
		service.NewTranscriptionService(&cfg.Transcriber),
		service.NewCaptionService(&cfg.Captioner),
		cfg.Pipeline.FrameIntervalSeconds,
		cfg.Pipeline.DescribeWorkers,
		log,
	)
	summarizer := scene.NewSummarizer(service.NewSummarizationService(&cfg.Summarizer), log)

	pipe := pipeline.New(pipeline.Config{
		Segmenter:    segmenter,
		Describer:    describer,
		Summarizer:   summarizer,
		Indexer:      indexer,
		Videos:       videoRepo,
		Jobs:         jobRepo,
		DataRoot:     cfg.Pipeline.DataRoot,
		StageTimeout: cfg.Pipeline.StageTimeout,
		Logger:       log,
	})

	var runner handler.PipelineRunner = pipe
	if cfg.Storage.Enabled {
		objectStorage, err := storage.NewStorage(&storage.S3Config{
			Type:      storage.StorageType(cfg.Storage.Type),
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage: %v", err)
		}
		videoStore := storage.NewVideoStore(objectStorage)
		runner = pipeline.NewRemoteRunner(pipe, videoStore, filepath.Join(cfg.Pipeline.DataRoot, "downloads"))
	}

	router := api.SetupRouter(api.RouterConfig{
		Indexer: indexer,
		Videos:  videoRepo,
		Jobs:    jobRepo,
		Runner:  runner,
		Mode:    cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting API server on port %d (mode=%s)", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
