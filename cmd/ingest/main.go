package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

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
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "clipquery-ingest",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	videoPath := flag.String("video", "", "Path to the source video (or object key with -fetch)")
	fetch := flag.Bool("fetch", false, "Fetch the video from object storage instead of local disk")
	noDB := flag.Bool("no-db", false, "Run without the metadata database (one-shot mode)")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *videoPath == "" {
		appLogger.Fatal("Usage: ingest -video <path> [-fetch] [-no-db] [-config <path>]")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger.WithFields(logger.Fields{
		"video": *videoPath,
		"fetch": *fetch,
	}).Info("Starting pipeline run")

	// Initialize repositories
	var videoRepo *repository.VideoRepository
	var jobRepo *repository.JobRepository
	if !*noDB {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		videoRepo = repository.NewVideoRepository(db)
		jobRepo = repository.NewJobRepository(db)
	}

	qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: cfg.Embedding.Dimensions,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize Qdrant repository")
	}
	defer qdrantRepo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := qdrantRepo.EnsureCollection(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure Qdrant collection")
	}

	// Initialize capability services
	embeddingService := service.NewEmbeddingService(&cfg.Embedding)
	indexer := index.New(embeddingService, qdrantRepo, cfg.Pipeline.IndexWorkers, appLogger)

	tools := media.NewTools()
	segmenter := segment.New(tools, cfg.Pipeline.ChunkSeconds, cfg.Pipeline.FrameIntervalSeconds)
	describer := scene.NewDescriber(
		service.NewTranscriptionService(&cfg.Transcriber),
		service.NewCaptionService(&cfg.Captioner),
		cfg.Pipeline.FrameIntervalSeconds,
		cfg.Pipeline.DescribeWorkers,
		appLogger,
	)
	summarizer := scene.NewSummarizer(service.NewSummarizationService(&cfg.Summarizer), appLogger)

	pipe := pipeline.New(pipeline.Config{
		Segmenter:    segmenter,
		Describer:    describer,
		Summarizer:   summarizer,
		Indexer:      indexer,
		Videos:       videoRepo,
		Jobs:         jobRepo,
		DataRoot:     cfg.Pipeline.DataRoot,
		StageTimeout: cfg.Pipeline.StageTimeout,
		Logger:       appLogger,
	})

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	// Run the pipeline, through object storage when requested
	var result *pipeline.Result
	if *fetch {
		if !cfg.Storage.Enabled {
			appLogger.Fatal("-fetch requires storage to be enabled in config")
		}
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
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		videoStore := storage.NewVideoStore(objectStorage)
		runner := pipeline.NewRemoteRunner(pipe, videoStore, filepath.Join(cfg.Pipeline.DataRoot, "downloads"))
		result, err = runner.Run(ctx, *videoPath)
		if err != nil {
			appLogger.WithError(err).Fatal("Pipeline run failed")
		}
	} else {
		result, err = pipe.Run(ctx, *videoPath)
		if err != nil {
			appLogger.WithError(err).Fatal("Pipeline run failed")
		}
	}

	appLogger.WithFields(logger.Fields{
		"video":      result.VideoFilename,
		"chunks":     result.TotalChunks,
		"summarized": result.SummarizedChunks,
		"skipped":    result.SkippedChunks,
		"indexed":    result.IndexedScenes,
	}).Info("Pipeline run completed")
}
