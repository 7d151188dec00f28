package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/logger"
	"github.com/clipquery/clipquery/internal/repository"
	"github.com/clipquery/clipquery/internal/scene"
)

// Embedder is the vector side of the index: one model embeds both documents
// and queries so they share an embedding space.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// VectorStore is the subset of the Qdrant repository the indexer depends on.
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	CollectionName() string
	Upsert(ctx context.Context, pointID string, vector []float32, payload *repository.ScenePayload) error
	Search(ctx context.Context, vector []float32, topK int, filters *repository.SearchFilters) ([]repository.SearchResult, error)
}

// Indexer serializes summarized scenes, embeds them, and stores the vectors
// for semantic timestamp lookup.
type Indexer struct {
	embedder Embedder
	store    VectorStore
	workers  int
	logger   *logger.Logger
}

// New creates an Indexer. workers bounds the embed/upsert fan-out.
func New(embedder Embedder, store VectorStore, workers int, log *logger.Logger) *Indexer {
	if workers < 1 {
		workers = 1
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		workers:  workers,
		logger:   log,
	}
}

func (ix *Indexer) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return ix.logger
}

// IndexStats reports per-scene outcomes of an indexing run.
type IndexStats struct {
	TotalChunks   int
	Indexed       int
	SkippedScenes int
}

// IndexVideo indexes every summarized chunk under setsDir for one video.
// Chunks without a summary_data.json (skipped upstream) and chunks whose
// document is malformed are skipped and logged; embed or upsert failures
// also skip just that scene. Point IDs derive from scene IDs, so re-running
// overwrites rather than duplicates.
func (ix *Indexer) IndexVideo(ctx context.Context, videoFilename, setsDir string) (IndexStats, error) {
	if err := ix.store.EnsureCollection(ctx); err != nil {
		return IndexStats{}, fmt.Errorf("ensure collection: %w", err)
	}

	chunkDirs, err := scene.ListChunkDirs(setsDir)
	if err != nil {
		return IndexStats{}, err
	}

	stats := IndexStats{TotalChunks: len(chunkDirs)}

	var indexed, skipped atomic.Int64
	jobs := make(chan string)

	var wg sync.WaitGroup
	for w := 0; w < ix.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunkDir := range jobs {
				if ctx.Err() != nil {
					return
				}
				cctx := logger.SetChunk(ctx, filepath.Base(chunkDir))
				if err := ix.indexChunk(cctx, videoFilename, chunkDir); err != nil {
					skipped.Add(1)
					ix.log(cctx).WithError(err).Warn("Skipping scene")
					continue
				}
				indexed.Add(1)
			}
		}()
	}

	for _, chunkDir := range chunkDirs {
		select {
		case jobs <- chunkDir:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	stats.Indexed = int(indexed.Load())
	stats.SkippedScenes = int(skipped.Load())

	logger.With(logger.Fields{
		logger.FieldCount: stats.Indexed,
		"skipped":         stats.SkippedScenes,
	}).Info(ctx, "Indexing stage completed")

	return stats, nil
}

func (ix *Indexer) indexChunk(ctx context.Context, videoFilename, chunkDir string) error {
	summaryPath := filepath.Join(chunkDir, "summary_data.json")
	data, err := os.ReadFile(summaryPath)
	if err != nil {
		return fmt.Errorf("read summary_data.json: %w", err)
	}

	var rec domain.SummarizedChunkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("malformed summary_data.json: %w", err)
	}

	chunkName := filepath.Base(chunkDir)
	sceneID := domain.SceneID(videoFilename, chunkName)
	document := scene.Serialize(rec)

	vector, err := ix.embedder.Embed(ctx, document)
	if err != nil {
		return fmt.Errorf("embed scene: %w", err)
	}

	pointID := repository.DeterministicPointID(sceneID, ix.store.CollectionName())
	payload := &repository.ScenePayload{
		SceneID:    sceneID,
		Video:      videoFilename,
		Chunk:      chunkName,
		StartTime:  rec.StartTime,
		EndTime:    rec.EndTime,
		Summary:    rec.SceneSummary,
		Document:   document,
		SourceFile: summaryPath,
	}

	if err := ix.store.Upsert(ctx, pointID, vector, payload); err != nil {
		return fmt.Errorf("upsert scene: %w", err)
	}

	return nil
}

// Query embeds the natural-language query and returns the topK most similar
// scenes. Similarity is cosine similarity as the store reports it, i.e.
// 1 - cosine distance. An empty index yields an empty slice, never an error.
func (ix *Indexer) Query(ctx context.Context, queryText string, topK int, videoFilename *string) ([]domain.SceneHit, error) {
	if topK < 1 {
		topK = 1
	}

	vector, err := ix.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var filters *repository.SearchFilters
	if videoFilename != nil && *videoFilename != "" {
		filters = &repository.SearchFilters{Video: videoFilename}
	}

	results, err := ix.store.Search(ctx, vector, topK, filters)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]domain.SceneHit, 0, len(results))
	for _, res := range results {
		if res.Payload == nil {
			continue
		}
		hits = append(hits, domain.SceneHit{
			SceneID:    res.Payload.SceneID,
			Similarity: res.Score,
			StartTime:  res.Payload.StartTime,
			EndTime:    res.Payload.EndTime,
			Summary:    res.Payload.Summary,
		})
	}

	return hits, nil
}
