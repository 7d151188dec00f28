package index

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/logger"
	"github.com/clipquery/clipquery/internal/repository"
)

// fakeEmbedder assigns each distinct text its own basis vector, so identical
// texts have cosine similarity 1 and distinct texts 0.
type fakeEmbedder struct {
	mu    sync.Mutex
	seen  map[string]int
	width int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{seen: map[string]int{}, width: 16}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	axis, ok := f.seen[text]
	if !ok {
		axis = len(f.seen) % f.width
		f.seen[text] = axis
	}
	vec := make([]float32, f.width)
	vec[axis] = 1
	return vec, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return f.Embed(ctx, query)
}

type storedPoint struct {
	vector  []float32
	payload repository.ScenePayload
}

// fakeStore keeps points in memory and scores by cosine similarity.
type fakeStore struct {
	mu     sync.Mutex
	points map[string]storedPoint
}

func newFakeStore() *fakeStore {
	return &fakeStore{points: map[string]storedPoint{}}
}

func (s *fakeStore) EnsureCollection(context.Context) error { return nil }
func (s *fakeStore) CollectionName() string                 { return "video_scenes_test" }

func (s *fakeStore) Upsert(_ context.Context, pointID string, vector []float32, payload *repository.ScenePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[pointID] = storedPoint{vector: vector, payload: *payload}
	return nil
}

func (s *fakeStore) Search(_ context.Context, vector []float32, topK int, filters *repository.SearchFilters) ([]repository.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []repository.SearchResult
	for id, point := range s.points {
		if filters != nil && filters.Video != nil && point.payload.Video != *filters.Video {
			continue
		}
		payload := point.payload
		results = append(results, repository.SearchResult{
			ID:      id,
			Score:   cosine(vector, point.vector),
			Payload: &payload,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func writeSummary(t *testing.T, setsDir, chunkName string, rec domain.SummarizedChunkRecord) {
	t.Helper()
	dir := filepath.Join(setsDir, chunkName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary_data.json"), data, 0o644))
}

func TestIndexAndQueryRoundTrip(t *testing.T) {
	setsDir := t.TempDir()
	prev := "A chase begins downtown."
	writeSummary(t, setsDir, "chunk_001", domain.SummarizedChunkRecord{
		StartTime: 0, EndTime: 15,
		SceneSummary: "A chase begins downtown.",
		Transcript:   "Go go go!",
	})
	writeSummary(t, setsDir, "chunk_002", domain.SummarizedChunkRecord{
		StartTime: 15, EndTime: 30,
		PreviousDescription: &prev,
		SceneSummary:        "The cars crash at the bridge.",
		Transcript:          "Look out!",
	})

	embedder := newFakeEmbedder()
	store := newFakeStore()
	ix := New(embedder, store, 2, logger.NewDefault())

	stats, err := ix.IndexVideo(context.Background(), "movie.mp4", setsDir)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Indexed)
	require.Zero(t, stats.SkippedScenes)

	// Querying with a stored point's exact document text is a perfect match.
	var doc string
	for _, p := range store.points {
		if p.payload.Chunk == "chunk_002" {
			doc = p.payload.Document
		}
	}
	require.NotEmpty(t, doc)

	hits, err := ix.Query(context.Background(), doc, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "movie.mp4_chunk_002", hits[0].SceneID)
	require.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	require.Equal(t, float64(15), hits[0].StartTime)
	require.Equal(t, float64(30), hits[0].EndTime)
	require.Equal(t, "The cars crash at the bridge.", hits[0].Summary)
}

func TestIndexVideoSkipsMalformedSummary(t *testing.T) {
	setsDir := t.TempDir()
	writeSummary(t, setsDir, "chunk_001", domain.SummarizedChunkRecord{
		StartTime: 0, EndTime: 15, SceneSummary: "Opening scene.",
	})
	dir := filepath.Join(setsDir, "chunk_002")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary_data.json"), []byte("{not json"), 0o644))

	ix := New(newFakeEmbedder(), newFakeStore(), 1, logger.NewDefault())
	stats, err := ix.IndexVideo(context.Background(), "movie.mp4", setsDir)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Indexed)
	require.Equal(t, 1, stats.SkippedScenes)
}

func TestIndexVideoUpsertsInPlace(t *testing.T) {
	setsDir := t.TempDir()
	writeSummary(t, setsDir, "chunk_001", domain.SummarizedChunkRecord{
		StartTime: 0, EndTime: 15, SceneSummary: "First pass.",
	})

	store := newFakeStore()
	ix := New(newFakeEmbedder(), store, 1, logger.NewDefault())

	_, err := ix.IndexVideo(context.Background(), "movie.mp4", setsDir)
	require.NoError(t, err)
	require.Len(t, store.points, 1)

	// Re-summarize and re-index: same point, new payload.
	writeSummary(t, setsDir, "chunk_001", domain.SummarizedChunkRecord{
		StartTime: 0, EndTime: 15, SceneSummary: "Second pass.",
	})
	_, err = ix.IndexVideo(context.Background(), "movie.mp4", setsDir)
	require.NoError(t, err)
	require.Len(t, store.points, 1)
	for _, p := range store.points {
		require.Equal(t, "Second pass.", p.payload.Summary)
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	ix := New(newFakeEmbedder(), newFakeStore(), 1, logger.NewDefault())

	hits, err := ix.Query(context.Background(), "anything at all", 5, nil)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestQueryVideoFilter(t *testing.T) {
	setsDirA := t.TempDir()
	setsDirB := t.TempDir()
	writeSummary(t, setsDirA, "chunk_001", domain.SummarizedChunkRecord{
		StartTime: 0, EndTime: 15, SceneSummary: "Scene in movie A.",
	})
	writeSummary(t, setsDirB, "chunk_001", domain.SummarizedChunkRecord{
		StartTime: 0, EndTime: 15, SceneSummary: "Scene in movie B.",
	})

	store := newFakeStore()
	ix := New(newFakeEmbedder(), store, 1, logger.NewDefault())

	_, err := ix.IndexVideo(context.Background(), "a.mp4", setsDirA)
	require.NoError(t, err)
	_, err = ix.IndexVideo(context.Background(), "b.mp4", setsDirB)
	require.NoError(t, err)

	video := "b.mp4"
	hits, err := ix.Query(context.Background(), "some scene", 10, &video)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "b.mp4_chunk_001", hits[0].SceneID)
}
