package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/logger"
)

// fakeGenerator summarizes by chunk start time, failing where told to.
type fakeGenerator struct {
	failAt map[float64]bool
	calls  []domain.ContextRecord
}

func (g *fakeGenerator) Summarize(_ context.Context, rec domain.ContextRecord) (string, error) {
	g.calls = append(g.calls, rec)
	if g.failAt[rec.StartTime] {
		return "", fmt.Errorf("generation failed")
	}
	return fmt.Sprintf("summary of scene at %v", rec.StartTime), nil
}

func writeChunkData(t *testing.T, setsDir, chunkName string, rec domain.ChunkRecord) {
	t.Helper()
	dir := filepath.Join(setsDir, chunkName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), data, 0o644))
}

func newTestSummarizer(gen SummaryGenerator) *Summarizer {
	return NewSummarizer(gen, logger.NewDefault())
}

func TestSummarizerThreadsContext(t *testing.T) {
	setsDir := t.TempDir()
	writeChunkData(t, setsDir, "chunk_001", domain.ChunkRecord{StartTime: 0, EndTime: 15, Transcript: "one"})
	writeChunkData(t, setsDir, "chunk_002", domain.ChunkRecord{StartTime: 15, EndTime: 30, Transcript: "two"})
	writeChunkData(t, setsDir, "chunk_003", domain.ChunkRecord{StartTime: 30, EndTime: 40, Transcript: "three"})

	gen := &fakeGenerator{}
	summaries, stats, err := newTestSummarizer(gen).Run(context.Background(), setsDir)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Summarized)
	require.Len(t, summaries, 3)

	// First scene has no carried context.
	require.Nil(t, summaries[0].PreviousDescription)
	// Each later scene carries the previous scene's summary.
	require.NotNil(t, summaries[1].PreviousDescription)
	require.Equal(t, summaries[0].SceneSummary, *summaries[1].PreviousDescription)
	require.NotNil(t, summaries[2].PreviousDescription)
	require.Equal(t, summaries[1].SceneSummary, *summaries[2].PreviousDescription)

	// The generator saw the same carried context.
	require.Nil(t, gen.calls[0].PreviousContext)
	require.Equal(t, summaries[0].SceneSummary, *gen.calls[1].PreviousContext)
}

func TestSummarizerFailureKeepsContext(t *testing.T) {
	setsDir := t.TempDir()
	writeChunkData(t, setsDir, "chunk_001", domain.ChunkRecord{StartTime: 0, EndTime: 15})
	writeChunkData(t, setsDir, "chunk_002", domain.ChunkRecord{StartTime: 15, EndTime: 30})
	writeChunkData(t, setsDir, "chunk_003", domain.ChunkRecord{StartTime: 30, EndTime: 45})
	writeChunkData(t, setsDir, "chunk_004", domain.ChunkRecord{StartTime: 45, EndTime: 60})

	// Chunks 2 and 3 fail back to back.
	gen := &fakeGenerator{failAt: map[float64]bool{15: true, 30: true}}
	summaries, stats, err := newTestSummarizer(gen).Run(context.Background(), setsDir)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Summarized)
	require.Equal(t, 2, stats.SkippedChunks)
	require.Len(t, summaries, 2)

	// Chunk 4 walks back to chunk 1's summary, the nearest success.
	require.Equal(t, float64(45), summaries[1].StartTime)
	require.NotNil(t, summaries[1].PreviousDescription)
	require.Equal(t, summaries[0].SceneSummary, *summaries[1].PreviousDescription)

	// The failed chunks still saw chunk 1's summary as their context.
	require.Equal(t, summaries[0].SceneSummary, *gen.calls[1].PreviousContext)
	require.Equal(t, summaries[0].SceneSummary, *gen.calls[2].PreviousContext)
}

func TestSummarizerSkipsChunkWithoutData(t *testing.T) {
	setsDir := t.TempDir()
	writeChunkData(t, setsDir, "chunk_001", domain.ChunkRecord{StartTime: 0, EndTime: 15})
	// chunk_002 exists but was never described.
	require.NoError(t, os.MkdirAll(filepath.Join(setsDir, "chunk_002"), 0o755))
	writeChunkData(t, setsDir, "chunk_003", domain.ChunkRecord{StartTime: 30, EndTime: 45})

	gen := &fakeGenerator{}
	summaries, stats, err := newTestSummarizer(gen).Run(context.Background(), setsDir)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Summarized)
	require.Equal(t, 1, stats.SkippedChunks)
	require.Len(t, summaries, 2)
}

func TestSummarizerWritesArtifacts(t *testing.T) {
	setsDir := t.TempDir()
	writeChunkData(t, setsDir, "chunk_001", domain.ChunkRecord{StartTime: 0, EndTime: 15, Transcript: "hello"})
	writeChunkData(t, setsDir, "chunk_002", domain.ChunkRecord{StartTime: 15, EndTime: 30, Transcript: "world"})

	gen := &fakeGenerator{}
	_, _, err := newTestSummarizer(gen).Run(context.Background(), setsDir)
	require.NoError(t, err)

	// context_data.json records the carried context before generation.
	var ctxRec domain.ContextRecord
	data, err := os.ReadFile(filepath.Join(setsDir, "chunk_002", "context_data.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &ctxRec))
	require.NotNil(t, ctxRec.PreviousContext)
	require.Equal(t, "summary of scene at 0", *ctxRec.PreviousContext)

	// summary_data.json holds the summarized record.
	var sumRec domain.SummarizedChunkRecord
	data, err = os.ReadFile(filepath.Join(setsDir, "chunk_001", "summary_data.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &sumRec))
	require.Equal(t, "summary of scene at 0", sumRec.SceneSummary)
	require.Equal(t, "hello", sumRec.Transcript)

	// The rollup collects every summarized chunk in order.
	var all []domain.SummarizedChunkRecord
	data, err = os.ReadFile(filepath.Join(setsDir, "all_summary_data.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &all))
	require.Len(t, all, 2)
	require.Equal(t, float64(0), all[0].StartTime)
	require.Equal(t, float64(15), all[1].StartTime)
}

func TestSummarizerRejectsEmptySummary(t *testing.T) {
	setsDir := t.TempDir()
	writeChunkData(t, setsDir, "chunk_001", domain.ChunkRecord{StartTime: 0, EndTime: 15})

	gen := &emptyGenerator{}
	summaries, stats, err := newTestSummarizer(gen).Run(context.Background(), setsDir)
	require.NoError(t, err)
	require.Empty(t, summaries)
	require.Equal(t, 1, stats.SkippedChunks)
}

type emptyGenerator struct{}

func (emptyGenerator) Summarize(context.Context, domain.ContextRecord) (string, error) {
	return "   ", nil
}
