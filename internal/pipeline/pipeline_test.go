package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/index"
	"github.com/clipquery/clipquery/internal/logger"
	"github.com/clipquery/clipquery/internal/scene"
)

type stageLog struct {
	calls []string
}

type fakeSegmenter struct {
	log  *stageLog
	fail bool
}

func (f *fakeSegmenter) Segment(_ context.Context, videoPath, setsDir string) ([]domain.Chunk, error) {
	f.log.calls = append(f.log.calls, "segment")
	if f.fail {
		return nil, fmt.Errorf("cannot probe %s", videoPath)
	}
	return []domain.Chunk{
		{Ordinal: 1, StartTime: 0, EndTime: 15},
		{Ordinal: 2, StartTime: 15, EndTime: 30},
		{Ordinal: 3, StartTime: 30, EndTime: 40},
	}, nil
}

type fakeDescriber struct{ log *stageLog }

func (f *fakeDescriber) DescribeAll(context.Context, string) ([]domain.ChunkRecord, scene.DescribeStats, error) {
	f.log.calls = append(f.log.calls, "describe")
	return nil, scene.DescribeStats{TotalChunks: 3, Described: 3}, nil
}

type fakeSummarizer struct{ log *stageLog }

func (f *fakeSummarizer) Run(context.Context, string) ([]domain.SummarizedChunkRecord, scene.SummarizeStats, error) {
	f.log.calls = append(f.log.calls, "summarize")
	return nil, scene.SummarizeStats{TotalChunks: 3, Summarized: 2, SkippedChunks: 1}, nil
}

type fakeIndexer struct{ log *stageLog }

func (f *fakeIndexer) IndexVideo(context.Context, string, string) (index.IndexStats, error) {
	f.log.calls = append(f.log.calls, "index")
	return index.IndexStats{TotalChunks: 3, Indexed: 2}, nil
}

func newTestPipeline(slog *stageLog, segmentFails bool) *Pipeline {
	return New(Config{
		Segmenter:    &fakeSegmenter{log: slog, fail: segmentFails},
		Describer:    &fakeDescriber{log: slog},
		Summarizer:   &fakeSummarizer{log: slog},
		Indexer:      &fakeIndexer{log: slog},
		DataRoot:     "/tmp/clipquery-test",
		StageTimeout: time.Minute,
		Logger:       logger.NewDefault(),
	})
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	slog := &stageLog{}
	p := newTestPipeline(slog, false)

	result, err := p.Run(context.Background(), "/videos/movie.mp4")
	require.NoError(t, err)

	require.Equal(t, []string{"segment", "describe", "summarize", "index"}, slog.calls)
	require.Equal(t, "movie.mp4", result.VideoFilename)
	require.Equal(t, 3, result.TotalChunks)
	require.Equal(t, float64(40), result.Duration)
	require.Equal(t, 2, result.SummarizedChunks)
	require.Equal(t, 1, result.SkippedChunks)
	require.Equal(t, 2, result.IndexedScenes)
}

func TestPipelineSegmentationFailureIsFatal(t *testing.T) {
	slog := &stageLog{}
	p := newTestPipeline(slog, true)

	_, err := p.Run(context.Background(), "/videos/broken.mp4")
	require.Error(t, err)

	// Nothing after segmentation runs.
	require.Equal(t, []string{"segment"}, slog.calls)
}

func TestPipelineSetsDirPerVideo(t *testing.T) {
	p := newTestPipeline(&stageLog{}, false)

	require.Equal(t, "/tmp/clipquery-test/movie.mp4", p.SetsDir("movie.mp4"))
	require.NotEqual(t, p.SetsDir("a.mp4"), p.SetsDir("b.mp4"))
}
