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
	"github.com/clipquery/clipquery/internal/segment"
)

type fakeTranscriber struct {
	failFor map[string]bool
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	chunk := filepath.Base(filepath.Dir(audioPath))
	if f.failFor[chunk] {
		return "", fmt.Errorf("transcription failed")
	}
	return "transcript of " + chunk, nil
}

type fakeCaptioner struct {
	failFor map[string]bool
}

func (f *fakeCaptioner) Caption(_ context.Context, imagePath string) (string, error) {
	frame := filepath.Base(imagePath)
	if f.failFor[frame] {
		return "", fmt.Errorf("caption failed")
	}
	return "caption of " + frame, nil
}

// makeChunkDir materializes a chunk directory with time_info, audio, and
// frameCount sampled frames.
func makeChunkDir(t *testing.T, setsDir string, chunk domain.Chunk, frameCount int) string {
	t.Helper()
	dir := filepath.Join(setsDir, chunk.Name())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, segment.WriteTimeInfo(filepath.Join(dir, "time_info.txt"), chunk))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "audio.mp3"), []byte("audio"), 0o644))
	for n := 1; n <= frameCount; n++ {
		name := fmt.Sprintf("frame_%04d.png", n)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o644))
	}
	return dir
}

func newTestDescriber(tr Transcriber, capt Captioner, interval float64) *Describer {
	return NewDescriber(tr, capt, interval, 2, logger.NewDefault())
}

func TestDescribeChunkFrameGrid(t *testing.T) {
	setsDir := t.TempDir()
	chunk := domain.Chunk{Ordinal: 2, StartTime: 15, EndTime: 30}
	dir := makeChunkDir(t, setsDir, chunk, 8)

	d := newTestDescriber(&fakeTranscriber{}, &fakeCaptioner{}, 2)
	rec, err := d.DescribeChunk(context.Background(), dir)
	require.NoError(t, err)

	require.Equal(t, "transcript of chunk_002", rec.Transcript)
	require.Len(t, rec.Visuals, 8)

	// Frame n sits at start + (n-1)*interval.
	for i, v := range rec.Visuals {
		require.Equal(t, 15+float64(i)*2, v.Timestamp)
		require.LessOrEqual(t, v.Timestamp, chunk.EndTime+0.1)
	}
}

func TestDescribeChunkDropsFramesPastEnd(t *testing.T) {
	setsDir := t.TempDir()
	// Short last chunk: [30, 40] with a 2s grid holds frames at 30..40.
	chunk := domain.Chunk{Ordinal: 3, StartTime: 30, EndTime: 40}
	dir := makeChunkDir(t, setsDir, chunk, 8)

	d := newTestDescriber(&fakeTranscriber{}, &fakeCaptioner{}, 2)
	rec, err := d.DescribeChunk(context.Background(), dir)
	require.NoError(t, err)

	// Frames 7 (42s) and 8 (44s) fall past 40.1 and are dropped.
	require.Len(t, rec.Visuals, 6)
	require.Equal(t, float64(40), rec.Visuals[len(rec.Visuals)-1].Timestamp)
}

func TestDescribeChunkCaptionFailureSkipsFrameOnly(t *testing.T) {
	setsDir := t.TempDir()
	chunk := domain.Chunk{Ordinal: 1, StartTime: 0, EndTime: 15}
	dir := makeChunkDir(t, setsDir, chunk, 4)

	capt := &fakeCaptioner{failFor: map[string]bool{"frame_0002.png": true}}
	d := newTestDescriber(&fakeTranscriber{}, capt, 2)
	rec, err := d.DescribeChunk(context.Background(), dir)
	require.NoError(t, err)

	// One frame dropped, order and timestamps of the rest preserved.
	require.Len(t, rec.Visuals, 3)
	require.Equal(t, []float64{0, 4, 6}, []float64{
		rec.Visuals[0].Timestamp, rec.Visuals[1].Timestamp, rec.Visuals[2].Timestamp,
	})
}

func TestDescribeChunkMissingAudioFails(t *testing.T) {
	setsDir := t.TempDir()
	chunk := domain.Chunk{Ordinal: 1, StartTime: 0, EndTime: 15}
	dir := makeChunkDir(t, setsDir, chunk, 2)
	require.NoError(t, os.Remove(filepath.Join(dir, "audio.mp3")))

	d := newTestDescriber(&fakeTranscriber{}, &fakeCaptioner{}, 2)
	_, err := d.DescribeChunk(context.Background(), dir)
	require.Error(t, err)
}

func TestDescribeAllSkipsBrokenChunks(t *testing.T) {
	setsDir := t.TempDir()
	makeChunkDir(t, setsDir, domain.Chunk{Ordinal: 1, StartTime: 0, EndTime: 15}, 2)
	makeChunkDir(t, setsDir, domain.Chunk{Ordinal: 2, StartTime: 15, EndTime: 30}, 2)
	makeChunkDir(t, setsDir, domain.Chunk{Ordinal: 3, StartTime: 30, EndTime: 45}, 2)

	// Chunk 2's transcription fails; the others proceed.
	tr := &fakeTranscriber{failFor: map[string]bool{"chunk_002": true}}
	d := newTestDescriber(tr, &fakeCaptioner{}, 2)
	records, stats, err := d.DescribeAll(context.Background(), setsDir)
	require.NoError(t, err)

	require.Equal(t, 3, stats.TotalChunks)
	require.Equal(t, 2, stats.Described)
	require.Equal(t, 1, stats.SkippedChunks)

	// Output stays in ordinal order regardless of worker scheduling.
	require.Len(t, records, 2)
	require.Equal(t, float64(0), records[0].StartTime)
	require.Equal(t, float64(30), records[1].StartTime)

	// Per-chunk data.json written for survivors only.
	require.FileExists(t, filepath.Join(setsDir, "chunk_001", "data.json"))
	require.NoFileExists(t, filepath.Join(setsDir, "chunk_002", "data.json"))

	// Rollup matches the surviving records.
	var all []domain.ChunkRecord
	data, err := os.ReadFile(filepath.Join(setsDir, "all_sets_data.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &all))
	require.Len(t, all, 2)
}
