package segment

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/logger"
	"github.com/clipquery/clipquery/internal/media"
)

// Plan splits a timeline of totalDuration seconds into ceil(D/L) contiguous,
// non-overlapping chunks of nominal length chunkSeconds. The last chunk may be
// shorter. Returns an error for a non-positive duration; no partial plan is
// ever produced.
func Plan(totalDuration, chunkSeconds float64) ([]domain.Chunk, error) {
	if totalDuration <= 0 {
		return nil, fmt.Errorf("cannot segment: non-positive duration %v", totalDuration)
	}
	if chunkSeconds <= 0 {
		return nil, fmt.Errorf("cannot segment: non-positive chunk length %v", chunkSeconds)
	}

	n := int(math.Ceil(totalDuration / chunkSeconds))
	chunks := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		start := float64(i) * chunkSeconds
		end := math.Min(start+chunkSeconds, totalDuration)
		chunks = append(chunks, domain.Chunk{
			Ordinal:   i + 1,
			StartTime: start,
			EndTime:   end,
		})
	}
	return chunks, nil
}

// Segmenter extracts per-chunk audio sub-clips and sampled frames from a
// source video into one directory per chunk.
type Segmenter struct {
	tools         *media.Tools
	chunkSeconds  float64
	frameInterval float64
}

// New creates a Segmenter.
func New(tools *media.Tools, chunkSeconds, frameInterval float64) *Segmenter {
	return &Segmenter{
		tools:         tools,
		chunkSeconds:  chunkSeconds,
		frameInterval: frameInterval,
	}
}

// Segment probes the video duration, plans the chunk grid, and materializes
// each chunk under setsDir as:
//
//	chunk_001/audio.mp3
//	chunk_001/frame_0001.png, frame_0002.png, ...
//	chunk_001/time_info.txt
//
// Any failure here is fatal for the video: an unreadable source or an
// uncreatable output directory aborts before any later stage runs.
func (s *Segmenter) Segment(ctx context.Context, videoPath, setsDir string) ([]domain.Chunk, error) {
	duration, err := s.tools.ProbeDuration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}

	chunks, err := Plan(duration, s.chunkSeconds)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(setsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create sets dir: %w", err)
	}

	log := logger.FromContext(ctx)
	log.WithFields(logger.Fields{
		"duration": media.FormatTimestamp(duration),
		"chunks":   len(chunks),
	}).Info("Segmenting video")

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.extractChunk(ctx, videoPath, setsDir, chunk); err != nil {
			return nil, fmt.Errorf("%s: %w", chunk.Name(), err)
		}
	}

	return chunks, nil
}

func (s *Segmenter) extractChunk(ctx context.Context, videoPath, setsDir string, chunk domain.Chunk) error {
	chunkDir := filepath.Join(setsDir, chunk.Name())
	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldChunk: chunk.Name(),
		"start":           media.FormatTimestamp(chunk.StartTime),
		"end":             media.FormatTimestamp(chunk.EndTime),
	}).Debug("Extracting chunk")

	audioPath := filepath.Join(chunkDir, "audio.mp3")
	if err := s.tools.ExtractClipAudio(ctx, videoPath, audioPath, chunk.StartTime, chunk.Duration()); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}

	if err := s.tools.ExtractClipFrames(ctx, videoPath, chunkDir, chunk.StartTime, chunk.Duration(), s.frameInterval); err != nil {
		return fmt.Errorf("extract frames: %w", err)
	}

	if err := WriteTimeInfo(filepath.Join(chunkDir, "time_info.txt"), chunk); err != nil {
		return fmt.Errorf("write time info: %w", err)
	}

	return nil
}
