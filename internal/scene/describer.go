package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/logger"
	"github.com/clipquery/clipquery/internal/media"
	"github.com/clipquery/clipquery/internal/segment"
)

// frameTolerance is the slack allowed past a chunk's end time before a
// sampled frame is dropped. The sampling grid is anchored at the chunk start
// and never re-snaps to the true end boundary.
const frameTolerance = 0.1

// Transcriber converts one audio sub-clip into a transcript string.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Captioner describes one sampled frame.
type Captioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
}

// Describer produces a ChunkRecord per chunk directory: one transcript and
// one timestamped caption per sampled frame.
type Describer struct {
	transcriber   Transcriber
	captioner     Captioner
	frameInterval float64
	workers       int
	logger        *logger.Logger
}

// NewDescriber creates a Describer. workers bounds the per-chunk fan-out;
// values below 1 are treated as 1.
func NewDescriber(transcriber Transcriber, captioner Captioner, frameInterval float64, workers int, log *logger.Logger) *Describer {
	if workers < 1 {
		workers = 1
	}
	return &Describer{
		transcriber:   transcriber,
		captioner:     captioner,
		frameInterval: frameInterval,
		workers:       workers,
		logger:        log,
	}
}

func (d *Describer) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return d.logger
}

// DescribeStats reports per-chunk outcomes of a description run.
type DescribeStats struct {
	TotalChunks   int
	Described     int
	SkippedChunks int
}

var frameNumberRe = regexp.MustCompile(`frame_(\d+)\.png$`)

// DescribeAll processes every chunk directory under setsDir. Chunks are
// described concurrently; a chunk missing its time_info record or audio
// sub-clip is skipped and logged, never fatal. Each described chunk gets a
// data.json document, and the ordinal-ordered collection is written once to
// all_sets_data.json.
func (d *Describer) DescribeAll(ctx context.Context, setsDir string) ([]domain.ChunkRecord, DescribeStats, error) {
	chunkDirs, err := ListChunkDirs(setsDir)
	if err != nil {
		return nil, DescribeStats{}, err
	}

	stats := DescribeStats{TotalChunks: len(chunkDirs)}
	if len(chunkDirs) == 0 {
		d.log(ctx).WithField("dir", setsDir).Warn("No chunk directories found")
		return nil, stats, nil
	}

	// Fan out across chunks; results land in ordinal slots so output order
	// never depends on scheduling.
	records := make([]*domain.ChunkRecord, len(chunkDirs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < d.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				chunkDir := chunkDirs[i]
				cctx := logger.SetChunk(ctx, filepath.Base(chunkDir))
				rec, err := d.DescribeChunk(cctx, chunkDir)
				if err != nil {
					d.log(cctx).WithError(err).Warn("Skipping chunk")
					continue
				}
				records[i] = rec
			}
		}()
	}

	for i := range chunkDirs {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	described := make([]domain.ChunkRecord, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			stats.SkippedChunks++
			continue
		}
		described = append(described, *rec)
	}
	stats.Described = len(described)

	if err := writeJSON(filepath.Join(setsDir, "all_sets_data.json"), described); err != nil {
		return nil, stats, fmt.Errorf("write all_sets_data.json: %w", err)
	}

	logger.With(logger.Fields{
		logger.FieldCount: stats.Described,
		"skipped":         stats.SkippedChunks,
	}).Info(ctx, "Description stage completed")

	return described, stats, nil
}

// DescribeChunk describes a single chunk directory and persists its
// data.json. A missing time_info record or audio sub-clip returns an error
// the caller treats as skip-chunk. A transcription failure also skips the
// chunk; a caption failure drops only that frame.
func (d *Describer) DescribeChunk(ctx context.Context, chunkDir string) (*domain.ChunkRecord, error) {
	timeInfoPath := filepath.Join(chunkDir, "time_info.txt")
	start, end, err := segment.ReadTimeInfo(timeInfoPath)
	if err != nil {
		return nil, fmt.Errorf("missing or corrupt time_info.txt: %w", err)
	}

	audioPath := filepath.Join(chunkDir, "audio.mp3")
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("missing audio.mp3: %w", err)
	}

	transcript, err := d.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	visuals, err := d.describeFrames(ctx, chunkDir, start, end)
	if err != nil {
		return nil, err
	}

	rec := &domain.ChunkRecord{
		StartTime:  media.Round3(start),
		EndTime:    media.Round3(end),
		Transcript: transcript,
		Visuals:    visuals,
	}

	if err := writeJSON(filepath.Join(chunkDir, "data.json"), rec); err != nil {
		return nil, fmt.Errorf("write data.json: %w", err)
	}

	return rec, nil
}

// describeFrames captions each sampled frame in file order. Frame n of a
// chunk sits at offset (n-1)*interval from the chunk start; frames whose
// timestamp falls past the chunk end (plus tolerance) are dropped.
func (d *Describer) describeFrames(ctx context.Context, chunkDir string, start, end float64) ([]domain.VisualCaption, error) {
	framePaths, err := listFrames(chunkDir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	visuals := make([]domain.VisualCaption, 0, len(framePaths))
	for _, framePath := range framePaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m := frameNumberRe.FindStringSubmatch(framePath)
		if m == nil {
			continue
		}
		frameNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		ts := start + float64(frameNum-1)*d.frameInterval
		if ts > end+frameTolerance {
			continue
		}

		caption, err := d.captioner.Caption(ctx, framePath)
		if err != nil {
			// One bad frame does not sink the chunk.
			d.log(ctx).WithField("frame", filepath.Base(framePath)).WithError(err).Warn("Skipping frame")
			continue
		}

		visuals = append(visuals, domain.VisualCaption{
			Timestamp:   media.Round3(ts),
			Description: caption,
		})
	}

	return visuals, nil
}

// ListChunkDirs returns the chunk directories under setsDir in ordinal order.
func ListChunkDirs(setsDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(setsDir, "chunk_*"))
	if err != nil {
		return nil, err
	}
	dirs := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, m)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func listFrames(chunkDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(chunkDir, "frame_*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
