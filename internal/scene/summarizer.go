package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/logger"
)

// SummaryGenerator turns one scene's raw observations plus the carried
// context into a single-sentence summary.
type SummaryGenerator interface {
	Summarize(ctx context.Context, rec domain.ContextRecord) (string, error)
}

// Summarizer folds summaries over the chunk sequence in strict ordinal
// order. The carried context is the summary of the nearest preceding chunk
// that summarized successfully; a failed chunk never advances it.
type Summarizer struct {
	generator SummaryGenerator
	logger    *logger.Logger
}

func NewSummarizer(generator SummaryGenerator, log *logger.Logger) *Summarizer {
	return &Summarizer{generator: generator, logger: log}
}

func (s *Summarizer) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// SummarizeStats reports per-chunk outcomes of a summarization run.
type SummarizeStats struct {
	TotalChunks   int
	Summarized    int
	SkippedChunks int
}

// Run summarizes every described chunk under setsDir sequentially. Each
// chunk gets a context_data.json (inputs plus carried context) before
// generation and a summary_data.json after; chunks without a data.json, or
// whose generation fails, are skipped without touching the carried context.
// The ordinal-ordered collection is written once to all_summary_data.json.
func (s *Summarizer) Run(ctx context.Context, setsDir string) ([]domain.SummarizedChunkRecord, SummarizeStats, error) {
	chunkDirs, err := ListChunkDirs(setsDir)
	if err != nil {
		return nil, SummarizeStats{}, err
	}

	stats := SummarizeStats{TotalChunks: len(chunkDirs)}
	summaries := make([]domain.SummarizedChunkRecord, 0, len(chunkDirs))

	var previous *string
	for _, chunkDir := range chunkDirs {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		cctx := logger.SetChunk(ctx, filepath.Base(chunkDir))

		rec, err := s.summarizeChunk(cctx, chunkDir, previous)
		if err != nil {
			stats.SkippedChunks++
			s.log(cctx).WithError(err).Warn("Skipping chunk summarization")
			continue
		}

		summaries = append(summaries, *rec)
		previous = &rec.SceneSummary
	}
	stats.Summarized = len(summaries)

	if err := writeJSON(filepath.Join(setsDir, "all_summary_data.json"), summaries); err != nil {
		return nil, stats, fmt.Errorf("write all_summary_data.json: %w", err)
	}

	logger.With(logger.Fields{
		logger.FieldCount: stats.Summarized,
		"skipped":         stats.SkippedChunks,
	}).Info(ctx, "Summarization stage completed")

	return summaries, stats, nil
}

func (s *Summarizer) summarizeChunk(ctx context.Context, chunkDir string, previous *string) (*domain.SummarizedChunkRecord, error) {
	var chunkRec domain.ChunkRecord
	if err := readJSON(filepath.Join(chunkDir, "data.json"), &chunkRec); err != nil {
		return nil, fmt.Errorf("read data.json: %w", err)
	}

	ctxRec := domain.ContextRecord{
		ChunkRecord:     chunkRec,
		PreviousContext: previous,
	}
	if err := writeJSON(filepath.Join(chunkDir, "context_data.json"), ctxRec); err != nil {
		return nil, fmt.Errorf("write context_data.json: %w", err)
	}

	summary, err := s.generator.Summarize(ctx, ctxRec)
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, fmt.Errorf("generator returned empty summary")
	}

	rec := &domain.SummarizedChunkRecord{
		StartTime:           chunkRec.StartTime,
		EndTime:             chunkRec.EndTime,
		PreviousDescription: previous,
		SceneSummary:        summary,
		Transcript:          chunkRec.Transcript,
		Visuals:             chunkRec.Visuals,
	}
	if err := writeJSON(filepath.Join(chunkDir, "summary_data.json"), rec); err != nil {
		return nil, fmt.Errorf("write summary_data.json: %w", err)
	}

	return rec, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
