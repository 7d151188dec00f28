package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/index"
	"github.com/clipquery/clipquery/internal/logger"
	"github.com/clipquery/clipquery/internal/repository"
	"github.com/clipquery/clipquery/internal/scene"
)

// Stage names, used for logging and timeout scoping.
const (
	StageSegment   = "segment"
	StageDescribe  = "describe"
	StageSummarize = "summarize"
	StageIndex     = "index"
)

// The four stages, as the orchestrator sees them.
type (
	// Segmenter materializes chunk directories from a source video.
	Segmenter interface {
		Segment(ctx context.Context, videoPath, setsDir string) ([]domain.Chunk, error)
	}

	// Describer transcribes and captions every chunk directory.
	Describer interface {
		DescribeAll(ctx context.Context, setsDir string) ([]domain.ChunkRecord, scene.DescribeStats, error)
	}

	// Summarizer folds scene summaries over the chunk sequence.
	Summarizer interface {
		Run(ctx context.Context, setsDir string) ([]domain.SummarizedChunkRecord, scene.SummarizeStats, error)
	}

	// Indexer embeds and stores summarized scenes.
	Indexer interface {
		IndexVideo(ctx context.Context, videoFilename, setsDir string) (index.IndexStats, error)
	}
)

// Pipeline runs a video end to end: segment, describe, summarize, index.
// Stage order is fixed; each stage consumes the artifacts of the previous
// one from the video's working directory.
type Pipeline struct {
	segmenter    Segmenter
	describer    Describer
	summarizer   Summarizer
	indexer      Indexer
	videos       *repository.VideoRepository
	jobs         *repository.JobRepository
	dataRoot     string
	stageTimeout time.Duration
	logger       *logger.Logger
}

// Config wires a Pipeline. Videos and Jobs may be nil for one-shot CLI runs
// that have no metadata database.
type Config struct {
	Segmenter    Segmenter
	Describer    Describer
	Summarizer   Summarizer
	Indexer      Indexer
	Videos       *repository.VideoRepository
	Jobs         *repository.JobRepository
	DataRoot     string
	StageTimeout time.Duration
	Logger       *logger.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		segmenter:    cfg.Segmenter,
		describer:    cfg.Describer,
		summarizer:   cfg.Summarizer,
		indexer:      cfg.Indexer,
		videos:       cfg.Videos,
		jobs:         cfg.Jobs,
		dataRoot:     cfg.DataRoot,
		stageTimeout: cfg.StageTimeout,
		logger:       cfg.Logger,
	}
}

// Result summarizes one pipeline run.
type Result struct {
	VideoFilename    string  `json:"video_filename"`
	JobID            string  `json:"job_id,omitempty"`
	Duration         float64 `json:"duration"`
	TotalChunks      int     `json:"total_chunks"`
	DescribedChunks  int     `json:"described_chunks"`
	SummarizedChunks int     `json:"summarized_chunks"`
	SkippedChunks    int     `json:"skipped_chunks"`
	IndexedScenes    int     `json:"indexed_scenes"`
	SetsDir          string  `json:"sets_dir"`
}

// SetsDir returns the working directory for one video's chunk artifacts.
func (p *Pipeline) SetsDir(videoFilename string) string {
	return filepath.Join(p.dataRoot, videoFilename)
}

// Run processes one source video. Segmentation failures are fatal; the
// later stages degrade per chunk or per scene and never abort the run.
// Video registry and job records are updated as the run progresses when a
// metadata database is wired in.
func (p *Pipeline) Run(ctx context.Context, videoPath string) (*Result, error) {
	videoFilename := filepath.Base(videoPath)
	setsDir := p.SetsDir(videoFilename)

	ctx = logger.SetVideo(ctx, videoFilename)

	video, job, err := p.begin(ctx, videoFilename, videoPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		VideoFilename: videoFilename,
		SetsDir:       setsDir,
	}
	if job != nil {
		result.JobID = job.ID
		ctx = logger.SetJobID(ctx, job.ID)
	}

	started := time.Now()
	logger.CtxInfo(ctx, "Pipeline run started")

	chunks, err := p.runSegment(ctx, videoPath, setsDir)
	if err != nil {
		p.fail(ctx, video, job, err)
		return nil, err
	}
	result.TotalChunks = len(chunks)
	if len(chunks) > 0 {
		result.Duration = chunks[len(chunks)-1].EndTime
	}

	describeStats, err := p.runDescribe(ctx, setsDir)
	if err != nil {
		p.fail(ctx, video, job, err)
		return nil, err
	}
	result.DescribedChunks = describeStats.Described

	summarizeStats, err := p.runSummarize(ctx, setsDir)
	if err != nil {
		p.fail(ctx, video, job, err)
		return nil, err
	}
	result.SummarizedChunks = summarizeStats.Summarized
	result.SkippedChunks = result.TotalChunks - summarizeStats.Summarized

	indexStats, err := p.runIndex(ctx, videoFilename, setsDir)
	if err != nil {
		p.fail(ctx, video, job, err)
		return nil, err
	}
	result.IndexedScenes = indexStats.Indexed

	p.complete(ctx, video, job, result)

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(started).Milliseconds(),
		"chunks":               result.TotalChunks,
		"indexed":              result.IndexedScenes,
		"skipped":              result.SkippedChunks,
	}).Info(ctx, "Pipeline run completed")

	return result, nil
}

func (p *Pipeline) stageCtx(ctx context.Context, stage string) (context.Context, context.CancelFunc) {
	ctx = logger.SetStage(ctx, stage)
	if p.stageTimeout > 0 {
		return context.WithTimeout(ctx, p.stageTimeout)
	}
	return context.WithCancel(ctx)
}

func (p *Pipeline) runSegment(ctx context.Context, videoPath, setsDir string) ([]domain.Chunk, error) {
	sctx, cancel := p.stageCtx(ctx, StageSegment)
	defer cancel()

	chunks, err := p.segmenter.Segment(sctx, videoPath, setsDir)
	if err != nil {
		return nil, fmt.Errorf("segment stage: %w", err)
	}
	return chunks, nil
}

func (p *Pipeline) runDescribe(ctx context.Context, setsDir string) (scene.DescribeStats, error) {
	sctx, cancel := p.stageCtx(ctx, StageDescribe)
	defer cancel()

	_, stats, err := p.describer.DescribeAll(sctx, setsDir)
	if err != nil {
		return stats, fmt.Errorf("describe stage: %w", err)
	}
	return stats, nil
}

func (p *Pipeline) runSummarize(ctx context.Context, setsDir string) (scene.SummarizeStats, error) {
	sctx, cancel := p.stageCtx(ctx, StageSummarize)
	defer cancel()

	_, stats, err := p.summarizer.Run(sctx, setsDir)
	if err != nil {
		return stats, fmt.Errorf("summarize stage: %w", err)
	}
	return stats, nil
}

func (p *Pipeline) runIndex(ctx context.Context, videoFilename, setsDir string) (index.IndexStats, error) {
	sctx, cancel := p.stageCtx(ctx, StageIndex)
	defer cancel()

	stats, err := p.indexer.IndexVideo(sctx, videoFilename, setsDir)
	if err != nil {
		return stats, fmt.Errorf("index stage: %w", err)
	}
	return stats, nil
}

// begin registers the video and opens a job record. Without a metadata
// database both returns are nil and the run is untracked.
func (p *Pipeline) begin(ctx context.Context, videoFilename, videoPath string) (*domain.Video, *domain.IngestJob, error) {
	if p.videos == nil || p.jobs == nil {
		return nil, nil, nil
	}

	video, err := p.videos.GetByFilename(ctx, videoFilename)
	if err != nil {
		return nil, nil, fmt.Errorf("look up video: %w", err)
	}
	if video == nil {
		video = &domain.Video{
			ID:         uuid.New().String(),
			Filename:   videoFilename,
			SourcePath: videoPath,
			Status:     domain.VideoStatusPending,
		}
		if err := p.videos.Create(ctx, video); err != nil {
			return nil, nil, fmt.Errorf("register video: %w", err)
		}
	}

	video.Status = domain.VideoStatusProcessing
	video.Error = ""
	if err := p.videos.Update(ctx, video); err != nil {
		return nil, nil, fmt.Errorf("update video status: %w", err)
	}

	job := &domain.IngestJob{
		ID:      uuid.New().String(),
		VideoID: video.ID,
		Status:  domain.JobStatusPending,
	}
	if err := p.jobs.Create(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("create job: %w", err)
	}
	if err := p.jobs.MarkRunning(ctx, job.ID); err != nil {
		return nil, nil, fmt.Errorf("start job: %w", err)
	}

	return video, job, nil
}

func (p *Pipeline) fail(ctx context.Context, video *domain.Video, job *domain.IngestJob, cause error) {
	logger.CtxError(ctx, "Pipeline run failed: %v", cause)

	if video != nil {
		if err := p.videos.SetStatus(ctx, video.ID, domain.VideoStatusFailed, cause.Error()); err != nil {
			logger.CtxError(ctx, "Failed to record video failure: %v", err)
		}
	}
	if job != nil {
		if err := p.jobs.MarkFailed(ctx, job.ID, cause.Error()); err != nil {
			logger.CtxError(ctx, "Failed to record job failure: %v", err)
		}
	}
}

func (p *Pipeline) complete(ctx context.Context, video *domain.Video, job *domain.IngestJob, result *Result) {
	if video != nil {
		video.Status = domain.VideoStatusReady
		video.Error = ""
		video.Duration = result.Duration
		video.ChunkCount = result.TotalChunks
		if err := p.videos.Update(ctx, video); err != nil {
			logger.CtxError(ctx, "Failed to record video completion: %v", err)
		}
	}
	if job != nil {
		job.TotalChunks = result.TotalChunks
		job.SummarizedChunks = result.SummarizedChunks
		job.SkippedChunks = result.SkippedChunks
		job.IndexedScenes = result.IndexedScenes
		if err := p.jobs.MarkCompleted(ctx, job); err != nil {
			logger.CtxError(ctx, "Failed to record job completion: %v", err)
		}
	}
}
