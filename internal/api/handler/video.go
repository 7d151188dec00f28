package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clipquery/clipquery/internal/logger"
	"github.com/clipquery/clipquery/internal/pipeline"
	"github.com/clipquery/clipquery/internal/repository"
)

// PipelineRunner runs the full ingest pipeline over one local video file.
type PipelineRunner interface {
	Run(ctx context.Context, videoPath string) (*pipeline.Result, error)
}

// VideoHandler handles video registration, processing, and job inspection.
type VideoHandler struct {
	videos *repository.VideoRepository
	jobs   *repository.JobRepository
	runner PipelineRunner
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(videos *repository.VideoRepository, jobs *repository.JobRepository, runner PipelineRunner) *VideoHandler {
	return &VideoHandler{videos: videos, jobs: jobs, runner: runner}
}

// IngestRequest is the body of POST /api/v1/videos.
type IngestRequest struct {
	SourcePath string `json:"source_path" binding:"required"`
}

// Ingest kicks off a pipeline run for a local video file and returns
// immediately. Progress is tracked through the video and job records the
// run updates as it goes.
func (h *VideoHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_path is required"})
		return
	}

	// The request context dies with the response; the run gets its own.
	ctx := logger.GetDefault().WithContext(context.Background())
	go func() {
		if _, err := h.runner.Run(ctx, req.SourcePath); err != nil {
			logger.CtxError(ctx, "Ingest run failed for %s: %v", req.SourcePath, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status":      "accepted",
		"source_path": req.SourcePath,
	})
}

// List returns registered videos, newest first.
func (h *VideoHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	videos, err := h.videos.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list videos"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(videos),
		"videos": videos,
	})
}

// Get returns one video with its jobs.
func (h *VideoHandler) Get(c *gin.Context) {
	id := c.Param("id")

	video, err := h.videos.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load video"})
		return
	}

	jobs, err := h.jobs.ListByVideo(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video": video,
		"jobs":  jobs,
	})
}

// GetJob returns one ingest job.
func (h *VideoHandler) GetJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}

	c.JSON(http.StatusOK, job)
}
