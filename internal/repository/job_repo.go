package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/clipquery/clipquery/internal/domain"
)

// JobRepository handles ingest job records.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
func (r *JobRepository) Create(ctx context.Context, job *domain.IngestJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Update updates an existing job record.
func (r *JobRepository) Update(ctx context.Context, job *domain.IngestJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.IngestJob, error) {
	var job domain.IngestJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByVideo returns jobs for one video, newest first.
func (r *JobRepository) ListByVideo(ctx context.Context, videoID string) ([]domain.IngestJob, error) {
	var jobs []domain.IngestJob
	if err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkRunning transitions a job to running and stamps its start time.
func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.IngestJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.JobStatusRunning, "started_at": &now}).Error
}

// MarkCompleted transitions a job to completed with its final counters.
func (r *JobRepository) MarkCompleted(ctx context.Context, job *domain.IngestJob) error {
	now := time.Now()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	return r.db.WithContext(ctx).Save(job).Error
}

// MarkFailed transitions a job to failed and records the error.
func (r *JobRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.IngestJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.JobStatusFailed,
			"completed_at": &now,
			"error_log":    errMsg,
		}).Error
}
