package domain

import "time"

// JobStatus represents the status of an ingest job.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IngestJob represents one pipeline run over a video and its progress metadata.
type IngestJob struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	VideoID        string     `gorm:"type:text;not null;index" json:"video_id"`
	Status         JobStatus  `gorm:"default:pending" json:"status"`
	TotalChunks    int        `gorm:"default:0" json:"total_chunks"`
	SummarizedChunks int      `gorm:"default:0" json:"summarized_chunks"`
	SkippedChunks  int        `gorm:"default:0" json:"skipped_chunks"`
	IndexedScenes  int        `gorm:"default:0" json:"indexed_scenes"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorLog       string     `json:"error_log,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for IngestJob.
func (IngestJob) TableName() string {
	return "ingest_jobs"
}
