package domain

import "time"

// VideoStatus represents the processing status of a registered video.
// Values include VideoStatusPending, VideoStatusProcessing, VideoStatusReady,
// and VideoStatusFailed.
type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusReady      VideoStatus = "ready"
	VideoStatusFailed     VideoStatus = "failed"
)

// Video represents a source video registered with the system.
type Video struct {
	ID         string      `gorm:"type:text;primaryKey" json:"id"`
	Filename   string      `gorm:"type:text;not null;uniqueIndex:idx_videos_filename" json:"filename"`
	SourcePath string      `gorm:"type:text" json:"source_path"`
	Duration   float64     `json:"duration"`
	ChunkCount int         `json:"chunk_count"`
	Status     VideoStatus `gorm:"type:text;index:idx_videos_status;default:pending" json:"status"`
	Error      string      `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Video.
func (Video) TableName() string {
	return "videos"
}
