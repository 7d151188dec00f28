package domain

import "fmt"

// Chunk is one fixed-duration segment of a video's timeline. Ordinals are
// 1-based; Name is the stable directory/id component derived from the ordinal.
type Chunk struct {
	Ordinal   int     `json:"ordinal"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// ChunkName returns the stable name for a 1-based chunk ordinal, e.g. "chunk_001".
func ChunkName(ordinal int) string {
	return fmt.Sprintf("chunk_%03d", ordinal)
}

// Name returns the chunk's stable name.
func (c Chunk) Name() string {
	return ChunkName(c.Ordinal)
}

// Duration returns the chunk length in seconds.
func (c Chunk) Duration() float64 {
	return c.EndTime - c.StartTime
}

// VisualCaption is a natural-language description of one sampled frame.
// Timestamp is absolute within the video, in seconds.
type VisualCaption struct {
	Timestamp   float64 `json:"timestamp"`
	Description string  `json:"description"`
}

// ChunkRecord is the immutable per-chunk output of the description stage,
// persisted as data.json inside the chunk directory.
type ChunkRecord struct {
	StartTime  float64         `json:"start_time"`
	EndTime    float64         `json:"end_time"`
	Transcript string          `json:"transcript"`
	Visuals    []VisualCaption `json:"visuals"`
}

// ContextRecord is a ChunkRecord plus the summary carried over from the
// previous scene, persisted as context_data.json before summary generation.
type ContextRecord struct {
	ChunkRecord
	PreviousContext *string `json:"previous_context"`
}

// SummarizedChunkRecord is the output of the summarization stage, persisted
// as summary_data.json. PreviousDescription is nil for the first scene and
// otherwise equals the scene_summary of the nearest preceding chunk whose
// summarization succeeded.
type SummarizedChunkRecord struct {
	StartTime           float64         `json:"start_time"`
	EndTime             float64         `json:"end_time"`
	PreviousDescription *string         `json:"previous_description"`
	SceneSummary        string          `json:"scene_summary"`
	Transcript          string          `json:"transcript"`
	Visuals             []VisualCaption `json:"visuals"`
}

// SceneID builds the vector index entry id for a chunk of a video,
// e.g. "movie.mp4_chunk_001". Unique per (video, chunk) pair.
func SceneID(videoFilename, chunkName string) string {
	return videoFilename + "_" + chunkName
}

// SceneHit is one semantic lookup result: where in the video the matching
// scene lies and how similar it is to the query.
type SceneHit struct {
	SceneID    string  `json:"scene_id"`
	Similarity float32 `json:"similarity"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Summary    string  `json:"summary"`
}
