package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/clipquery/clipquery/internal/logger"
)

// Bucket layout.
const (
	videoPrefix    = "videos/"
	artifactPrefix = "artifacts/"
)

// Rollup documents uploaded after a pipeline run.
var artifactFiles = []string{"all_sets_data.json", "all_summary_data.json"}

// VideoStore adapts an ObjectStorage for the pipeline: it pulls remote
// source videos down to local disk for ffmpeg, and pushes the per-video
// rollup documents back up after a run.
type VideoStore struct {
	store ObjectStorage
}

// NewVideoStore wraps an ObjectStorage.
func NewVideoStore(store ObjectStorage) *VideoStore {
	return &VideoStore{store: store}
}

// VideoKey returns the object key for a source video filename.
func VideoKey(filename string) string {
	return videoPrefix + filename
}

// ArtifactKey returns the object key for one rollup document of a video.
func ArtifactKey(videoFilename, artifact string) string {
	return artifactPrefix + videoFilename + "/" + artifact
}

// FetchVideo downloads a source video into destDir and returns the local
// path. ffmpeg needs a seekable file, so the object is materialized on disk
// rather than streamed.
func (v *VideoStore) FetchVideo(ctx context.Context, filename, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	body, err := v.store.Download(ctx, VideoKey(filename))
	if err != nil {
		return "", fmt.Errorf("fetch video %s: %w", filename, err)
	}
	defer body.Close()

	localPath := filepath.Join(destDir, filename)
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create local video file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, body)
	if err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("download video %s: %w", filename, err)
	}

	logger.With(logger.Fields{"bytes": n, logger.FieldVideo: filename}).Info(ctx, "Fetched source video")
	return localPath, nil
}

// UploadVideo pushes a local source video into the bucket.
func (v *VideoStore) UploadVideo(ctx context.Context, localPath string) (string, error) {
	filename := filepath.Base(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat video file: %w", err)
	}

	key := VideoKey(filename)
	if err := v.store.Upload(ctx, key, f, info.Size(), "video/mp4"); err != nil {
		return "", fmt.Errorf("upload video %s: %w", filename, err)
	}

	return key, nil
}

// UploadArtifacts pushes the rollup documents of one processed video.
// Missing rollups are skipped: a run that described nothing still produced
// valid (empty) collections, but an interrupted run may not have written
// them at all.
func (v *VideoStore) UploadArtifacts(ctx context.Context, videoFilename, setsDir string) error {
	for _, artifact := range artifactFiles {
		localPath := filepath.Join(setsDir, artifact)

		f, err := os.Open(localPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("open artifact %s: %w", artifact, err)
		}

		info, err := f.Stat()
		if err != nil {
			f.Close()
			return fmt.Errorf("stat artifact %s: %w", artifact, err)
		}

		err = v.store.Upload(ctx, ArtifactKey(videoFilename, artifact), f, info.Size(), "application/json")
		f.Close()
		if err != nil {
			return fmt.Errorf("upload artifact %s: %w", artifact, err)
		}
	}

	return nil
}
