package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/clipquery/clipquery/internal/logger"
	"github.com/clipquery/clipquery/internal/storage"
)

// RemoteRunner wraps a Pipeline with object storage: source references that
// do not exist on local disk are fetched from the bucket first, and the
// rollup documents are uploaded after a successful run.
type RemoteRunner struct {
	pipeline *Pipeline
	store    *storage.VideoStore
	workDir  string
}

// NewRemoteRunner creates a RemoteRunner. workDir is where fetched videos
// are materialized.
func NewRemoteRunner(p *Pipeline, store *storage.VideoStore, workDir string) *RemoteRunner {
	return &RemoteRunner{pipeline: p, store: store, workDir: workDir}
}

// Run resolves the source reference and runs the pipeline. A bare filename
// that is not a local file is treated as an object key in the video bucket.
func (r *RemoteRunner) Run(ctx context.Context, videoRef string) (*Result, error) {
	videoPath := videoRef

	if _, err := os.Stat(videoRef); err != nil {
		fetched, ferr := r.store.FetchVideo(ctx, filepath.Base(videoRef), r.workDir)
		if ferr != nil {
			return nil, ferr
		}
		videoPath = fetched
	}

	result, err := r.pipeline.Run(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	if err := r.store.UploadArtifacts(ctx, result.VideoFilename, result.SetsDir); err != nil {
		// The index is already populated; a failed artifact upload is not
		// worth failing the whole run over.
		logger.CtxWarn(ctx, "Artifact upload failed for %s: %v", result.VideoFilename, err)
	}

	return result, nil
}
