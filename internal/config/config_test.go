package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// No config file: defaults apply.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "video_scenes", cfg.Qdrant.Collection)
	require.Equal(t, 15.0, cfg.Pipeline.ChunkSeconds)
	require.Equal(t, 2.0, cfg.Pipeline.FrameIntervalSeconds)
	require.Equal(t, 1536, cfg.Embedding.Dimensions)
	require.Equal(t, 30*time.Minute, cfg.Pipeline.StageTimeout)
}

func TestValidateRejectsBadChunkSeconds(t *testing.T) {
	cfg := &Config{
		Pipeline:  Pipeline{ChunkSeconds: 0, FrameIntervalSeconds: 2},
		Embedding: Embedding{Dimensions: 1536},
	}
	require.Error(t, cfg.Validate())

	cfg.Pipeline.ChunkSeconds = -5
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadFrameInterval(t *testing.T) {
	cfg := &Config{
		Pipeline:  Pipeline{ChunkSeconds: 15, FrameIntervalSeconds: 0},
		Embedding: Embedding{Dimensions: 1536},
	}
	require.Error(t, cfg.Validate())
}

func TestValidateClampsWorkers(t *testing.T) {
	cfg := &Config{
		Pipeline:  Pipeline{ChunkSeconds: 15, FrameIntervalSeconds: 2, DescribeWorkers: 0, IndexWorkers: -3},
		Embedding: Embedding{Dimensions: 1536},
	}
	require.NoError(t, cfg.Validate())
	require.Equal(t, 1, cfg.Pipeline.DescribeWorkers)
	require.Equal(t, 1, cfg.Pipeline.IndexWorkers)
}

func TestValidateRejectsBadDimensions(t *testing.T) {
	cfg := &Config{
		Pipeline:  Pipeline{ChunkSeconds: 15, FrameIntervalSeconds: 2},
		Embedding: Embedding{Dimensions: 0},
	}
	require.Error(t, cfg.Validate())
}
