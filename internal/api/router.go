package api

import (
	"github.com/gin-gonic/gin"

	"github.com/clipquery/clipquery/internal/api/handler"
	"github.com/clipquery/clipquery/internal/api/middleware"
	"github.com/clipquery/clipquery/internal/index"
	"github.com/clipquery/clipquery/internal/repository"
)

// RouterConfig carries the dependencies and settings of the HTTP surface.
type RouterConfig struct {
	Indexer *index.Indexer
	Videos  *repository.VideoRepository
	Jobs    *repository.JobRepository
	Runner  handler.PipelineRunner
	Mode    string
	CORS    middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler()
	queryHandler := handler.NewQueryHandler(cfg.Indexer)
	videoHandler := handler.NewVideoHandler(cfg.Videos, cfg.Jobs, cfg.Runner)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Semantic timestamp lookup
		v1.POST("/query", queryHandler.Query)

		// Videos and pipeline runs
		v1.POST("/videos", videoHandler.Ingest)
		v1.GET("/videos", videoHandler.List)
		v1.GET("/videos/:id", videoHandler.Get)

		// Jobs
		v1.GET("/jobs/:id", videoHandler.GetJob)
	}

	return r
}
