package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipquery/clipquery/internal/index"
	"github.com/clipquery/clipquery/internal/logger"
)

const defaultTopK = 5

// QueryHandler serves semantic timestamp lookups.
type QueryHandler struct {
	indexer *index.Indexer
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(indexer *index.Indexer) *QueryHandler {
	return &QueryHandler{indexer: indexer}
}

// QueryRequest is the body of POST /api/v1/query.
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
	Video string `json:"video"`
}

// Query embeds the request text and returns the most similar scenes with
// their time ranges. An empty index yields an empty result list.
func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	var video *string
	if req.Video != "" {
		video = &req.Video
	}

	ctx := c.Request.Context()
	hits, err := h.indexer.Query(ctx, req.Query, topK, video)
	if err != nil {
		logger.CtxError(ctx, "Query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   req.Query,
		"count":   len(hits),
		"results": hits,
	})
}
