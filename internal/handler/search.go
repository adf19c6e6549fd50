package handler

import (
	"context"
	"net/http"

	"property-assistant/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const invalidBodyMessage = "Invalid request body"

// Searcher runs one prompt through the search pipeline
type Searcher interface {
	Search(ctx context.Context, prompt string) *model.SearchResponse
}

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searcher Searcher, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		logger:   logger,
	}
}

// Search handles POST /search-properties and POST /api/v1/search.
// Every pipeline outcome, including failures, is written with status 200;
// only a body that cannot be read is a 400.
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("rejected search request", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse(invalidBodyMessage))
		return
	}

	var prompt string
	if req.Prompt != nil {
		prompt = *req.Prompt
	}

	c.JSON(http.StatusOK, h.searcher.Search(c.Request.Context(), prompt))
}
