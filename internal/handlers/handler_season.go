package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
	"github.com/SscSPs/supply_chain_app/internal/dto"
	"github.com/SscSPs/supply_chain_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// seasonHandler handles the season maintenance routes.
type seasonHandler struct {
	seasonService    portssvc.SeasonSvc
	defaultBatchSize int
}

// RegisterSeasonRoutes registers the season backfill trigger. rg must already
// enforce the admin role.
func RegisterSeasonRoutes(rg *gin.RouterGroup, seasonService portssvc.SeasonSvc, defaultBatchSize int) {
	h := &seasonHandler{seasonService: seasonService, defaultBatchSize: defaultBatchSize}
	rg.POST("/seasons/backfill", h.backfillSeasons)
}

// backfillSeasons godoc
// @Summary Assign seasons to transactions recorded without one
// @Description Runs the season backfill synchronously and returns its summary.
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   request body dto.SeasonBackfillRequest false "Batch size override"
// @Success 200 {object} domain.SeasonBackfillResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Admin role required"
// @Failure 500 {object} map[string]string "Season backfill failed"
// @Security BearerAuth
// @Router /admin/seasons/backfill [post]
func (h *seasonHandler) backfillSeasons(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.SeasonBackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON for BackfillSeasons", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = h.defaultBatchSize
	}

	logger.Info("Received request to backfill seasons", slog.Int("batch_size", batchSize))
	result, err := h.seasonService.BackfillSeasons(c.Request.Context(), batchSize)
	if err != nil {
		respondChainError(c, logger, err, "Season backfill failed")
		return
	}

	c.JSON(http.StatusOK, result)
}
