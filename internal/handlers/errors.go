package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// respondChainError maps service errors to HTTP responses. failMsg is the
// body of unexpected 500s.
func respondChainError(c *gin.Context, logger *slog.Logger, err error, failMsg string) {
	var (
		downloadErr *apperrors.LocationFileDownloadError
		notFoundErr *apperrors.TransactionNotFoundError
	)
	// Storage errors can wrap ErrNotFound, so download failures are checked first.
	switch {
	case errors.As(err, &downloadErr):
		logger.Error("Location file download failed",
			slog.String("failed_transaction_id", downloadErr.TransactionID),
			slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{
			"error":         "Failed to download location file",
			"transactionID": downloadErr.TransactionID,
		})
	case errors.As(err, &notFoundErr):
		logger.Warn("Transaction not found", slog.String("missing_transaction_id", notFoundErr.TransactionID))
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrChainDepthExceeded):
		logger.Warn("Chain too deep", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Chain exceeds the maximum supported depth"})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Forbidden", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	default:
		logger.Error(failMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": failMsg})
	}
}
