package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
	"github.com/SscSPs/supply_chain_app/internal/geo"
	"github.com/SscSPs/supply_chain_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Summary headers of the artifact downloads.
const (
	HeaderGeojsonMerged      = "X-Geojson-Merged-Transactions"
	HeaderGeojsonFailed      = "X-Geojson-Failed-Transactions"
	HeaderCustomLocationFile = "X-Custom-Location-File-Transactions"
	HeaderNoLocationFile     = "X-No-Location-File-Transactions"
)

const (
	contentTypeJSON = "application/json"
	contentTypeZIP  = "application/zip"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// artifactHandler handles downloads assembled from chain walks.
type artifactHandler struct {
	artifactService portssvc.ChainArtifactSvc
}

// newArtifactHandler creates a new artifactHandler.
func newArtifactHandler(as portssvc.ChainArtifactSvc) *artifactHandler {
	return &artifactHandler{artifactService: as}
}

// RegisterArtifactRoutes registers the chain download routes.
func RegisterArtifactRoutes(rg *gin.RouterGroup, artifactService portssvc.ChainArtifactSvc) {
	h := newArtifactHandler(artifactService)

	chain := rg.Group("/transactions/:transactionID/chain")
	{
		chain.GET("/geojson", h.getChainGeoJSON)
		chain.GET("/locations.zip", h.getChainLocationBundle)
		chain.GET("/csv", h.getChainCSV)
	}
}

// RegisterAdminArtifactRoutes registers the downloads reserved to admins.
// rg must already enforce the admin role.
func RegisterAdminArtifactRoutes(rg *gin.RouterGroup, artifactService portssvc.ChainArtifactSvc) {
	h := newArtifactHandler(artifactService)
	rg.GET("/transactions/:transactionID/chain/csv", h.getAdminChainCSV)
}

// getChainGeoJSON godoc
// @Summary Merge the location files of a chain's roots
// @Description Returns one FeatureCollection merging the QR location files of the chain roots. Every feature carries a transaction_id property.
// @Tags artifacts
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Header  200 {integer} X-Geojson-Merged-Transactions "Files merged"
// @Header  200 {integer} X-Geojson-Failed-Transactions "Files missing or invalid"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Chain too deep"
// @Failure 502 {object} map[string]string "Location file storage unavailable"
// @Failure 500 {object} map[string]string "Failed to merge GeoJSON"
// @Security BearerAuth
// @Router /transactions/{transactionID}/chain/geojson [get]
func (h *artifactHandler) getChainGeoJSON(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")
	logger = logger.With(slog.String("transaction_id", transactionID))

	result, err := h.artifactService.MergeChainGeoJSON(c.Request.Context(), transactionID)
	if err != nil {
		respondChainError(c, logger, err, "Failed to merge GeoJSON")
		return
	}

	body, err := geo.Marshal(result.Collection)
	if err != nil {
		logger.Error("Failed to encode merged GeoJSON", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to merge GeoJSON"})
		return
	}

	c.Header(HeaderGeojsonMerged, strconv.Itoa(len(result.SucceededIDs)))
	c.Header(HeaderGeojsonFailed, strconv.Itoa(len(result.FailedIDs)))
	c.Data(http.StatusOK, contentTypeJSON, body)
}

// getChainLocationBundle godoc
// @Summary Download the location files of a chain
// @Description Returns a ZIP with one {transactionID}.geojson per valid QR location file of the chain plus merged.geojson.
// @Tags artifacts
// @Produce  application/zip
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {file} file "ZIP archive"
// @Header  200 {integer} X-Total-Transactions "Transactions in the chain"
// @Header  200 {integer} X-Geojson-Merged-Transactions "Files merged"
// @Header  200 {integer} X-Custom-Location-File-Transactions "Transactions with an uploaded file"
// @Header  200 {integer} X-No-Location-File-Transactions "Transactions without a usable file"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Chain too deep"
// @Failure 500 {object} map[string]string "Failed to build location bundle"
// @Security BearerAuth
// @Router /transactions/{transactionID}/chain/locations.zip [get]
func (h *artifactHandler) getChainLocationBundle(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")
	logger = logger.With(slog.String("transaction_id", transactionID))

	bundle, err := h.artifactService.BuildChainLocationBundle(c.Request.Context(), transactionID)
	if err != nil {
		respondChainError(c, logger, err, "Failed to build location bundle")
		return
	}

	c.Header(HeaderTotalTransactions, strconv.Itoa(bundle.TotalTransactions))
	c.Header(HeaderGeojsonMerged, strconv.Itoa(len(bundle.MergedIDs)))
	c.Header(HeaderCustomLocationFile, strconv.Itoa(len(bundle.CustomLocationFileIDs)))
	c.Header(HeaderNoLocationFile, strconv.Itoa(len(bundle.NoLocationFileIDs)))
	c.Header("Content-Disposition", attachment("chain-"+transactionID+"-locations.zip"))
	c.Data(http.StatusOK, contentTypeZIP, bundle.Archive)
}

// getChainCSV godoc
// @Summary Export a chain as CSV
// @Description Flattens the commodity chain into CSV rows. Contact details are omitted.
// @Tags artifacts
// @Produce  text/csv
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {file} file "CSV export"
// @Header  200 {integer} X-Total-Transactions "Rows exported"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Chain too deep"
// @Failure 500 {object} map[string]string "Failed to export chain"
// @Security BearerAuth
// @Router /transactions/{transactionID}/chain/csv [get]
func (h *artifactHandler) getChainCSV(c *gin.Context) {
	h.exportCSV(c, domain.CSVVariantUser)
}

// getAdminChainCSV godoc
// @Summary Export a chain as CSV with contact details
// @Description Same as the user export plus verified phone numbers and email addresses.
// @Tags admin
// @Produce  text/csv
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {file} file "CSV export"
// @Header  200 {integer} X-Total-Transactions "Rows exported"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Admin role required"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to export chain"
// @Security BearerAuth
// @Router /admin/transactions/{transactionID}/chain/csv [get]
func (h *artifactHandler) getAdminChainCSV(c *gin.Context) {
	h.exportCSV(c, domain.CSVVariantAdmin)
}

func (h *artifactHandler) exportCSV(c *gin.Context, variant domain.CSVVariant) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")
	logger = logger.With(slog.String("transaction_id", transactionID), slog.String("variant", string(variant)))

	export, err := h.artifactService.ExportChainCSV(c.Request.Context(), transactionID, variant)
	if err != nil {
		respondChainError(c, logger, err, "Failed to export chain")
		return
	}

	c.Header(HeaderTotalTransactions, strconv.Itoa(export.Rows))
	c.Header("Content-Disposition", attachment("chain-"+transactionID+".csv"))
	c.Data(http.StatusOK, contentTypeCSV, export.Content)
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
