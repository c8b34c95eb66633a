package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
	"github.com/SscSPs/supply_chain_app/internal/dto"
	"github.com/SscSPs/supply_chain_app/internal/middleware"
	"github.com/SscSPs/supply_chain_app/internal/utils/pagination"
	"github.com/gin-gonic/gin"
)

// HeaderTotalTransactions carries the number of transactions in a chain response.
const HeaderTotalTransactions = "X-Total-Transactions"

// chainHandler handles HTTP requests related to transaction chains.
type chainHandler struct {
	chainService        portssvc.ChainSvcFacade
	traceabilityService portssvc.TraceabilitySvcFacade
}

// newChainHandler creates a new chainHandler.
func newChainHandler(cs portssvc.ChainSvcFacade, ts portssvc.TraceabilitySvcFacade) *chainHandler {
	return &chainHandler{
		chainService:        cs,
		traceabilityService: ts,
	}
}

// RegisterChainRoutes registers the chain walk and traceability routes.
func RegisterChainRoutes(rg *gin.RouterGroup, chainService portssvc.ChainSvcFacade, traceabilityService portssvc.TraceabilitySvcFacade) {
	h := newChainHandler(chainService, traceabilityService)

	transactions := rg.Group("/transactions/:transactionID")
	{
		transactions.GET("/chain", h.getChain)
		transactions.GET("/chain/first", h.getFirstChain)
		transactions.GET("/chain/geodata-requests", h.getGeodataRequests)
		transactions.GET("/traceability", h.getTraceability)
		transactions.GET("/traceability-counts", h.getTraceabilityCounts)
	}

	rg.GET("/parties/:partyID/plots-count", h.getPlotsCount)
}

// getChain godoc
// @Summary Get the upstream chain of a transaction
// @Description Walks the accepted upstream chain of a transaction. scope=commodity (default) stays within the anchor's commodity, scope=conversion follows conversion groups across commodities.
// @Tags chain
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Param   scope query string false "Walk scope" Enums(commodity, conversion)
// @Param   limit query int false "Page size, the whole chain when omitted"
// @Param   next_token query string false "Token from the previous page"
// @Success 200 {object} dto.ChainResponse
// @Header  200 {integer} X-Total-Transactions "Number of transactions in the chain"
// @Failure 400 {object} map[string]string "Invalid scope or pagination token"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Chain too deep"
// @Failure 500 {object} map[string]string "Failed to load chain"
// @Security BearerAuth
// @Router /transactions/{transactionID}/chain [get]
func (h *chainHandler) getChain(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	var params dto.ChainQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for GetChain", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	if params.Scope == "" {
		params.Scope = dto.ChainScopeCommodity
	}

	logger = logger.With(slog.String("transaction_id", transactionID), slog.String("scope", params.Scope))
	logger.Info("Received request to get chain")

	offset := 0
	if params.NextToken != "" {
		var err error
		offset, err = pagination.DecodeOffsetToken(params.NextToken, transactionID, params.Scope)
		if err != nil {
			logger.Warn("Invalid chain pagination token", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid next_token: " + err.Error()})
			return
		}
	}

	getChain := h.chainService.GetChainTransactions
	if params.Scope == dto.ChainScopeConversion {
		getChain = h.chainService.GetConversionChainTransactions
	}
	chain, err := getChain(c.Request.Context(), transactionID)
	if err != nil {
		respondChainError(c, logger, err, "Failed to load chain")
		return
	}

	page, next := pagination.Window(chain, offset, params.Limit)
	resp := dto.ToChainResponse(transactionID, params.Scope, page)
	resp.Total = len(chain)
	if next > 0 {
		token := pagination.EncodeOffsetToken(next, transactionID, params.Scope)
		resp.NextToken = &token
	}

	logger.Info("Chain retrieved successfully", slog.Int("count", len(chain)), slog.Int("page_size", len(page)))
	c.Header(HeaderTotalTransactions, strconv.Itoa(len(chain)))
	c.JSON(http.StatusOK, resp)
}

// getFirstChain godoc
// @Summary Get the chain roots of a transaction
// @Description Returns the accepted producer-side roots reached from a transaction, optionally only those without a location.
// @Tags chain
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Param   missing_location query bool false "Only roots without a location"
// @Success 200 {object} dto.ChainResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Chain too deep"
// @Failure 500 {object} map[string]string "Failed to load chain roots"
// @Security BearerAuth
// @Router /transactions/{transactionID}/chain/first [get]
func (h *chainHandler) getFirstChain(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	var params dto.FirstChainQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for GetFirstChain", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("transaction_id", transactionID))
	roots, err := h.chainService.GetFirstChainTransactions(c.Request.Context(), transactionID, params.MissingLocation)
	if err != nil {
		respondChainError(c, logger, err, "Failed to load chain roots")
		return
	}

	c.Header(HeaderTotalTransactions, strconv.Itoa(len(roots)))
	c.JSON(http.StatusOK, dto.ToChainResponse(transactionID, "", roots))
}

// getGeodataRequests godoc
// @Summary List the buyers to ask for missing geodata
// @Description Groups the chain roots without a location by the buyer that recorded them.
// @Tags chain
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} dto.GeodataRequestsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to load geodata requests"
// @Security BearerAuth
// @Router /transactions/{transactionID}/chain/geodata-requests [get]
func (h *chainHandler) getGeodataRequests(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")
	logger = logger.With(slog.String("transaction_id", transactionID))

	targets, err := h.chainService.GetGeodataRequestTargets(c.Request.Context(), transactionID)
	if err != nil {
		respondChainError(c, logger, err, "Failed to load geodata requests")
		return
	}

	logger.Info("Geodata request targets resolved", slog.Int("buyers", len(targets)))
	c.JSON(http.StatusOK, dto.GeodataRequestsResponse{TransactionID: transactionID, Buyers: targets})
}

// getTraceability godoc
// @Summary Get the traceability grade of a transaction
// @Description Returns the stored grade, or computes it when the transaction has none.
// @Tags traceability
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TraceabilityResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to resolve traceability"
// @Security BearerAuth
// @Router /transactions/{transactionID}/traceability [get]
func (h *chainHandler) getTraceability(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")
	logger = logger.With(slog.String("transaction_id", transactionID))

	grade, err := h.traceabilityService.ResolveTransactionTraceability(c.Request.Context(), transactionID)
	if err != nil {
		respondChainError(c, logger, err, "Failed to resolve traceability")
		return
	}

	c.JSON(http.StatusOK, dto.TraceabilityResponse{TransactionID: transactionID, Traceability: grade})
}

// getTraceabilityCounts godoc
// @Summary Count traceability grades along a chain
// @Description Tallies the stored grades of every transaction in the commodity chain, anchor included.
// @Tags traceability
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TraceabilityCountsResponse
// @Header  200 {integer} X-Total-Transactions "Number of transactions counted"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Chain too deep"
// @Failure 500 {object} map[string]string "Failed to count traceability"
// @Security BearerAuth
// @Router /transactions/{transactionID}/traceability-counts [get]
func (h *chainHandler) getTraceabilityCounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")
	logger = logger.With(slog.String("transaction_id", transactionID))

	counts, err := h.chainService.GetTraceabilityCounts(c.Request.Context(), transactionID)
	if err != nil {
		respondChainError(c, logger, err, "Failed to count traceability")
		return
	}

	resp := dto.ToTraceabilityCountsResponse(transactionID, counts)
	c.Header(HeaderTotalTransactions, strconv.Itoa(resp.Total))
	c.JSON(http.StatusOK, resp)
}

// getPlotsCount godoc
// @Summary Count the farm plots behind a party's purchases
// @Description Walks every accepted purchase of the party and counts distinct root farm coordinates.
// @Tags chain
// @Produce  json
// @Param   partyID path string true "Party ID"
// @Success 200 {object} dto.PlotsCountResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden (another party's plots)"
// @Failure 422 {object} map[string]string "Chain too deep"
// @Failure 500 {object} map[string]string "Failed to count plots"
// @Security BearerAuth
// @Router /parties/{partyID}/plots-count [get]
func (h *chainHandler) getPlotsCount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partyID := c.Param("partyID")

	callerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if callerID != partyID && middleware.GetRoleFromContext(c) != middleware.RoleAdmin {
		logger.Warn("Party forbidden to count another party's plots", slog.String("target_party_id", partyID))
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	logger = logger.With(slog.String("party_id", partyID))
	plots, err := h.chainService.CountUserPlots(c.Request.Context(), partyID)
	if err != nil {
		respondChainError(c, logger, err, "Failed to count plots")
		return
	}

	c.JSON(http.StatusOK, dto.PlotsCountResponse{PartyID: partyID, Plots: plots})
}
