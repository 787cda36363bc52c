package restapi

import (
	"context"
	"net/http"
	"time"

	"token_screener/internal/app/port"
	"token_screener/internal/domain/entity"
	"token_screener/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	minCompareAddresses = 2
	maxCompareAddresses = 20
	compareBodyError    = "Body must contain 'addresses' (array, 2–20 items)"
)

// TokensResponse is the body of GET /api/tokens.
type TokensResponse struct {
	Tokens []entity.ProcessedToken `json:"tokens"`
}

// RefreshResponse is the body of POST /api/refresh-cache.
type RefreshResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CompareRequest is the body of POST /api/compare.
type CompareRequest struct {
	Addresses []string `json:"addresses"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string               `json:"status"`
	State     entity.SnapshotState `json:"state"`
	Tokens    int                  `json:"tokens"`
	UpdatedAt *time.Time           `json:"updated_at,omitempty"`
}

// ErrorResponse is a generic error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TokenHandler обрабатывает HTTP запросы, связанные с токенами.
type TokenHandler struct {
	snapshots port.SnapshotService
	logger    *zap.Logger
}

// NewTokenHandler создает новый экземпляр TokenHandler.
func NewTokenHandler(snapshots port.SnapshotService, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		snapshots: snapshots,
		logger:    logger.Named("TokenHandler"),
	}
}

// GetTokensHandler returns the published snapshot. It never waits for a refresh.
func (h *TokenHandler) GetTokensHandler(c *gin.Context) {
	c.JSON(http.StatusOK, TokensResponse{Tokens: h.snapshots.Tokens()})
}

// RefreshCacheHandler runs a forced refresh and reports its outcome.
func (h *TokenHandler) RefreshCacheHandler(c *gin.Context) {
	// The cycle runs to completion even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())

	if err := h.snapshots.Refresh(ctx, true); err != nil {
		h.logger.Error("Forced refresh failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, RefreshResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, RefreshResponse{Success: true, Message: "Cache refreshed successfully"})
}

// CompareHandler returns the snapshot tokens matching 2 to 20 requested addresses.
func (h *TokenHandler) CompareHandler(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: compareBodyError})
		return
	}
	if len(req.Addresses) < minCompareAddresses || len(req.Addresses) > maxCompareAddresses {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: compareBodyError})
		return
	}

	c.JSON(http.StatusOK, h.snapshots.Compare(utils.UniqueStrings(req.Addresses)))
}

// HealthHandler reports the snapshot state.
func (h *TokenHandler) HealthHandler(c *gin.Context) {
	resp := HealthResponse{Status: "ok", State: h.snapshots.State()}
	if snap := h.snapshots.Snapshot(); snap != nil {
		resp.Tokens = snap.Len()
		publishedAt := snap.PublishedAt
		resp.UpdatedAt = &publishedAt
	}
	c.JSON(http.StatusOK, resp)
}
