package restapi

import (
	"errors"
	"net/http"

	"github.com/InNinoWeTrust/covalent/internal/app/port"
	"github.com/InNinoWeTrust/covalent/internal/config"
	"github.com/InNinoWeTrust/covalent/internal/domain/entity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddressRequest is the JSON body of the relay and session endpoints.
type AddressRequest struct {
	Address string `json:"address"`
}

// TokensResponse is the relay response carrying the raw balance records.
type TokensResponse struct {
	Tokens []entity.TokenBalance `json:"tokens"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse wraps the session returned by connect.
type SessionResponse struct {
	Session entity.Session `json:"session"`
}

// GalleryHandler handles HTTP requests for the token relay, wallet
// sessions and gallery rendering.
type GalleryHandler struct {
	balances port.BalanceFetcher
	sessions port.SessionManager
	gallery  port.GalleryService
	logger   *zap.Logger
}

// NewGalleryHandler creates a new instance of GalleryHandler.
func NewGalleryHandler(balances port.BalanceFetcher, sessions port.SessionManager, gallery port.GalleryService, logger *zap.Logger) *GalleryHandler {
	return &GalleryHandler{
		balances: balances,
		sessions: sessions,
		gallery:  gallery,
		logger:   logger.Named("GalleryHandler"),
	}
}

// GetTokenBalancesHandler relays a balance query to the indexing API and
// returns the raw token list. Upstream failures map to a 500 with an
// error field, per the relay contract.
func (h *GalleryHandler) GetTokenBalancesHandler(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Address == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "address is required"})
		return
	}

	tokens, err := h.balances.GetTokenBalances(c.Request.Context(), config.ChainID, req.Address)
	if err != nil {
		h.logger.Error("Balance relay failed", zap.String("address", req.Address), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, TokensResponse{Tokens: tokens})
}

// ConnectSessionHandler creates or replaces the wallet session for an
// address.
func (h *GalleryHandler) ConnectSessionHandler(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Address == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "address is required"})
		return
	}

	sess := h.sessions.Connect(req.Address)
	c.JSON(http.StatusOK, SessionResponse{Session: sess})
}

// DisconnectSessionHandler removes the wallet session for an address.
func (h *GalleryHandler) DisconnectSessionHandler(c *gin.Context) {
	address := c.Param("address")
	if !h.sessions.Disconnect(address) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: entity.ErrSessionNotFound.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetGalleryHandler runs a full rendering pass for a connected session.
// Per-contract and per-token failures arrive inside the gallery body;
// only a failed balance fetch produces a 500.
func (h *GalleryHandler) GetGalleryHandler(c *gin.Context) {
	address := c.Param("address")

	gallery, err := h.gallery.BuildGallery(c.Request.Context(), address)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrSessionNotFound):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		case errors.Is(err, entity.ErrStaleGeneration):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		default:
			h.logger.Error("Gallery rendering pass failed", zap.String("address", address), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gallery)
}
