package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/colletr/colletr/backend/internal/gamification"
	"github.com/colletr/colletr/backend/internal/models"
	"github.com/colletr/colletr/backend/internal/valuation"
)

// OracleHandler fronts the identification/pricing gateway.
type OracleHandler struct {
	gateway valuation.Gateway
}

func NewOracleHandler(gateway valuation.Gateway) *OracleHandler {
	return &OracleHandler{gateway: gateway}
}

// Identify recognizes a photographed item. A failure is a 502: the client
// falls back to manual entry.
func (h *OracleHandler) Identify(c *gin.Context) {
	var req models.IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Accept both raw base64 and data URIs from camera capture.
	data := req.ImageData
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}
	imageBytes, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid base64 image data"})
		return
	}

	id, err := h.gateway.Identify(c.Request.Context(), imageBytes, req.CategoryHint)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.IdentifyResponse{
		Name:         id.Name,
		Manufacturer: id.Manufacturer,
		ItemType:     id.ItemType,
	})
}

// Valuate prices an item by name and condition. A gateway failure still
// answers 200 with the zero-valuation fallback so the add-item flow never
// blocks on the oracle.
func (h *OracleHandler) Valuate(c *gin.Context) {
	var req models.ValuateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Condition == "" {
		req.Condition = models.ConditionLoose
	}
	if !req.Condition.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid condition"})
		return
	}

	v, err := h.gateway.Valuate(c.Request.Context(), req.ItemName, req.Condition)
	if err != nil {
		v = valuation.FallbackValuation()
	}

	c.JSON(http.StatusOK, gin.H{
		"valuation": v,
		"rarity":    gamification.RarityFor(v.AveragePrice),
	})
}
