package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/colletr/colletr/backend/internal/catalog"
	"github.com/colletr/colletr/backend/internal/gamification"
	"github.com/colletr/colletr/backend/internal/models"
	"github.com/colletr/colletr/backend/internal/services"
	"github.com/colletr/colletr/backend/internal/valuation"
)

type ItemHandler struct {
	store   *catalog.Store
	gateway valuation.Gateway
	worker  *services.AlertWorker
}

func NewItemHandler(store *catalog.Store, gateway valuation.Gateway, worker *services.AlertWorker) *ItemHandler {
	return &ItemHandler{store: store, gateway: gateway, worker: worker}
}

func (h *ItemHandler) ListItems(c *gin.Context) {
	items, found := h.store.Items(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Condition != "" && !req.Condition.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid condition"})
		return
	}

	item, found, err := h.store.AddItem(c.Request.Context(), c.Param("id"), req)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "item": item})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Condition != nil && !req.Condition.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid condition"})
		return
	}

	item, found, err := h.store.UpdateItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), req)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	found, err := h.store.DeleteItem(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// RefreshValuation re-prices one item. The token from BeginValuation guards
// against overlapping refreshes: whichever request began last wins, the
// other result is discarded. On gateway failure the stored valuation stays
// untouched, the item is queued for a retry by the alert worker, and the
// response carries the zero-valuation fallback.
func (h *ItemHandler) RefreshValuation(c *gin.Context) {
	collectionID := c.Param("id")
	itemID := c.Param("itemId")

	items, found := h.store.Items(collectionID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	var item *models.Item
	for i := range items {
		if items[i].ID == itemID {
			item = &items[i]
			break
		}
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	token, ok := h.store.BeginValuation(collectionID, itemID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	v, err := h.gateway.Valuate(c.Request.Context(), item.Name, item.Condition)
	if err != nil {
		position := 0
		if h.worker != nil {
			position = h.worker.QueueRefresh(itemID)
		}
		c.JSON(http.StatusOK, gin.H{
			"applied":         false,
			"queued_position": position,
			"valuation":       valuation.FallbackValuation(),
		})
		return
	}

	applied, err := h.store.ApplyValuation(c.Request.Context(), collectionID, itemID, token, *v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"applied":   applied,
		"valuation": v,
		"rarity":    gamification.RarityFor(v.AveragePrice),
	})
}

func (h *ItemHandler) SetPriceAlert(c *gin.Context) {
	var req models.SetPriceAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found, err := h.store.SetPriceAlert(c.Request.Context(), c.Param("id"), c.Param("itemId"), models.PriceAlert{
		Enabled:             req.Enabled,
		ThresholdPercentage: req.ThresholdPercentage,
		LastCheckedPrice:    req.LastCheckedPrice,
	})
	if errors.Is(err, catalog.ErrInvalidThreshold) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert_set": true})
}
