// Package handlers implements the HTTP endpoints. Handlers validate input,
// call into the catalog/gateway/worker, and map domain errors to status
// codes: unresolved ids 404, validation 400, referential integrity 409,
// persistence failures 500.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/colletr/colletr/backend/internal/catalog"
	"github.com/colletr/colletr/backend/internal/gamification"
	"github.com/colletr/colletr/backend/internal/models"
)

type CollectionHandler struct {
	store *catalog.Store
}

func NewCollectionHandler(store *catalog.Store) *CollectionHandler {
	return &CollectionHandler{store: store}
}

func (h *CollectionHandler) ListCollections(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Collections())
}

func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req models.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Category == "" {
		req.Category = models.CategoryMixed
	}

	col, err := h.store.CreateCollection(c.Request.Context(), req.Name, req.Description, req.Category)
	if err != nil {
		// The collection exists in memory; the snapshot save failed.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "collection": col})
		return
	}
	c.JSON(http.StatusCreated, col)
}

func (h *CollectionHandler) UpdateCollection(c *gin.Context) {
	var req models.UpdateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	col, found, err := h.store.UpdateCollection(c.Request.Context(), c.Param("id"), req)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, col)
}

func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	found, err := h.store.DeleteCollection(c.Request.Context(), c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *CollectionHandler) GetStats(c *gin.Context) {
	stats, found := h.store.Stats(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetLevel derives the collector level from the collection's items.
func (h *CollectionHandler) GetLevel(c *gin.Context) {
	items, found := h.store.Items(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	c.JSON(http.StatusOK, gamification.ComputeLevel(items))
}

// GetAchievements evaluates the fixed achievement catalog, locked and
// unlocked alike, in its stable display order.
func (h *CollectionHandler) GetAchievements(c *gin.Context) {
	items, found := h.store.Items(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	c.JSON(http.StatusOK, gamification.ComputeAchievements(items))
}
