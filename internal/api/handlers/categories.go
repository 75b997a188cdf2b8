package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/colletr/colletr/backend/internal/catalog"
	"github.com/colletr/colletr/backend/internal/models"
)

type CategoryHandler struct {
	store *catalog.Store
}

func NewCategoryHandler(store *catalog.Store) *CategoryHandler {
	return &CategoryHandler{store: store}
}

// ListCategories returns the user-defined tags. Built-in categories are a
// fixed enum the client already knows.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"builtin": models.BuiltinCategories(),
		"custom":  h.store.Categories(),
	})
}

func (h *CategoryHandler) AddCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat, err := h.store.AddCategory(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "category": cat})
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// RenameCategory renames the tag and cascades onto every collection using
// the old name.
func (h *CategoryHandler) RenameCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found, err := h.store.RenameCategory(c.Request.Context(), c.Param("id"), req.Name)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"renamed": true})
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	found, err := h.store.DeleteCategory(c.Request.Context(), c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}
	var refErr *catalog.ReferentialIntegrityError
	if errors.As(err, &refErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      refErr.Error(),
			"references": refErr.References,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
