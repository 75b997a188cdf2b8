package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/colletr/colletr/backend/internal/services"
)

type AlertHandler struct {
	worker *services.AlertWorker
}

func NewAlertHandler(worker *services.AlertWorker) *AlertHandler {
	return &AlertHandler{worker: worker}
}

// GetAlertStatus returns the worker snapshot plus recently triggered alerts.
func (h *AlertHandler) GetAlertStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.worker.GetStatus())
}
