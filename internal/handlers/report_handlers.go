package handlers

import (
	"net/http"

	"farm_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves aggregated inventory reports.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetInventorySummary returns stock and batch counts with total stock value.
func (h *ReportHandler) GetInventorySummary(c *gin.Context) {
	summary, err := h.reportService.InventorySummary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "build inventory summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
