package handlers

import (
	"net/http"

	"farm_backend/internal/models"
	"farm_backend/internal/services"
	"farm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BatchHandler serves received lots and their quality checks.
type BatchHandler struct {
	batchService services.BatchService
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(bs services.BatchService) *BatchHandler {
	return &BatchHandler{batchService: bs}
}

// CreateBatch receives a new pending batch for an item.
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CreateBatchRequest
	if !bindJSON(c, &req, "CreateBatch") {
		return
	}
	batch, err := h.batchService.CreateBatch(c.Request.Context(), caller, itemID, req)
	if err != nil {
		respondServiceError(c, err, "create batch")
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// ListBatches lists an item's batches, optionally by status.
func (h *BatchHandler) ListBatches(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var status *models.BatchStatus
	if raw := c.Query("status"); raw != "" {
		s := models.BatchStatus(raw)
		if !s.IsValid() {
			utils.RespondValidationFailed(c, map[string]string{"status": "must be one of: pending active quarantine"})
			return
		}
		status = &s
	}
	batches, err := h.batchService.ListBatches(c.Request.Context(), itemID, status)
	if err != nil {
		respondServiceError(c, err, "list batches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": batches})
}

// GetBatch returns a batch with its latest quality check.
func (h *BatchHandler) GetBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.batchService.GetBatch(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "fetch batch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// RecordQualityCheck grades a batch from its moisture reading.
func (h *BatchHandler) RecordQualityCheck(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.QualityCheckRequest
	if !bindJSON(c, &req, "RecordQualityCheck") {
		return
	}
	result, err := h.batchService.RecordQualityCheck(c.Request.Context(), caller, id, req)
	if err != nil {
		respondServiceError(c, err, "record quality check")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetQualityChecks lists a batch's checks, newest first.
func (h *BatchHandler) GetQualityChecks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	checks, err := h.batchService.QualityHistory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "fetch quality checks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": checks})
}
