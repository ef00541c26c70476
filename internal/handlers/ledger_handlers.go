package handlers

import (
	"net/http"

	"farm_backend/internal/models"
	"farm_backend/internal/services"
	"farm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AppendLedgerEntry records a stock movement for an item.
func (h *InventoryHandler) AppendLedgerEntry(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AppendRequest
	if !bindJSON(c, &req, "AppendLedgerEntry") {
		return
	}
	receipt, err := h.ledgerService.Append(c.Request.Context(), caller, id, req)
	if err != nil {
		respondServiceError(c, err, "record stock movement")
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// GetLedger lists an item's movements, newest first. Accepts action_type,
// from and to (YYYY-MM-DD, inclusive).
func (h *InventoryHandler) GetLedger(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	details := make(map[string]string)
	filter := models.LedgerFilter{
		From: optionalDateQuery(c, "from", details),
		To:   optionalDateQuery(c, "to", details),
	}
	if raw := c.Query("action_type"); raw != "" {
		action := models.ActionType(raw)
		filter.ActionType = &action
	}
	if len(details) > 0 {
		utils.RespondValidationFailed(c, details)
		return
	}
	if filter.To != nil {
		end := filter.To.AddDate(0, 0, 1)
		filter.To = &end
	}

	page, pageSize := pagination(c)
	entries, total, err := h.ledgerService.History(c.Request.Context(), id, filter, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "fetch ledger")
		return
	}
	c.JSON(http.StatusOK, pageResponse{Data: entries, Total: total, Page: page, PageSize: pageSize})
}

// ReconcileItem compares the cached quantity with a ledger replay.
func (h *InventoryHandler) ReconcileItem(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	report, err := h.ledgerService.Reconcile(c.Request.Context(), caller, id)
	if err != nil {
		respondServiceError(c, err, "reconcile item")
		return
	}
	c.JSON(http.StatusOK, report)
}
