package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"farm_backend/internal/models"
	"farm_backend/internal/services"
	"farm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves item records and their ledger.
type InventoryHandler struct {
	itemService   services.ItemService
	ledgerService services.LedgerService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.ItemService, ls services.LedgerService) *InventoryHandler {
	return &InventoryHandler{itemService: is, ledgerService: ls}
}

// CreateItem registers a new item with its opening quantity.
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req services.CreateItemRequest
	if !bindJSON(c, &req, "CreateItem") {
		return
	}
	item, err := h.itemService.CreateItem(c.Request.Context(), caller, req)
	if err != nil {
		respondServiceError(c, err, "create item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListItems supports category_id, supplier_id, search, status, low_stock and
// expiring_within filters.
func (h *InventoryHandler) ListItems(c *gin.Context) {
	details := make(map[string]string)
	filter := models.ItemFilter{
		CategoryID: optionalInt64Query(c, "category_id", details),
		SupplierID: optionalInt64Query(c, "supplier_id", details),
		Search:     utils.NewNullString(c.Query("search")),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ItemStatus(strings.ToLower(raw))
		filter.Status = &status
	}
	if raw := c.Query("low_stock"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			details["low_stock"] = "must be true or false"
		}
		filter.LowStockOnly = v
	}
	if raw := c.Query("expiring_within"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			details["expiring_within"] = "must be a number of days"
		} else {
			filter.ExpiringWithin = &days
		}
	}
	if len(details) > 0 {
		utils.RespondValidationFailed(c, details)
		return
	}

	page, pageSize := pagination(c)
	items, total, err := h.itemService.ListItems(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "list items")
		return
	}
	c.JSON(http.StatusOK, pageResponse{Data: items, Total: total, Page: page, PageSize: pageSize})
}

// GetItem returns one item with its stock and expiry status.
func (h *InventoryHandler) GetItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.itemService.GetItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "fetch item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem replaces the master data of an active item.
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.ItemFields
	if !bindJSON(c, &req, "UpdateItem") {
		return
	}
	item, err := h.itemService.UpdateItem(c.Request.Context(), caller, id, req)
	if err != nil {
		respondServiceError(c, err, "update item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem deactivates an item. Its ledger is kept.
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.itemService.SoftDeleteItem(c.Request.Context(), caller, id); err != nil {
		respondServiceError(c, err, "deactivate item")
		return
	}
	c.Status(http.StatusNoContent)
}
