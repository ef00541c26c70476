package handlers

import (
	"net/http"

	"farm_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ReferenceHandler serves categories and suppliers.
type ReferenceHandler struct {
	refService services.ReferenceService
}

// NewReferenceHandler creates a new ReferenceHandler.
func NewReferenceHandler(rs services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{refService: rs}
}

func (h *ReferenceHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if !bindJSON(c, &req, "CreateCategory") {
		return
	}
	category, err := h.refService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *ReferenceHandler) GetCategories(c *gin.Context) {
	page, pageSize := pagination(c)
	categories, total, err := h.refService.GetCategories(c.Request.Context(), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "fetch categories")
		return
	}
	c.JSON(http.StatusOK, pageResponse{Data: categories, Total: total, Page: page, PageSize: pageSize})
}

func (h *ReferenceHandler) CreateSupplier(c *gin.Context) {
	var req services.CreateSupplierRequest
	if !bindJSON(c, &req, "CreateSupplier") {
		return
	}
	supplier, err := h.refService.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "create supplier")
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func (h *ReferenceHandler) GetSuppliers(c *gin.Context) {
	page, pageSize := pagination(c)
	suppliers, total, err := h.refService.GetSuppliers(c.Request.Context(), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "fetch suppliers")
		return
	}
	c.JSON(http.StatusOK, pageResponse{Data: suppliers, Total: total, Page: page, PageSize: pageSize})
}
