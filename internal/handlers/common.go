package handlers

import (
	"errors"
	"net/http"
	"time"

	"farm_backend/internal/middleware"
	"farm_backend/internal/models"
	"farm_backend/internal/services"
	"farm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// pageResponse is the envelope for paginated lists.
type pageResponse struct {
	Data     interface{} `json:"data"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondValidationFailed(c, map[string]string{name: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}, op string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.LogDebug(op+": failed to bind JSON", map[string]interface{}{"error": err.Error()})
		utils.RespondValidationFailed(c, middleware.BindingErrorDetails(err))
		return false
	}
	return true
}

func requireCaller(c *gin.Context) (models.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", nil))
	}
	return caller, ok
}

func pagination(c *gin.Context) (int, int) {
	return utils.ParsePagination(c.Query("page"), c.Query("page_size"))
}

func optionalInt64Query(c *gin.Context, key string, details map[string]string) *int64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := utils.StrToInt64(raw)
	if err != nil {
		details[key] = "must be an integer"
		return nil
	}
	return &v
}

func optionalDateQuery(c *gin.Context, key string, details map[string]string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := utils.ParseDate(raw)
	if err != nil {
		details[key] = "must be a date in YYYY-MM-DD format"
		return nil
	}
	return &v
}

// respondServiceError maps service errors onto API errors. Anything it does
// not recognise is logged and answered with a generic 500.
func respondServiceError(c *gin.Context, err error, op string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondValidationFailed(c, verr.Fields)
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrBatchNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrSupplierNotFound),
		errors.Is(err, services.ErrUserNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), nil))
	case errors.Is(err, services.ErrForbidden):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, err.Error(), nil))
	case errors.Is(err, services.ErrCategoryNameExists),
		errors.Is(err, services.ErrSupplierNameExists),
		errors.Is(err, services.ErrBatchNumberExists),
		errors.Is(err, services.ErrUsernameExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), nil))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil))
	default:
		utils.LogError(err, op+": unexpected error")
		utils.RespondInternal(c, "Failed to "+op+".")
	}
}
