package handlers

import (
	"net/http"

	"farm_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// RegisterUser creates an account. Mounted behind the admin role.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req services.RegisterUserRequest
	if !bindJSON(c, &req, "RegisterUser") {
		return
	}
	user, err := h.authService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "register user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// LoginUser exchanges credentials for an access token.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req, "LoginUser") {
		return
	}
	resp, err := h.authService.LoginUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "login")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCurrentUser returns the profile of the authenticated caller.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	user, err := h.authService.GetUserProfile(c.Request.Context(), caller.UserID)
	if err != nil {
		respondServiceError(c, err, "retrieve user profile")
		return
	}
	c.JSON(http.StatusOK, user)
}
