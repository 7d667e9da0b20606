package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patrickrooney09/tiba-update-user/internal/api"
	"github.com/patrickrooney09/tiba-update-user/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register godoc
// @Summary      Create staff account
// @Description  Provisions a new staff or admin account. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "Account data"
// @Success      201      {object}  User
// @Failure      400      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /admin/users [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": api.BindingErrorMessage(err)})
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary      Login
// @Description  Authenticates a staff member by email and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Credentials"
// @Success      200      {object}  LoginResponse
// @Failure      400      {object}  gin.H
// @Failure      401      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": api.BindingErrorMessage(err)})
		return
	}

	user, accessToken, refreshToken, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// GetMe godoc
// @Summary      Current account
// @Description  Returns the profile of the authenticated staff member.
// @Tags         user
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  User
// @Failure      401  {object}  gin.H
// @Failure      404  {object}  gin.H
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Description  Returns a new access token for a valid refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]string  true  "Refresh token payload"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  gin.H
// @Failure      401      {object}  gin.H
// @Router       /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	newAccessToken, user, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": newAccessToken,
		"user":         user,
	})
}

// Logout godoc
// @Summary      Logout
// @Description  Revokes the current session token.
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  gin.H
// @Failure      401  {object}  gin.H
// @Failure      500  {object}  gin.H
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	jti, expiresAt, ok := auth.GetTokenSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.service.Logout(c.Request.Context(), jti, expiresAt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
