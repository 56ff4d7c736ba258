package handler

import (
	"net/http"

	"icu-backend-bed-allocation/internal/service"
	"icu-backend-bed-allocation/pkg/utils"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"omitempty,max=100"`
	Role     string `json:"role" binding:"omitempty,oneof=admin staff"`
}

// Login authenticates a staff account. The refresh token goes into an
// HttpOnly cookie; only the access token is returned in the body.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	pair, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	utils.SuccessResponse(c, gin.H{
		"access_token": pair.AccessToken,
		"user":         pair.User,
	})
}

// Register creates a staff account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	pair, err := h.authService.Register(req.Username, req.Password, req.FullName, req.Role)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	utils.CreatedResponse(c, gin.H{
		"access_token": pair.AccessToken,
		"user":         pair.User,
	})
}

// Refresh exchanges the cookie's refresh token for a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	accessToken, err := h.authService.RefreshAccessToken(refreshToken)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"access_token": accessToken})
}

// Logout revokes the refresh token and clears the cookie. Logging out
// without a cookie is not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err == nil {
		if err := h.authService.Logout(refreshToken); err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to logout")
			return
		}
	}

	h.clearRefreshCookie(c)
	utils.MessageResponse(c, "Logged out successfully")
}

// setRefreshCookie stores the refresh token for its configured
// lifetime. Secure stays off so local deployments without TLS work.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	maxAge := int(utils.GetRefreshTokenExpiry().Seconds())
	c.SetCookie(refreshCookie, token, maxAge, "/", "", false, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
}
