// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"insurance-service/internal/domain/auth"
	"insurance-service/internal/middleware"
	"insurance-service/internal/pkg/response"
	authUsecase "insurance-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		response.FromError(c, err, "login failed")
		return
	}

	h.logger.Info("user logged in",
		zap.Int64("user_id", loginResp.User.ID),
		zap.String("role", loginResp.User.Role),
	)
	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.FromError(c, err, "token refresh failed")
		return
	}
	response.Success(c, http.StatusOK, "token refreshed", resp)
}

// Logout handles user logout (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	jti := middleware.MustGetJTI(c)

	if err := h.authService.Logout(c.Request.Context(), userID, jti, middleware.GetTokenExpiry(c)); err != nil {
		h.logger.Error("logout failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		response.FromError(c, err, "logout failed")
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// Me returns the caller with effective permissions (requires auth)
func (h *AuthHandler) Me(c *gin.Context) {
	info, err := h.authService.Me(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, err, "failed to get profile")
		return
	}
	response.Success(c, http.StatusOK, "profile retrieved", info)
}
