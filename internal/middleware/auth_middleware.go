// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"insurance-service/internal/domain/auth"
	xerrors "insurance-service/internal/pkg/errors"
	"insurance-service/internal/pkg/jwt"
	"insurance-service/internal/pkg/response"
	"insurance-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxJTI       = "jti"
	ctxExpiresAt = "token_expires_at"
)

type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

type SessionStore interface {
	GetSession(ctx context.Context, userID int64, jti string) (*session.SessionData, error)
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

// PermissionResolver returns the permissions granted to a role.
type PermissionResolver interface {
	RolePermissions(ctx context.Context, role string) ([]string, error)
}

type AuthMiddleware struct {
	verifier    TokenVerifier
	sessions    SessionStore
	permissions PermissionResolver
	logger      *zap.Logger
}

func NewAuthMiddleware(verifier TokenVerifier, sessions SessionStore, permissions PermissionResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:    verifier,
		sessions:    sessions,
		permissions: permissions,
		logger:      logger,
	}
}

// Auth validates the bearer token, rejects revoked tokens and tokens whose
// session is gone, then stores the caller in the gin context.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, xerrors.ErrUnauthorized) && !errors.Is(err, xerrors.ErrSessionExpired) {
				m.logger.Error("token check failed", zap.Error(err))
			}
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ctxExpiresAt, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// Authenticate runs the token checks without a gin context; the websocket
// upgrade uses it directly.
func (m *AuthMiddleware) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := m.verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, err.Error())
	}

	revoked, err := m.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "token has been revoked")
	}

	if _, err := m.sessions.GetSession(ctx, claims.UserID, claims.ID); err != nil {
		return nil, err
	}
	return claims, nil
}

// RequireRole must run after Auth.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "insufficient permissions", nil, map[string]interface{}{
			"required_roles": roles,
			"role":           role,
		})
	}
}

// RequirePermission passes admins through and checks every other role against
// its permission set. Must run after Auth.
func (m *AuthMiddleware) RequirePermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == auth.RoleAdmin {
			c.Next()
			return
		}

		granted, err := m.permissions.RolePermissions(c.Request.Context(), role)
		if err != nil {
			m.logger.Error("failed to resolve permissions", zap.String("role", role), zap.Error(err))
			response.Error(c, http.StatusInternalServerError, "failed to resolve permissions", nil)
			return
		}

		for _, have := range granted {
			for _, want := range permissions {
				if have == want {
					c.Next()
					return
				}
			}
		}

		response.Error(c, http.StatusForbidden, "insufficient permissions", nil, map[string]interface{}{
			"required_permissions": permissions,
		})
	}
}

func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{m.Auth(), m.RequireRole(auth.RoleAdmin)}
}

// extractToken reads the bearer header, falling back to ?token= for clients
// that cannot set headers, such as browser websockets.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return c.Query("token")
}

func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func GetJTI(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxJTI)
	if !exists {
		return "", false
	}
	jti, ok := v.(string)
	return jti, ok
}

func GetRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// GetTokenExpiry returns when the current access token expires.
func GetTokenExpiry(c *gin.Context) time.Time {
	return c.GetTime(ctxExpiresAt)
}
