// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"insurance-service/internal/domain/auth"
	xerrors "insurance-service/internal/pkg/errors"
	"insurance-service/internal/pkg/jwt"
	"insurance-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	Create(ctx context.Context, u *auth.User) error
	FindByEmail(ctx context.Context, email string) (*auth.User, error)
	FindByID(ctx context.Context, id int64) (*auth.User, error)
	ExistsByRole(ctx context.Context, role string) (bool, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID int64, role string) (*jwt.Token, error)
	GenerateRefreshToken(userID int64) (*jwt.Token, error)
}

type RefreshVerifier interface {
	VerifyRefreshToken(token string) (*jwt.Claims, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *session.SessionData) error
	InvalidateSession(ctx context.Context, userID int64, jti string, expiresAt time.Time) error
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, email string) error
}

type PermissionResolver interface {
	RolePermissions(ctx context.Context, role string) ([]string, error)
}

// LogoutNotifier closes the user's live websocket for the ended session.
type LogoutNotifier interface {
	ForceLogout(userID int64, sessionID, reason string)
}

type AuthService struct {
	users       UserRepository
	issuer      TokenIssuer
	verifier    RefreshVerifier
	sessions    SessionStore
	limiter     LoginLimiter
	permissions PermissionResolver
	notifier    LogoutNotifier
	logger      *zap.Logger
}

func NewAuthService(
	users UserRepository,
	issuer TokenIssuer,
	verifier RefreshVerifier,
	sessions SessionStore,
	limiter LoginLimiter,
	permissions PermissionResolver,
	notifier LogoutNotifier,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		issuer:      issuer,
		verifier:    verifier,
		sessions:    sessions,
		limiter:     limiter,
		permissions: permissions,
		notifier:    notifier,
		logger:      logger,
	}
}

var errInvalidCredentials = xerrors.Wrap(xerrors.ErrUnauthorized, "invalid email or password")

// ========== Login ==========

// Login checks the password and opens a session. Attempts are rate limited
// per ip and email.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	allowed, remaining, err := s.limiter.CheckLoginAttempt(ctx, req.IPAddress, req.Email)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, xerrors.Wrap(xerrors.ErrRateLimited, "too many login attempts, try again in 15 minutes")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("failed login", zap.String("email", req.Email), zap.Int64("remaining", remaining))
		return nil, errInvalidCredentials
	}

	if !user.IsActive() {
		return nil, xerrors.Wrap(xerrors.ErrForbidden, "account is inactive")
	}

	if err := s.limiter.ResetLoginAttempts(ctx, req.IPAddress, req.Email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	return s.openSession(ctx, user, req.IPAddress, req.UserAgent)
}

func (s *AuthService) openSession(ctx context.Context, user *auth.User, ip, userAgent string) (*auth.LoginResponse, error) {
	access, err := s.issuer.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := s.issuer.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	err = s.sessions.CreateSession(ctx, &session.SessionData{
		JTI:       access.JTI,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IPAddress: ip,
		UserAgent: userAgent,
		LoginAt:   now,
		ExpiresAt: access.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	info, err := s.userInfo(ctx, user)
	if err != nil {
		return nil, err
	}

	return &auth.LoginResponse{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		TokenType:    "Bearer",
		ExpiresIn:    int(access.ExpiresAt.Sub(now).Seconds()),
		ExpiresAt:    access.ExpiresAt,
		User:         *info,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair. The old refresh
// token is revoked so it works only once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*auth.LoginResponse, error) {
	claims, err := s.verifier.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, err.Error())
	}

	revoked, err := s.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "refresh token already used")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "unknown user")
	}
	if !user.IsActive() {
		return nil, xerrors.Wrap(xerrors.ErrForbidden, "account is inactive")
	}

	if claims.ExpiresAt != nil {
		if err := s.sessions.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			return nil, err
		}
	}

	return s.openSession(ctx, user, ip, userAgent)
}

// ========== Session ==========

func (s *AuthService) Logout(ctx context.Context, userID int64, jti string, expiresAt time.Time) error {
	if err := s.sessions.InvalidateSession(ctx, userID, jti, expiresAt); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}
	s.notifier.ForceLogout(userID, jti, "User logged out")
	return nil
}

// Me returns the caller with the permissions currently granted to their role.
func (s *AuthService) Me(ctx context.Context, userID int64) (*auth.UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.userInfo(ctx, user)
}

func (s *AuthService) userInfo(ctx context.Context, user *auth.User) (*auth.UserInfo, error) {
	perms := auth.Vocabulary()
	if user.Role != auth.RoleAdmin {
		var err error
		perms, err = s.permissions.RolePermissions(ctx, user.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve permissions: %w", err)
		}
	}

	return &auth.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role,
		Permissions: perms,
	}, nil
}
