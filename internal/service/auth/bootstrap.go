package auth

import (
	"context"
	"fmt"

	"insurance-service/internal/domain/auth"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdminExists creates the first administrator on startup when no
// admin account exists yet.
func (s *AuthService) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	exists, err := s.users.ExistsByRole(ctx, auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		s.logger.Info("admin already exists, skipping creation")
		return nil
	}

	if email == "" || password == "" || fullName == "" {
		return fmt.Errorf("SUPER_ADMIN_EMAIL, SUPER_ADMIN_PASSWORD and SUPER_ADMIN_NAME must be set")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &auth.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         auth.RoleAdmin,
		Status:       auth.StatusActive,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("admin created",
		zap.String("email", email),
		zap.Int64("user_id", admin.ID),
	)
	return nil
}
