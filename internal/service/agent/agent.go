// Package agent manages field agent accounts.
package agent

import (
	"context"
	"fmt"
	"strings"

	"insurance-service/internal/domain/auth"
	xerrors "insurance-service/internal/pkg/errors"
	"insurance-service/internal/pkg/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	Create(ctx context.Context, u *auth.User) error
	FindByID(ctx context.Context, id int64) (*auth.User, error)
	Update(ctx context.Context, u *auth.User) error
	ListAgents(ctx context.Context) ([]auth.AgentSummary, error)
}

// SessionRevoker ends every open session of a user.
type SessionRevoker interface {
	InvalidateUserSessions(ctx context.Context, userID int64) ([]string, error)
}

type LogoutNotifier interface {
	ForceLogout(userID int64, sessionID, reason string)
}

type AgentService struct {
	repo     Repository
	sessions SessionRevoker
	notifier LogoutNotifier
	logger   *zap.Logger
}

func NewAgentService(repo Repository, sessions SessionRevoker, notifier LogoutNotifier, logger *zap.Logger) *AgentService {
	return &AgentService{repo: repo, sessions: sessions, notifier: notifier, logger: logger}
}

// List returns agents with customer count, premium and earnings.
func (s *AgentService) List(ctx context.Context) ([]auth.AgentSummary, error) {
	return s.repo.ListAgents(ctx)
}

func (s *AgentService) Create(ctx context.Context, req *auth.CreateAgentRequest) (*auth.User, error) {
	if req.Phone != "" {
		if msg := validation.Phone(req.Phone); msg != "" {
			return nil, xerrors.NewValidationError(map[string]string{"phone": msg})
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &auth.User{
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		Role:         auth.RoleAgent,
		Status:       auth.StatusActive,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("agent created", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return u, nil
}

// Update changes an agent's name, phone or status. Admin accounts are not
// editable here. Deactivating an agent ends their sessions.
func (s *AgentService) Update(ctx context.Context, id int64, req *auth.UpdateAgentRequest) (*auth.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RoleAgent {
		return nil, xerrors.Wrap(xerrors.ErrNotFound, "agent")
	}

	wasActive := u.IsActive()

	fields := map[string]string{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		fields["full_name"] = validation.Required(name)
		u.FullName = name
	}
	if req.Phone != nil {
		if *req.Phone != "" {
			fields["phone"] = validation.Phone(*req.Phone)
		}
		u.Phone = *req.Phone
	}
	if req.Status != nil {
		u.Status = *req.Status
	}
	if err := xerrors.NewValidationError(fields); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	if wasActive && !u.IsActive() {
		if err := s.revokeSessions(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (s *AgentService) revokeSessions(ctx context.Context, userID int64) error {
	revoked, err := s.sessions.InvalidateUserSessions(ctx, userID)
	for _, jti := range revoked {
		s.notifier.ForceLogout(userID, jti, "Account deactivated")
	}
	if err != nil {
		return fmt.Errorf("failed to end sessions of agent %d: %w", userID, err)
	}
	s.logger.Info("agent deactivated", zap.Int64("user_id", userID), zap.Int("sessions", len(revoked)))
	return nil
}
