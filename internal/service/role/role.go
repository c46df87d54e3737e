// Package role manages the agent permission matrix.
package role

import (
	"context"
	"time"

	"insurance-service/internal/domain/auth"
	"insurance-service/internal/metrics"

	"go.uber.org/zap"
)

type Repository interface {
	Get(ctx context.Context, name string) (*auth.Role, error)
	SetPermissions(ctx context.Context, name string, perms []string) (*auth.Role, error)
}

// Notifier pushes permission changes to connected clients of a role.
type Notifier interface {
	PermissionsUpdated(role string, perms []string, at time.Time)
}

type RoleService struct {
	repo     Repository
	cache    *metrics.Cache[string, []string]
	notifier Notifier
	logger   *zap.Logger
}

func NewRoleService(repo Repository, notifier Notifier, cacheTTL time.Duration, logger *zap.Logger) *RoleService {
	return &RoleService{
		repo:     repo,
		cache:    metrics.NewCache[string, []string]("role_permissions", 16, cacheTTL),
		notifier: notifier,
		logger:   logger,
	}
}

// RolePermissions is consulted on every permission-guarded request.
func (s *RoleService) RolePermissions(ctx context.Context, name string) ([]string, error) {
	if perms, ok := s.cache.Get(name); ok {
		return perms, nil
	}

	r, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	perms := []string(r.Permissions)
	s.cache.Set(name, perms)
	return perms, nil
}

func (s *RoleService) GetAgentRole(ctx context.Context) (*auth.RoleResponse, error) {
	r, err := s.repo.Get(ctx, auth.RoleAgent)
	if err != nil {
		return nil, err
	}
	return response(r), nil
}

// UpdateAgentRole replaces the agent permission set and notifies agents.
func (s *RoleService) UpdateAgentRole(ctx context.Context, req *auth.UpdatePermissionsRequest) (*auth.RoleResponse, error) {
	perms, err := auth.NormalizePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}

	r, err := s.repo.SetPermissions(ctx, auth.RoleAgent, perms)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(auth.RoleAgent)
	s.notifier.PermissionsUpdated(auth.RoleAgent, perms, r.UpdatedAt)
	s.logger.Info("agent permissions updated", zap.Strings("permissions", perms))

	return response(r), nil
}

func response(r *auth.Role) *auth.RoleResponse {
	return &auth.RoleResponse{
		Name:        r.Name,
		Permissions: r.Permissions,
		Available:   auth.Vocabulary(),
		UpdatedAt:   r.UpdatedAt,
	}
}
