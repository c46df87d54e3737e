package policy

import (
	"context"
	"strings"

	"insurance-service/internal/domain/policy"
	xerrors "insurance-service/internal/pkg/errors"

	"go.uber.org/zap"
)

func (s *PolicyService) ListTypes(ctx context.Context) ([]policy.PolicyType, error) {
	return s.types.List(ctx)
}

func (s *PolicyService) CreateType(ctx context.Context, req *policy.PolicyTypeRequest) (*policy.PolicyType, error) {
	t := &policy.PolicyType{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      policy.StatusActive,
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if t.Name == "" {
		return nil, xerrors.NewValidationError(map[string]string{"name": "This field is required"})
	}
	if err := s.types.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("policy type created", zap.Int64("policy_type_id", t.ID))
	return t, nil
}

func (s *PolicyService) UpdateType(ctx context.Context, id int64, req *policy.PolicyTypeRequest) (*policy.PolicyType, error) {
	t, err := s.types.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Name = strings.TrimSpace(req.Name)
	t.Description = req.Description
	if req.Status != nil {
		t.Status = *req.Status
	}
	if t.Name == "" {
		return nil, xerrors.NewValidationError(map[string]string{"name": "This field is required"})
	}
	if err := s.types.Update(ctx, t); err != nil {
		return nil, err
	}
	// Catalog rows carry the type name.
	s.catalog.Purge()
	return t, nil
}

func (s *PolicyService) ListProviders(ctx context.Context) ([]policy.Provider, error) {
	return s.providers.List(ctx)
}

func (s *PolicyService) GetProvider(ctx context.Context, id int64) (*policy.Provider, error) {
	return s.providers.FindByID(ctx, id)
}

func (s *PolicyService) CreateProvider(ctx context.Context, req *policy.ProviderRequest) (*policy.Provider, error) {
	if err := xerrors.NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	p := &policy.Provider{
		Name:         strings.TrimSpace(req.Name),
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Website:      req.Website,
		Status:       policy.StatusActive,
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if err := s.providers.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("provider created", zap.Int64("provider_id", p.ID))
	return p, nil
}

func (s *PolicyService) UpdateProvider(ctx context.Context, id int64, req *policy.ProviderRequest) (*policy.Provider, error) {
	if err := xerrors.NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	p, err := s.providers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(req.Name)
	p.ContactEmail = req.ContactEmail
	p.ContactPhone = req.ContactPhone
	p.Website = req.Website
	if req.Status != nil {
		p.Status = *req.Status
	}
	if err := s.providers.Update(ctx, p); err != nil {
		return nil, err
	}
	s.catalog.Purge()
	return p, nil
}

// DeleteProvider fails with ErrInUse while any policy references the provider.
func (s *PolicyService) DeleteProvider(ctx context.Context, id int64) error {
	if err := s.providers.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("provider deleted", zap.Int64("provider_id", id))
	return nil
}
