// Package policy manages the policy catalog, policy types and providers.
package policy

import (
	"context"
	"time"

	"insurance-service/internal/domain/policy"
	"insurance-service/internal/metrics"
	xerrors "insurance-service/internal/pkg/errors"
	"insurance-service/internal/pkg/response"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, p *policy.Policy) error
	Update(ctx context.Context, p *policy.Policy) error
	SetStatus(ctx context.Context, id int64, status policy.Status) error
	FindByID(ctx context.Context, id int64) (*policy.Policy, error)
	ListActive(ctx context.Context) ([]policy.Policy, error)
	List(ctx context.Context, filters *policy.ListFilters) ([]policy.Policy, int64, error)
}

type TypeRepository interface {
	List(ctx context.Context) ([]policy.PolicyType, error)
	FindByID(ctx context.Context, id int64) (*policy.PolicyType, error)
	Create(ctx context.Context, t *policy.PolicyType) error
	Update(ctx context.Context, t *policy.PolicyType) error
}

type ProviderRepository interface {
	List(ctx context.Context) ([]policy.Provider, error)
	FindByID(ctx context.Context, id int64) (*policy.Provider, error)
	Create(ctx context.Context, p *policy.Provider) error
	Update(ctx context.Context, p *policy.Provider) error
	Delete(ctx context.Context, id int64) error
}

const catalogKey = "active"

type PolicyService struct {
	repo      Repository
	types     TypeRepository
	providers ProviderRepository
	catalog   *metrics.Cache[string, []policy.Policy]
	now       func() time.Time
	logger    *zap.Logger
}

func NewPolicyService(repo Repository, types TypeRepository, providers ProviderRepository, cacheSize int, cacheTTL time.Duration, logger *zap.Logger) *PolicyService {
	return &PolicyService{
		repo:      repo,
		types:     types,
		providers: providers,
		catalog:   metrics.NewCache[string, []policy.Policy]("policy_catalog", cacheSize, cacheTTL),
		now:       time.Now,
		logger:    logger,
	}
}

// Active returns the sellable catalog, served from cache when warm.
func (s *PolicyService) Active(ctx context.Context) ([]policy.Policy, error) {
	if policies, ok := s.catalog.Get(catalogKey); ok {
		return policies, nil
	}
	policies, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	s.catalog.Set(catalogKey, policies)
	return policies, nil
}

// Eligibility partitions the active catalog by the age implied by dob.
func (s *PolicyService) Eligibility(ctx context.Context, dob time.Time) (*policy.EligibilityResponse, error) {
	now := s.now()
	if dob.After(now) {
		return nil, xerrors.NewValidationError(map[string]string{"dob": "date of birth is in the future"})
	}

	policies, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}

	age := policy.Age(dob, now)
	eligible, ineligible := policy.Partition(policies, age)
	if eligible == nil {
		eligible = []policy.Policy{}
	}
	if ineligible == nil {
		ineligible = []policy.Ineligible{}
	}
	return &policy.EligibilityResponse{Age: age, Eligible: eligible, Ineligible: ineligible}, nil
}

// CheckEligible returns ErrIneligible when the policy is inactive or the
// age falls outside its bounds.
func (s *PolicyService) CheckEligible(ctx context.Context, policyID int64, dob time.Time) (*policy.Policy, error) {
	p, err := s.repo.FindByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, xerrors.Wrap(xerrors.ErrIneligible, "policy is inactive")
	}
	age := policy.Age(dob, s.now())
	if !p.Eligible(age) {
		return nil, xerrors.Wrap(xerrors.ErrIneligible, p.IneligibleReason(age))
	}
	return p, nil
}

func (s *PolicyService) Get(ctx context.Context, id int64) (*policy.Policy, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PolicyService) List(ctx context.Context, filters *policy.ListFilters) (*policy.ListResponse, error) {
	policies, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if policies == nil {
		policies = []policy.Policy{}
	}
	return &policy.ListResponse{
		Policies:   policies,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: response.TotalPages(total, filters.PageSize),
	}, nil
}

func (s *PolicyService) Create(ctx context.Context, req *policy.CreatePolicyRequest) (*policy.Policy, error) {
	if err := xerrors.NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.PolicyTypeID, req.Source, req.ProviderID); err != nil {
		return nil, err
	}

	p := &policy.Policy{
		Name:                   req.Name,
		PolicyTypeID:           req.PolicyTypeID,
		PlanName:               req.PlanName,
		Description:            req.Description,
		PremiumAmount:          req.PremiumAmount,
		CoverageAmount:         req.CoverageAmount,
		Tenure:                 req.Tenure,
		Renewable:              req.Renewable,
		MinAge:                 req.MinAge,
		MaxAge:                 req.MaxAge,
		Source:                 req.Source,
		AgentCommissionPercent: req.AgentCommissionPercent,
		Status:                 policy.StatusActive,
	}
	if req.Source == policy.SourceThirdParty {
		p.ProviderID = req.ProviderID
		p.CompanyCommission = req.CompanyCommission
		p.AdminCommission = req.AdminCommission
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.catalog.Purge()

	s.logger.Info("policy created", zap.Int64("policy_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Update merges req onto the stored policy and re-validates the result.
func (s *PolicyService) Update(ctx context.Context, id int64, req *policy.UpdatePolicyRequest) (*policy.Policy, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(p)
	merged := p.AsCreateRequest()
	if err := xerrors.NewValidationError(merged.Validate()); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, p.PolicyTypeID, p.Source, p.ProviderID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.catalog.Purge()

	s.logger.Info("policy updated", zap.Int64("policy_id", p.ID))
	return p, nil
}

// Deactivate is the DELETE operation: policies are retired, never removed.
func (s *PolicyService) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.SetStatus(ctx, id, policy.StatusInactive); err != nil {
		return err
	}
	s.catalog.Purge()

	s.logger.Info("policy deactivated", zap.Int64("policy_id", id))
	return nil
}

func (s *PolicyService) checkReferences(ctx context.Context, typeID int64, source policy.Source, providerID *int64) error {
	if _, err := s.types.FindByID(ctx, typeID); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return xerrors.NewValidationError(map[string]string{"policy_type_id": "unknown policy type"})
		}
		return err
	}
	if source != policy.SourceThirdParty || providerID == nil {
		return nil
	}
	if _, err := s.providers.FindByID(ctx, *providerID); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return xerrors.NewValidationError(map[string]string{"provider_id": "unknown provider"})
		}
		return err
	}
	return nil
}
