package policy

import (
	"context"
	"testing"
	"time"

	"insurance-service/internal/domain/policy"
	xerrors "insurance-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	policies    map[int64]*policy.Policy
	nextID      int64
	activeReads int
}

func newFakeRepo(ps ...policy.Policy) *fakeRepo {
	f := &fakeRepo{policies: map[int64]*policy.Policy{}}
	for i := range ps {
		p := ps[i]
		f.nextID++
		p.ID = f.nextID
		f.policies[p.ID] = &p
	}
	return f
}

func (f *fakeRepo) Create(_ context.Context, p *policy.Policy) error {
	f.nextID++
	p.ID = f.nextID
	dup := *p
	f.policies[p.ID] = &dup
	return nil
}

func (f *fakeRepo) Update(_ context.Context, p *policy.Policy) error {
	dup := *p
	f.policies[p.ID] = &dup
	return nil
}

func (f *fakeRepo) SetStatus(_ context.Context, id int64, status policy.Status) error {
	p, ok := f.policies[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	p.Status = status
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*policy.Policy, error) {
	p, ok := f.policies[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	dup := *p
	return &dup, nil
}

func (f *fakeRepo) ListActive(_ context.Context) ([]policy.Policy, error) {
	f.activeReads++
	var out []policy.Policy
	for id := int64(1); id <= f.nextID; id++ {
		if p, ok := f.policies[id]; ok && p.IsActive() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) List(_ context.Context, filters *policy.ListFilters) ([]policy.Policy, int64, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	var out []policy.Policy
	for _, p := range f.policies {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

type fakeTypes struct{}

func (fakeTypes) List(context.Context) ([]policy.PolicyType, error) { return nil, nil }
func (fakeTypes) FindByID(_ context.Context, id int64) (*policy.PolicyType, error) {
	if id != 1 {
		return nil, xerrors.ErrNotFound
	}
	return &policy.PolicyType{ID: 1, Name: "Health"}, nil
}
func (fakeTypes) Create(context.Context, *policy.PolicyType) error { return nil }
func (fakeTypes) Update(context.Context, *policy.PolicyType) error { return nil }

type fakeProviders struct{ inUse bool }

func (fakeProviders) List(context.Context) ([]policy.Provider, error) { return nil, nil }
func (fakeProviders) FindByID(_ context.Context, id int64) (*policy.Provider, error) {
	if id != 7 {
		return nil, xerrors.ErrNotFound
	}
	return &policy.Provider{ID: 7, Name: "Acme Re"}, nil
}
func (fakeProviders) Create(context.Context, *policy.Provider) error { return nil }
func (fakeProviders) Update(context.Context, *policy.Provider) error { return nil }
func (f fakeProviders) Delete(context.Context, int64) error {
	if f.inUse {
		return xerrors.ErrInUse
	}
	return nil
}

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }

func newService(repo *fakeRepo) *PolicyService {
	s := NewPolicyService(repo, fakeTypes{}, fakeProviders{}, 8, time.Minute, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestEligibilityUsesCachedCatalog(t *testing.T) {
	repo := newFakeRepo(
		policy.Policy{Name: "Youth", MinAge: intp(18), MaxAge: intp(30), Status: policy.StatusActive},
		policy.Policy{Name: "Senior", MinAge: intp(60), Status: policy.StatusActive},
		policy.Policy{Name: "Retired", Status: policy.StatusInactive},
	)
	svc := newService(repo)

	// Birthday not yet reached in 2026: age 25.
	dob := time.Date(2000, 7, 1, 0, 0, 0, 0, time.UTC)
	res, err := svc.Eligibility(context.Background(), dob)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Age)
	require.Len(t, res.Eligible, 1)
	assert.Equal(t, "Youth", res.Eligible[0].Name)
	require.Len(t, res.Ineligible, 1)
	assert.Equal(t, "(Customer: 25) not in required range (60-100)", res.Ineligible[0].Reason)

	_, err = svc.Eligibility(context.Background(), dob)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.activeReads)
}

func TestEligibilityRejectsFutureDOB(t *testing.T) {
	svc := newService(newFakeRepo())
	_, err := svc.Eligibility(context.Background(), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestCheckEligible(t *testing.T) {
	repo := newFakeRepo(
		policy.Policy{Name: "Youth", MinAge: intp(18), MaxAge: intp(30), Status: policy.StatusActive},
		policy.Policy{Name: "Retired", Status: policy.StatusInactive},
	)
	svc := newService(repo)

	_, err := svc.CheckEligible(context.Background(), 1, time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, xerrors.ErrIneligible)

	_, err = svc.CheckEligible(context.Background(), 2, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, xerrors.ErrIneligible)

	p, err := svc.CheckEligible(context.Background(), 1, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Youth", p.Name)
}

func validCreate() *policy.CreatePolicyRequest {
	return &policy.CreatePolicyRequest{
		Name:                   "Family Health",
		PolicyTypeID:           1,
		PremiumAmount:          1200,
		CoverageAmount:         500000,
		Tenure:                 policy.Tenure{Value: 12, Unit: policy.TenureMonths},
		Source:                 policy.SourceInHouse,
		AgentCommissionPercent: 10,
	}
}

func TestCreate(t *testing.T) {
	t.Run("in house", func(t *testing.T) {
		svc := newService(newFakeRepo())
		p, err := svc.Create(context.Background(), validCreate())
		require.NoError(t, err)
		assert.Equal(t, policy.StatusActive, p.Status)
		assert.NotZero(t, p.ID)
	})

	t.Run("third party needs provider and commissions", func(t *testing.T) {
		svc := newService(newFakeRepo())
		req := validCreate()
		req.Source = policy.SourceThirdParty
		_, err := svc.Create(context.Background(), req)

		var ve *xerrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "provider_id")
		assert.Contains(t, ve.Fields, "company_commission")
		assert.Contains(t, ve.Fields, "admin_commission")
	})

	t.Run("unknown provider", func(t *testing.T) {
		svc := newService(newFakeRepo())
		req := validCreate()
		req.Source = policy.SourceThirdParty
		req.ProviderID = int64p(99)
		req.CompanyCommission = &policy.Commission{Type: policy.CommissionPercentage, Value: 5}
		req.AdminCommission = &policy.Commission{Type: policy.CommissionFlat, Value: 100}
		_, err := svc.Create(context.Background(), req)

		var ve *xerrors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "unknown provider", ve.Fields["provider_id"])
	})

	t.Run("premium above coverage", func(t *testing.T) {
		svc := newService(newFakeRepo())
		req := validCreate()
		req.CoverageAmount = 100
		_, err := svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	})
}

func TestWritesInvalidateCatalog(t *testing.T) {
	repo := newFakeRepo(policy.Policy{Name: "Youth", Status: policy.StatusActive})
	svc := newService(repo)
	ctx := context.Background()

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, svc.Deactivate(ctx, 1))
	active, err = svc.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.Equal(t, 2, repo.activeReads)
}

func TestUpdateSwitchingToInHouseDropsProvider(t *testing.T) {
	repo := newFakeRepo(policy.Policy{
		Name: "Partner Life", PolicyTypeID: 1, PremiumAmount: 100, CoverageAmount: 1000,
		Tenure: policy.Tenure{Value: 1, Unit: policy.TenureYears},
		Source: policy.SourceThirdParty, ProviderID: int64p(7),
		CompanyCommission: &policy.Commission{Type: policy.CommissionPercentage, Value: 5},
		AdminCommission:   &policy.Commission{Type: policy.CommissionFlat, Value: 10},
		Status:            policy.StatusActive,
	})
	svc := newService(repo)

	src := policy.SourceInHouse
	p, err := svc.Update(context.Background(), 1, &policy.UpdatePolicyRequest{Source: &src})
	require.NoError(t, err)
	assert.Nil(t, p.ProviderID)
	assert.Nil(t, p.CompanyCommission)
}

func TestListComputesPages(t *testing.T) {
	repo := newFakeRepo(policy.Policy{Name: "A"}, policy.Policy{Name: "B"}, policy.Policy{Name: "C"})
	svc := newService(repo)

	res, err := svc.List(context.Background(), &policy.ListFilters{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 1, res.Page)
}

func TestDeleteProviderInUse(t *testing.T) {
	svc := NewPolicyService(newFakeRepo(), fakeTypes{}, fakeProviders{inUse: true}, 8, time.Minute, zap.NewNop())
	assert.ErrorIs(t, svc.DeleteProvider(context.Background(), 7), xerrors.ErrInUse)
}
