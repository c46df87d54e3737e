package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func intPtr(v int) *int { return &v }

func TestAge(t *testing.T) {
	tests := []struct {
		dob, now string
		want     int
	}{
		{"2000-06-15", "2024-03-01", 23},
		{"2000-06-15", "2024-07-01", 24},
		{"2000-06-15", "2024-06-15", 24},
		{"2000-06-15", "2024-06-14", 23},
		{"2000-02-29", "2023-02-28", 22},
		{"2000-02-29", "2023-03-01", 23},
		{"2024-01-01", "2024-01-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.dob+"@"+tt.now, func(t *testing.T) {
			assert.Equal(t, tt.want, Age(date(t, tt.dob), date(t, tt.now)))
		})
	}
}

func TestEligibleBoundaries(t *testing.T) {
	p := Policy{MinAge: intPtr(18), MaxAge: intPtr(60)}

	assert.False(t, p.Eligible(17))
	assert.True(t, p.Eligible(18))
	assert.True(t, p.Eligible(60))
	assert.False(t, p.Eligible(61))
}

func TestEligibleDefaults(t *testing.T) {
	p := Policy{}
	minAge, maxAge := p.AgeBounds()
	assert.Equal(t, 0, minAge)
	assert.Equal(t, 100, maxAge)
	assert.True(t, p.Eligible(0))
	assert.True(t, p.Eligible(100))
	assert.False(t, p.Eligible(101))

	onlyMin := Policy{MinAge: intPtr(21)}
	assert.False(t, onlyMin.Eligible(20))
	assert.True(t, onlyMin.Eligible(99))
}

func TestPartition(t *testing.T) {
	policies := []Policy{
		{ID: 1, MinAge: intPtr(18), MaxAge: intPtr(60)},
		{ID: 2, MinAge: intPtr(65)},
		{ID: 3},
	}

	eligible, ineligible := Partition(policies, 61)

	require.Len(t, eligible, 1)
	assert.Equal(t, int64(3), eligible[0].ID)
	require.Len(t, ineligible, 2)
	assert.Equal(t, int64(1), ineligible[0].Policy.ID)
	assert.Equal(t, "(Customer: 61) not in required range (18-60)", ineligible[0].Reason)
	assert.Equal(t, "(Customer: 61) not in required range (65-100)", ineligible[1].Reason)
}

func TestCommission(t *testing.T) {
	assert.Equal(t, "12.5%", Commission{Value: 12.5, Type: CommissionPercentage}.Display())
	assert.Equal(t, "$250", Commission{Value: 250, Type: CommissionFlat}.Display())
	assert.InDelta(t, 75.0, AgentEarning(1500, 5), 1e-9)

	p := Policy{PremiumAmount: 1200, AgentCommissionPercent: 10}
	assert.InDelta(t, 120.0, p.AgentEarning(), 1e-9)
}

func TestCreatePolicyRequestValidate(t *testing.T) {
	valid := CreatePolicyRequest{
		Name:                   "Term Life",
		PolicyTypeID:           1,
		PremiumAmount:          500,
		CoverageAmount:         100000,
		Tenure:                 Tenure{Value: 10, Unit: TenureYears},
		MinAge:                 intPtr(18),
		MaxAge:                 intPtr(60),
		Source:                 SourceInHouse,
		AgentCommissionPercent: 5,
	}
	assert.True(t, valid.Validate().Empty())

	bad := valid
	bad.MinAge = intPtr(70)
	bad.CoverageAmount = 100
	bad.AgentCommissionPercent = 120
	fe := bad.Validate()
	assert.NotEmpty(t, fe["age"])
	assert.NotEmpty(t, fe["premium_amount"])
	assert.NotEmpty(t, fe["agent_commission_percent"])

	third := valid
	third.Source = SourceThirdParty
	fe = third.Validate()
	assert.NotEmpty(t, fe["provider_id"])
	assert.NotEmpty(t, fe["company_commission"])

	providerID := int64(3)
	third.ProviderID = &providerID
	third.CompanyCommission = &Commission{Value: 10, Type: CommissionPercentage}
	third.AdminCommission = &Commission{Value: 50, Type: CommissionFlat}
	assert.True(t, third.Validate().Empty())
}

func TestUpdateApplyClearsThirdPartyFieldsForInHouse(t *testing.T) {
	providerID := int64(9)
	p := Policy{
		Source:            SourceThirdParty,
		ProviderID:        &providerID,
		CompanyCommission: &Commission{Value: 1, Type: CommissionFlat},
	}
	src := SourceInHouse
	req := UpdatePolicyRequest{Source: &src}
	req.Apply(&p)

	assert.Nil(t, p.ProviderID)
	assert.Nil(t, p.CompanyCommission)
}
