// internal/domain/policy/entity.go
package policy

import (
	"time"
)

type Source string

const (
	SourceInHouse    Source = "IN_HOUSE"
	SourceThirdParty Source = "THIRD_PARTY"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

type TenureUnit string

const (
	TenureDays   TenureUnit = "DAYS"
	TenureMonths TenureUnit = "MONTHS"
	TenureYears  TenureUnit = "YEARS"
)

// Tenure is a policy duration such as 12 MONTHS.
type Tenure struct {
	Value int        `json:"value"`
	Unit  TenureUnit `json:"unit"`
}

type Policy struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	PolicyTypeID int64  `json:"policy_type_id" db:"policy_type_id"`
	PolicyType   string `json:"policy_type,omitempty" db:"policy_type_name"`
	PlanName     string `json:"plan_name" db:"plan_name"`
	Description  string `json:"description" db:"description"`

	// Pricing
	PremiumAmount  float64 `json:"premium_amount" db:"premium_amount"`
	CoverageAmount float64 `json:"coverage_amount" db:"coverage_amount"`
	Tenure         Tenure  `json:"tenure"`
	Renewable      bool    `json:"renewable" db:"renewable"`

	// Eligibility
	MinAge *int `json:"min_age,omitempty" db:"min_age"`
	MaxAge *int `json:"max_age,omitempty" db:"max_age"`

	// Underwriting
	Source       Source `json:"source" db:"source"`
	ProviderID   *int64 `json:"provider_id,omitempty" db:"provider_id"`
	ProviderName string `json:"provider_name,omitempty" db:"provider_name"`

	// Commission
	AgentCommissionPercent float64     `json:"agent_commission_percent" db:"agent_commission_percent"`
	CompanyCommission      *Commission `json:"company_commission,omitempty"`
	AdminCommission        *Commission `json:"admin_commission,omitempty"`

	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the policy can be sold.
func (p *Policy) IsActive() bool {
	return p.Status == StatusActive
}

type PolicyType struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Provider is an external company underwriting third-party policies.
type Provider struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	ContactEmail string    `json:"contact_email" db:"contact_email"`
	ContactPhone string    `json:"contact_phone" db:"contact_phone"`
	Website      string    `json:"website" db:"website"`
	Status       Status    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
