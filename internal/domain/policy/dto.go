// internal/domain/policy/dto.go
package policy

import (
	"insurance-service/internal/pkg/validation"
)

type CreatePolicyRequest struct {
	Name         string `json:"name" binding:"required,max=255"`
	PolicyTypeID int64  `json:"policy_type_id" binding:"required"`
	PlanName     string `json:"plan_name" binding:"max=255"`
	Description  string `json:"description"`

	PremiumAmount  float64 `json:"premium_amount" binding:"required"`
	CoverageAmount float64 `json:"coverage_amount" binding:"required"`
	Tenure         Tenure  `json:"tenure"`
	Renewable      bool    `json:"renewable"`

	MinAge *int `json:"min_age"`
	MaxAge *int `json:"max_age"`

	Source     Source `json:"source" binding:"required,oneof=IN_HOUSE THIRD_PARTY"`
	ProviderID *int64 `json:"provider_id"`

	AgentCommissionPercent float64     `json:"agent_commission_percent"`
	CompanyCommission      *Commission `json:"company_commission"`
	AdminCommission        *Commission `json:"admin_commission"`
}

// Validate applies the catalog rules gin's binding tags cannot express.
func (r *CreatePolicyRequest) Validate() validation.FieldErrors {
	fe := validation.FieldErrors{}

	fe.Set("name", validation.Required(r.Name))
	fe.Set("premium_amount", validation.PremiumVsCoverage(r.PremiumAmount, r.CoverageAmount))
	fe.Set("agent_commission_percent", validation.CommissionPercent(r.AgentCommissionPercent))

	minAge, maxAge := DefaultMinAge, DefaultMaxAge
	if r.MinAge != nil {
		minAge = *r.MinAge
	}
	if r.MaxAge != nil {
		maxAge = *r.MaxAge
	}
	fe.Set("age", validation.AgeBounds(minAge, maxAge))

	if r.Tenure.Value <= 0 {
		fe.Set("tenure", "tenure must be positive")
	}
	switch r.Tenure.Unit {
	case TenureDays, TenureMonths, TenureYears:
	default:
		fe.Set("tenure", "tenure unit must be DAYS, MONTHS or YEARS")
	}

	if r.Source == SourceThirdParty {
		if r.ProviderID == nil {
			fe.Set("provider_id", "third-party policies require a provider")
		}
		fe.Set("company_commission", validateCommission(r.CompanyCommission))
		fe.Set("admin_commission", validateCommission(r.AdminCommission))
	}
	return fe
}

func validateCommission(c *Commission) string {
	if c == nil {
		return "is required for third-party policies"
	}
	switch c.Type {
	case CommissionPercentage:
		return validation.CommissionPercent(c.Value)
	case CommissionFlat:
		return validation.NonNegativeAmount(c.Value)
	default:
		return "type must be PERCENTAGE or FLAT"
	}
}

// UpdatePolicyRequest is merged onto the stored policy and re-validated.
type UpdatePolicyRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=255"`
	PolicyTypeID *int64  `json:"policy_type_id"`
	PlanName     *string `json:"plan_name"`
	Description  *string `json:"description"`

	PremiumAmount  *float64 `json:"premium_amount"`
	CoverageAmount *float64 `json:"coverage_amount"`
	Tenure         *Tenure  `json:"tenure"`
	Renewable      *bool    `json:"renewable"`

	MinAge *int `json:"min_age"`
	MaxAge *int `json:"max_age"`

	Source     *Source `json:"source" binding:"omitempty,oneof=IN_HOUSE THIRD_PARTY"`
	ProviderID *int64  `json:"provider_id"`

	AgentCommissionPercent *float64    `json:"agent_commission_percent"`
	CompanyCommission      *Commission `json:"company_commission"`
	AdminCommission        *Commission `json:"admin_commission"`

	Status *Status `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// Apply merges the request onto p.
func (r *UpdatePolicyRequest) Apply(p *Policy) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.PolicyTypeID != nil {
		p.PolicyTypeID = *r.PolicyTypeID
	}
	if r.PlanName != nil {
		p.PlanName = *r.PlanName
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.PremiumAmount != nil {
		p.PremiumAmount = *r.PremiumAmount
	}
	if r.CoverageAmount != nil {
		p.CoverageAmount = *r.CoverageAmount
	}
	if r.Tenure != nil {
		p.Tenure = *r.Tenure
	}
	if r.Renewable != nil {
		p.Renewable = *r.Renewable
	}
	if r.MinAge != nil {
		p.MinAge = r.MinAge
	}
	if r.MaxAge != nil {
		p.MaxAge = r.MaxAge
	}
	if r.Source != nil {
		p.Source = *r.Source
	}
	if r.ProviderID != nil {
		p.ProviderID = r.ProviderID
	}
	if r.AgentCommissionPercent != nil {
		p.AgentCommissionPercent = *r.AgentCommissionPercent
	}
	if r.CompanyCommission != nil {
		p.CompanyCommission = r.CompanyCommission
	}
	if r.AdminCommission != nil {
		p.AdminCommission = r.AdminCommission
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	if p.Source == SourceInHouse {
		p.ProviderID = nil
		p.CompanyCommission = nil
		p.AdminCommission = nil
	}
}

// AsCreateRequest lets an updated policy go through the same checks as a new one.
func (p *Policy) AsCreateRequest() *CreatePolicyRequest {
	return &CreatePolicyRequest{
		Name:                   p.Name,
		PolicyTypeID:           p.PolicyTypeID,
		PlanName:               p.PlanName,
		Description:            p.Description,
		PremiumAmount:          p.PremiumAmount,
		CoverageAmount:         p.CoverageAmount,
		Tenure:                 p.Tenure,
		Renewable:              p.Renewable,
		MinAge:                 p.MinAge,
		MaxAge:                 p.MaxAge,
		Source:                 p.Source,
		ProviderID:             p.ProviderID,
		AgentCommissionPercent: p.AgentCommissionPercent,
		CompanyCommission:      p.CompanyCommission,
		AdminCommission:        p.AdminCommission,
	}
}

type ListFilters struct {
	Search       string  `form:"search"`
	Status       *Status `form:"status"`
	Source       *Source `form:"source"`
	PolicyTypeID *int64  `form:"policy_type_id"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size" binding:"omitempty,max=100"`
}

type ListResponse struct {
	Policies   []Policy `json:"policies"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
}

type EligibilityResponse struct {
	Age        int          `json:"age"`
	Eligible   []Policy     `json:"eligible"`
	Ineligible []Ineligible `json:"ineligible"`
}

type PolicyTypeRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description string  `json:"description"`
	Status      *Status `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

type ProviderRequest struct {
	Name         string  `json:"name" binding:"required,max=255"`
	ContactEmail string  `json:"contact_email"`
	ContactPhone string  `json:"contact_phone"`
	Website      string  `json:"website"`
	Status       *Status `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// Validate checks the optional contact fields when present.
func (r *ProviderRequest) Validate() validation.FieldErrors {
	fe := validation.FieldErrors{}
	fe.Set("name", validation.Required(r.Name))
	if r.ContactEmail != "" {
		fe.Set("contact_email", validation.Email(r.ContactEmail))
	}
	if r.ContactPhone != "" {
		fe.Set("contact_phone", validation.Phone(validation.Digits(r.ContactPhone)))
	}
	return fe
}
