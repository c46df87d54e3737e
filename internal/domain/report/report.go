// Package report defines the rows behind the downloadable reports.
package report

import (
	"fmt"
	"time"

	xerrors "insurance-service/internal/pkg/errors"
)

type Kind string

const (
	KindClaims      Kind = "claims"
	KindCommissions Kind = "commissions"
	KindCustomers   Kind = "customers"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindClaims, KindCommissions, KindCustomers:
		return k, nil
	}
	return "", fmt.Errorf("unknown report %q: %w", s, xerrors.ErrInvalidInput)
}

type Filters struct {
	From    *time.Time `form:"from" time_format:"2006-01-02"`
	To      *time.Time `form:"to" time_format:"2006-01-02"`
	AgentID *int64     `form:"-"`
}

type ClaimRow struct {
	ClaimNumber     string
	Customer        string
	Policy          string
	ClaimType       string
	Status          string
	RequestedAmount float64
	ApprovedAmount  *float64
	CreatedAt       time.Time
}

// CommissionRow is one customer's policy and the commissions it yields.
type CommissionRow struct {
	Agent                  string
	Customer               string
	Policy                 string
	Premium                float64
	AgentCommissionPercent float64
	CompanyCommission      string
	AdminCommission        string
	CreatedAt              time.Time
}

type CustomerRow struct {
	Reference string
	Name      string
	Email     string
	Phone     string
	Agent     string
	Policy    string
	Status    string
	CreatedAt time.Time
}
