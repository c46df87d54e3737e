// Package report builds export tables from report queries.
package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"insurance-service/internal/domain/auth"
	"insurance-service/internal/domain/claim"
	"insurance-service/internal/domain/policy"
	"insurance-service/internal/domain/report"
	"insurance-service/internal/export"
	xerrors "insurance-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type Repository interface {
	Claims(ctx context.Context, f *report.Filters) ([]report.ClaimRow, error)
	Commissions(ctx context.Context, f *report.Filters) ([]report.CommissionRow, error)
	Customers(ctx context.Context, f *report.Filters) ([]report.CustomerRow, error)
}

const dateLayout = "2006-01-02"

type ReportService struct {
	repo   Repository
	logger *zap.Logger
}

func NewReportService(repo Repository, logger *zap.Logger) *ReportService {
	return &ReportService{repo: repo, logger: logger}
}

// Build runs the report of the given kind, scoped to the actor's own
// records unless the actor is an admin.
func (s *ReportService) Build(ctx context.Context, actor auth.Actor, kind report.Kind, f *report.Filters) (*export.Table, error) {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, xerrors.NewValidationError(map[string]string{"from": "must not be after to"})
	}
	f.AgentID = actor.AgentScope()

	var (
		t   *export.Table
		err error
	)
	switch kind {
	case report.KindClaims:
		t, err = s.claims(ctx, f)
	case report.KindCommissions:
		t, err = s.commissions(ctx, f)
	case report.KindCustomers:
		t, err = s.customers(ctx, f)
	default:
		return nil, fmt.Errorf("unknown report %q: %w", kind, xerrors.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("report built",
		zap.String("kind", string(kind)),
		zap.Int64("user_id", actor.UserID),
		zap.Int("rows", len(t.Rows)),
	)
	return t, nil
}

func (s *ReportService) claims(ctx context.Context, f *report.Filters) (*export.Table, error) {
	rows, err := s.repo.Claims(ctx, f)
	if err != nil {
		return nil, err
	}
	t := &export.Table{
		Title:   title("Claims", f),
		Headers: []string{"Claim #", "Customer", "Policy", "Type", "Status", "Requested", "Approved", "Filed"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		approved := ""
		if r.ApprovedAmount != nil {
			approved = money(*r.ApprovedAmount)
		}
		t.Rows = append(t.Rows, []string{
			r.ClaimNumber,
			r.Customer,
			r.Policy,
			r.ClaimType,
			claim.Status(r.Status).Label(),
			money(r.RequestedAmount),
			approved,
			r.CreatedAt.Format(dateLayout),
		})
	}
	return t, nil
}

func (s *ReportService) commissions(ctx context.Context, f *report.Filters) (*export.Table, error) {
	rows, err := s.repo.Commissions(ctx, f)
	if err != nil {
		return nil, err
	}
	t := &export.Table{
		Title:   title("Commissions", f),
		Headers: []string{"Agent", "Customer", "Policy", "Premium", "Agent %", "Agent Earning", "Company Commission", "Admin Commission", "Date"},
		Rows:    make([][]string, 0, len(rows)),
	}
	var total float64
	for _, r := range rows {
		earning := policy.AgentEarning(r.Premium, r.AgentCommissionPercent)
		total += earning
		t.Rows = append(t.Rows, []string{
			r.Agent,
			r.Customer,
			r.Policy,
			money(r.Premium),
			strconv.FormatFloat(r.AgentCommissionPercent, 'f', -1, 64) + "%",
			money(earning),
			r.CompanyCommission,
			r.AdminCommission,
			r.CreatedAt.Format(dateLayout),
		})
	}
	if len(rows) > 0 {
		t.Rows = append(t.Rows, []string{"Total", "", "", "", "", money(total), "", "", ""})
	}
	return t, nil
}

func (s *ReportService) customers(ctx context.Context, f *report.Filters) (*export.Table, error) {
	rows, err := s.repo.Customers(ctx, f)
	if err != nil {
		return nil, err
	}
	t := &export.Table{
		Title:   title("Customers", f),
		Headers: []string{"Reference", "Name", "Email", "Phone", "Agent", "Policy", "Status", "Onboarded"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Reference, r.Name, r.Email, r.Phone, r.Agent, r.Policy, r.Status,
			r.CreatedAt.Format(dateLayout),
		})
	}
	return t, nil
}

func title(name string, f *report.Filters) string {
	switch {
	case f.From != nil && f.To != nil:
		return fmt.Sprintf("%s %s to %s", name, f.From.Format(dateLayout), f.To.Format(dateLayout))
	case f.From != nil:
		return fmt.Sprintf("%s since %s", name, f.From.Format(dateLayout))
	case f.To != nil:
		return fmt.Sprintf("%s until %s", name, f.To.Format(dateLayout))
	}
	return name
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Filename is the attachment name for a report built on day.
func Filename(kind report.Kind, day time.Time) string {
	return fmt.Sprintf("%s-report-%s", kind, day.Format(dateLayout))
}
