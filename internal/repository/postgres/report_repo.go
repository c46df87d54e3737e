package postgres

import (
	"context"
	"fmt"

	"insurance-service/internal/domain/policy"
	"insurance-service/internal/domain/report"
)

type ReportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func reportWhere(f *report.Filters, createdAt, agentID string) *where {
	w := &where{}
	if f.From != nil {
		w.add(createdAt+" >= $%d", *f.From)
	}
	if f.To != nil {
		w.add(createdAt+" < $%d::date + 1", *f.To)
	}
	if f.AgentID != nil {
		w.add(agentID+" = $%d", *f.AgentID)
	}
	return w
}

func (r *ReportRepository) Claims(ctx context.Context, f *report.Filters) ([]report.ClaimRow, error) {
	w := reportWhere(f, "cl.created_at", "cl.agent_id")
	query := fmt.Sprintf(`
		SELECT cl.claim_number, cu.first_name || ' ' || cu.last_name, p.name, cl.claim_type, cl.status,
		       cl.requested_amount::float8, cl.approved_amount::float8, cl.created_at
		FROM claims cl
		JOIN customers cu ON cu.id = cl.customer_id
		JOIN policies p ON p.id = cl.policy_id
		WHERE %s
		ORDER BY cl.created_at`, w.clause())

	rows, err := r.db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims report: %w", err)
	}
	defer rows.Close()

	out := []report.ClaimRow{}
	for rows.Next() {
		var row report.ClaimRow
		err := rows.Scan(&row.ClaimNumber, &row.Customer, &row.Policy, &row.ClaimType, &row.Status,
			&row.RequestedAmount, &row.ApprovedAmount, &row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claims report: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *ReportRepository) Commissions(ctx context.Context, f *report.Filters) ([]report.CommissionRow, error) {
	w := reportWhere(f, "c.created_at", "c.agent_id")
	query := fmt.Sprintf(`
		SELECT u.full_name, c.first_name || ' ' || c.last_name, p.name, p.premium_amount::float8,
		       p.agent_commission_percent::float8,
		       p.company_commission_value::float8, p.company_commission_type,
		       p.admin_commission_value::float8, p.admin_commission_type,
		       c.created_at
		FROM customers c
		JOIN users u ON u.id = c.agent_id
		JOIN policies p ON p.id = c.policy_id
		WHERE %s
		ORDER BY u.full_name, c.created_at`, w.clause())

	rows, err := r.db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions report: %w", err)
	}
	defer rows.Close()

	out := []report.CommissionRow{}
	for rows.Next() {
		var (
			row          report.CommissionRow
			companyValue *float64
			companyType  *string
			adminValue   *float64
			adminType    *string
		)
		err := rows.Scan(&row.Agent, &row.Customer, &row.Policy, &row.Premium, &row.AgentCommissionPercent,
			&companyValue, &companyType, &adminValue, &adminType, &row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commissions report: %w", err)
		}
		row.CompanyCommission = displayCommission(commission(companyValue, companyType))
		row.AdminCommission = displayCommission(commission(adminValue, adminType))
		out = append(out, row)
	}
	return out, rows.Err()
}

func displayCommission(c *policy.Commission) string {
	if c == nil {
		return ""
	}
	return c.Display()
}

func (r *ReportRepository) Customers(ctx context.Context, f *report.Filters) ([]report.CustomerRow, error) {
	w := reportWhere(f, "c.created_at", "c.agent_id")
	query := fmt.Sprintf(`
		SELECT c.reference, c.first_name || ' ' || c.last_name, c.email, c.phone, u.full_name,
		       COALESCE(p.name, ''), c.status, c.created_at
		FROM customers c
		JOIN users u ON u.id = c.agent_id
		LEFT JOIN policies p ON p.id = c.policy_id
		WHERE %s
		ORDER BY c.created_at`, w.clause())

	rows, err := r.db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers report: %w", err)
	}
	defer rows.Close()

	out := []report.CustomerRow{}
	for rows.Next() {
		var row report.CustomerRow
		err := rows.Scan(&row.Reference, &row.Name, &row.Email, &row.Phone, &row.Agent,
			&row.Policy, &row.Status, &row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customers report: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
