package postgres

import (
	"context"
	"fmt"

	"insurance-service/internal/domain/policy"
)

type PolicyRepository struct {
	db *DB
}

func NewPolicyRepository(db *DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

const policySelect = `
	SELECT p.id, p.name, p.policy_type_id, COALESCE(pt.name, ''), p.plan_name, p.description,
	       p.premium_amount::float8, p.coverage_amount::float8, p.tenure_value, p.tenure_unit,
	       p.min_age, p.max_age, p.renewable, p.source, p.provider_id, COALESCE(pr.name, ''),
	       p.agent_commission_percent::float8,
	       p.company_commission_value::float8, p.company_commission_type,
	       p.admin_commission_value::float8, p.admin_commission_type,
	       p.status, p.created_at, p.updated_at
	FROM policies p
	LEFT JOIN policy_types pt ON pt.id = p.policy_type_id
	LEFT JOIN providers pr ON pr.id = p.provider_id
`

func scanPolicy(row rowScanner) (*policy.Policy, error) {
	var (
		p            policy.Policy
		companyValue *float64
		companyType  *string
		adminValue   *float64
		adminType    *string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.PolicyTypeID, &p.PolicyType, &p.PlanName, &p.Description,
		&p.PremiumAmount, &p.CoverageAmount, &p.Tenure.Value, &p.Tenure.Unit,
		&p.MinAge, &p.MaxAge, &p.Renewable, &p.Source, &p.ProviderID, &p.ProviderName,
		&p.AgentCommissionPercent,
		&companyValue, &companyType,
		&adminValue, &adminType,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CompanyCommission = commission(companyValue, companyType)
	p.AdminCommission = commission(adminValue, adminType)
	return &p, nil
}

func commission(value *float64, kind *string) *policy.Commission {
	if value == nil || kind == nil {
		return nil
	}
	return &policy.Commission{Value: *value, Type: policy.CommissionType(*kind)}
}

func commissionArgs(c *policy.Commission) (interface{}, interface{}) {
	if c == nil {
		return nil, nil
	}
	return c.Value, string(c.Type)
}

func (r *PolicyRepository) Create(ctx context.Context, p *policy.Policy) error {
	query := `
		INSERT INTO policies (
			name, policy_type_id, plan_name, description, premium_amount, coverage_amount,
			tenure_value, tenure_unit, min_age, max_age, renewable, source, provider_id,
			agent_commission_percent, company_commission_value, company_commission_type,
			admin_commission_value, admin_commission_type, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at
	`
	cv, ct := commissionArgs(p.CompanyCommission)
	av, at := commissionArgs(p.AdminCommission)

	err := r.db.pool.QueryRow(ctx, query,
		p.Name, p.PolicyTypeID, p.PlanName, p.Description, p.PremiumAmount, p.CoverageAmount,
		p.Tenure.Value, p.Tenure.Unit, p.MinAge, p.MaxAge, p.Renewable, p.Source, p.ProviderID,
		p.AgentCommissionPercent, cv, ct, av, at, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "policy")
}

func (r *PolicyRepository) Update(ctx context.Context, p *policy.Policy) error {
	query := `
		UPDATE policies SET
			name = $2, policy_type_id = $3, plan_name = $4, description = $5,
			premium_amount = $6, coverage_amount = $7, tenure_value = $8, tenure_unit = $9,
			min_age = $10, max_age = $11, renewable = $12, source = $13, provider_id = $14,
			agent_commission_percent = $15, company_commission_value = $16, company_commission_type = $17,
			admin_commission_value = $18, admin_commission_type = $19, status = $20, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	cv, ct := commissionArgs(p.CompanyCommission)
	av, at := commissionArgs(p.AdminCommission)

	err := r.db.pool.QueryRow(ctx, query, p.ID,
		p.Name, p.PolicyTypeID, p.PlanName, p.Description, p.PremiumAmount, p.CoverageAmount,
		p.Tenure.Value, p.Tenure.Unit, p.MinAge, p.MaxAge, p.Renewable, p.Source, p.ProviderID,
		p.AgentCommissionPercent, cv, ct, av, at, p.Status,
	).Scan(&p.UpdatedAt)
	return mapError(err, "policy")
}

func (r *PolicyRepository) SetStatus(ctx context.Context, id int64, status policy.Status) error {
	tag, err := r.db.pool.Exec(ctx, `UPDATE policies SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return mapError(err, "policy")
	}
	if tag.RowsAffected() == 0 {
		return mapError(errNoRows, "policy")
	}
	return nil
}

func (r *PolicyRepository) FindByID(ctx context.Context, id int64) (*policy.Policy, error) {
	p, err := scanPolicy(r.db.pool.QueryRow(ctx, policySelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "policy")
	}
	return p, nil
}

// ListActive returns every sellable policy; this is the eligibility catalog.
func (r *PolicyRepository) ListActive(ctx context.Context) ([]policy.Policy, error) {
	return r.query(ctx, policySelect+` WHERE p.status = $1 ORDER BY p.name`, policy.StatusActive)
}

func (r *PolicyRepository) List(ctx context.Context, filters *policy.ListFilters) ([]policy.Policy, int64, error) {
	w := &where{}
	if filters.Status != nil {
		w.add("p.status = $%d", *filters.Status)
	}
	if filters.Source != nil {
		w.add("p.source = $%d", *filters.Source)
	}
	if filters.PolicyTypeID != nil {
		w.add("p.policy_type_id = $%d", *filters.PolicyTypeID)
	}
	if filters.Search != "" {
		w.search(filters.Search, "p.name", "p.plan_name", "pt.name", "pr.name")
	}

	var total int64
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM policies p
		LEFT JOIN policy_types pt ON pt.id = p.policy_type_id
		LEFT JOIN providers pr ON pr.id = p.provider_id
		WHERE %s`, w.clause())
	if err := r.db.pool.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count policies: %w", err)
	}

	limit, offset := page(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d`,
		policySelect, w.clause(), w.next(), w.next()+1)

	policies, err := r.query(ctx, query, append(w.args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return policies, total, nil
}

func (r *PolicyRepository) query(ctx context.Context, query string, args ...interface{}) ([]policy.Policy, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	policies := []policy.Policy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}

type PolicyTypeRepository struct {
	db *DB
}

func NewPolicyTypeRepository(db *DB) *PolicyTypeRepository {
	return &PolicyTypeRepository{db: db}
}

func (r *PolicyTypeRepository) List(ctx context.Context) ([]policy.PolicyType, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, description, status, created_at, updated_at
		FROM policy_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list policy types: %w", err)
	}
	defer rows.Close()

	types := []policy.PolicyType{}
	for rows.Next() {
		var t policy.PolicyType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan policy type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *PolicyTypeRepository) FindByID(ctx context.Context, id int64) (*policy.PolicyType, error) {
	var t policy.PolicyType
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, description, status, created_at, updated_at
		FROM policy_types WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "policy type")
	}
	return &t, nil
}

func (r *PolicyTypeRepository) Create(ctx context.Context, t *policy.PolicyType) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO policy_types (name, description, status) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`, t.Name, t.Description, t.Status).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return mapError(err, "policy type")
}

func (r *PolicyTypeRepository) Update(ctx context.Context, t *policy.PolicyType) error {
	err := r.db.pool.QueryRow(ctx, `
		UPDATE policy_types SET name = $2, description = $3, status = $4, updated_at = NOW()
		WHERE id = $1 RETURNING created_at, updated_at`, t.ID, t.Name, t.Description, t.Status).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	return mapError(err, "policy type")
}

type ProviderRepository struct {
	db *DB
}

func NewProviderRepository(db *DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

const providerColumns = `id, name, contact_email, contact_phone, website, status, created_at, updated_at`

func scanProvider(row rowScanner) (*policy.Provider, error) {
	var p policy.Provider
	err := row.Scan(&p.ID, &p.Name, &p.ContactEmail, &p.ContactPhone, &p.Website, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProviderRepository) List(ctx context.Context) ([]policy.Provider, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT `+providerColumns+` FROM providers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	providers := []policy.Provider{}
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, *p)
	}
	return providers, rows.Err()
}

func (r *ProviderRepository) FindByID(ctx context.Context, id int64) (*policy.Provider, error) {
	p, err := scanProvider(r.db.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "provider")
	}
	return p, nil
}

func (r *ProviderRepository) Create(ctx context.Context, p *policy.Provider) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO providers (name, contact_email, contact_phone, website, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		p.Name, p.ContactEmail, p.ContactPhone, p.Website, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "provider")
}

func (r *ProviderRepository) Update(ctx context.Context, p *policy.Provider) error {
	err := r.db.pool.QueryRow(ctx, `
		UPDATE providers SET name = $2, contact_email = $3, contact_phone = $4, website = $5,
		       status = $6, updated_at = NOW()
		WHERE id = $1 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.ContactEmail, p.ContactPhone, p.Website, p.Status).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "provider")
}

// Delete fails with ErrInUse while any policy references the provider.
func (r *ProviderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM providers WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "provider")
	}
	if tag.RowsAffected() == 0 {
		return mapError(errNoRows, "provider")
	}
	return nil
}
