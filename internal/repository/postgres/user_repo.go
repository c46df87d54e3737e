// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"fmt"

	"insurance-service/internal/domain/auth"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, phone, role, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *auth.User) error {
	query := `
		INSERT INTO users (email, password_hash, full_name, phone, role, status)
		VALUES (LOWER($1), $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.pool.QueryRow(ctx, query, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role, u.Status).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapError(err, "user")
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`
	u, err := scanUser(r.db.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

func (r *UserRepository) ExistsByRole(ctx context.Context, role string) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE role = $1)`, role).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check users by role: %w", err)
	}
	return exists, nil
}

// Update writes the profile fields of u.
func (r *UserRepository) Update(ctx context.Context, u *auth.User) error {
	query := `
		UPDATE users
		SET full_name = $2, phone = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.pool.QueryRow(ctx, query, u.ID, u.FullName, u.Phone, u.Status).Scan(&u.UpdatedAt)
	return mapError(err, "user")
}

// ListAgents returns agents with their customer count, premium written and
// commission earned over customers holding a policy.
func (r *UserRepository) ListAgents(ctx context.Context) ([]auth.AgentSummary, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.full_name, u.phone, u.role, u.status, u.created_at, u.updated_at,
		       COUNT(c.id),
		       COALESCE(SUM(p.premium_amount), 0)::float8,
		       COALESCE(SUM(p.premium_amount * p.agent_commission_percent / 100), 0)::float8
		FROM users u
		LEFT JOIN customers c ON c.agent_id = u.id
		LEFT JOIN policies p ON p.id = c.policy_id
		WHERE u.role = $1
		GROUP BY u.id
		ORDER BY u.full_name
	`
	rows, err := r.db.pool.Query(ctx, query, auth.RoleAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	agents := []auth.AgentSummary{}
	for rows.Next() {
		var a auth.AgentSummary
		err := rows.Scan(
			&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.Phone, &a.Role, &a.Status, &a.CreatedAt, &a.UpdatedAt,
			&a.CustomerCount, &a.TotalPremium, &a.Earnings,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}
