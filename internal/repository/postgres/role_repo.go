package postgres

import (
	"context"

	"insurance-service/internal/domain/auth"

	"github.com/lib/pq"
)

type RoleRepository struct {
	db *DB
}

func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Get(ctx context.Context, name string) (*auth.Role, error) {
	var role auth.Role
	err := r.db.pool.QueryRow(ctx, `SELECT name, permissions, updated_at FROM roles WHERE name = $1`, name).
		Scan(&role.Name, &role.Permissions, &role.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "role")
	}
	return &role, nil
}

// SetPermissions replaces the permission set of a role, creating it if needed.
func (r *RoleRepository) SetPermissions(ctx context.Context, name string, perms []string) (*auth.Role, error) {
	query := `
		INSERT INTO roles (name, permissions, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET permissions = EXCLUDED.permissions, updated_at = NOW()
		RETURNING name, permissions, updated_at
	`
	var role auth.Role
	err := r.db.pool.QueryRow(ctx, query, name, pq.Array(perms)).Scan(&role.Name, &role.Permissions, &role.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "role")
	}
	return &role, nil
}
