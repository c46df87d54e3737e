package auth

import (
	"fmt"
	"sort"
	"time"

	xerrors "insurance-service/internal/pkg/errors"

	"github.com/lib/pq"
)

// Permissions are "module.action" strings granted to the agent role.
const (
	PermCustomersView   = "customers.view"
	PermCustomersCreate = "customers.create"
	PermCustomersEdit   = "customers.edit"
	PermPoliciesView    = "policies.view"
	PermPoliciesManage  = "policies.manage"
	PermClaimsView      = "claims.view"
	PermClaimsCreate    = "claims.create"
	PermClaimsDecide    = "claims.decide"
	PermReportsView     = "reports.view"
	PermProvidersView   = "providers.view"
)

var vocabulary = []string{
	PermCustomersView,
	PermCustomersCreate,
	PermCustomersEdit,
	PermPoliciesView,
	PermPoliciesManage,
	PermClaimsView,
	PermClaimsCreate,
	PermClaimsDecide,
	PermReportsView,
	PermProvidersView,
}

// Vocabulary returns every grantable permission.
func Vocabulary() []string {
	return append([]string(nil), vocabulary...)
}

// NormalizePermissions de-duplicates and sorts perms, rejecting unknown names.
func NormalizePermissions(perms []string) ([]string, error) {
	known := make(map[string]bool, len(vocabulary))
	for _, p := range vocabulary {
		known[p] = true
	}

	seen := make(map[string]bool, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if !known[p] {
			return nil, fmt.Errorf("unknown permission %q: %w", p, xerrors.ErrInvalidInput)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Role is a named permission set.
type Role struct {
	Name        string         `json:"name" db:"name"`
	Permissions pq.StringArray `json:"permissions" db:"permissions"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Has reports whether the role grants perm.
func (r *Role) Has(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
