// internal/domain/auth/entity.go
package auth

import "time"

const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// User is a back-office account: an administrator or a field agent.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Phone        string    `json:"phone" db:"phone"`
	Role         string    `json:"role" db:"role"`
	Status       Status    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// AgentSummary is an agent with totals over the customers they onboarded.
type AgentSummary struct {
	User
	CustomerCount int64   `json:"customer_count" db:"customer_count"`
	TotalPremium  float64 `json:"total_premium" db:"total_premium"`
	Earnings      float64 `json:"earnings" db:"earnings"`
}

// Actor is the authenticated caller a service acts on behalf of.
type Actor struct {
	UserID int64
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// AgentScope limits queries to the caller's own records. Admins get nil.
func (a Actor) AgentScope() *int64 {
	if a.IsAdmin() {
		return nil
	}
	id := a.UserID
	return &id
}

// Owns reports whether the caller may act on a record created by agentID.
func (a Actor) Owns(agentID int64) bool {
	return a.IsAdmin() || a.UserID == agentID
}
