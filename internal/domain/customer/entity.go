// internal/domain/customer/entity.go
package customer

import (
	"time"

	"insurance-service/internal/domain/document"

	"github.com/lib/pq"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

type Customer struct {
	ID        int64  `json:"id" db:"id"`
	Reference string `json:"reference" db:"reference"`
	AgentID   int64  `json:"agent_id" db:"agent_id"`

	// Personal
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	DateOfBirth  time.Time `json:"date_of_birth" db:"date_of_birth"`
	Gender       string    `json:"gender" db:"gender"`
	Occupation   string    `json:"occupation" db:"occupation"`
	AnnualIncome float64   `json:"annual_income" db:"annual_income"`

	// Contact
	Email        string `json:"email" db:"email"`
	Phone        string `json:"phone" db:"phone"`
	AddressLine1 string `json:"address_line1" db:"address_line1"`
	AddressLine2 string `json:"address_line2" db:"address_line2"`
	City         string `json:"city" db:"city"`
	State        string `json:"state" db:"state"`
	PostalCode   string `json:"postal_code" db:"postal_code"`
	Country      string `json:"country" db:"country"`

	// Nominee
	HasNominee          bool   `json:"has_nominee" db:"has_nominee"`
	NomineeName         string `json:"nominee_name,omitempty" db:"nominee_name"`
	NomineeRelationship string `json:"nominee_relationship,omitempty" db:"nominee_relationship"`
	NomineePhone        string `json:"nominee_phone,omitempty" db:"nominee_phone"`

	PolicyID   *int64 `json:"policy_id,omitempty" db:"policy_id"`
	PolicyName string `json:"policy_name,omitempty" db:"policy_name"`

	Status Status         `json:"status" db:"status"`
	Tags   pq.StringArray `json:"tags,omitempty" db:"tags"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name.
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Details is a customer with its current documents.
type Details struct {
	Customer  Customer          `json:"customer"`
	Documents []document.Record `json:"documents"`
}

// Form rebuilds the wizard form from a stored customer, used when editing.
func (c *Customer) Form() Form {
	f := Form{
		Personal: Personal{
			FirstName:    c.FirstName,
			LastName:     c.LastName,
			DateOfBirth:  c.DateOfBirth.Format(DateLayout),
			Gender:       c.Gender,
			Occupation:   c.Occupation,
			AnnualIncome: formatAmount(c.AnnualIncome),
		},
		Contact: Contact{
			Email:        c.Email,
			Phone:        c.Phone,
			AddressLine1: c.AddressLine1,
			AddressLine2: c.AddressLine2,
			City:         c.City,
			State:        c.State,
			PostalCode:   c.PostalCode,
			Country:      c.Country,
		},
		Nominee: Nominee{
			Enabled:      c.HasNominee,
			Name:         c.NomineeName,
			Relationship: c.NomineeRelationship,
			Phone:        c.NomineePhone,
		},
	}
	if c.PolicyID != nil {
		f.Policy.PolicyID = *c.PolicyID
	}
	return f
}
