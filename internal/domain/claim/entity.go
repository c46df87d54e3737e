// internal/domain/claim/entity.go
package claim

import (
	"time"
)

type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusSubmitted    Status = "SUBMITTED"
	StatusUnderReview  Status = "UNDER_REVIEW"
	StatusInfoRequired Status = "INFO_REQUIRED"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
	StatusSettled      Status = "SETTLED"
	StatusClosed       Status = "CLOSED"
)

// Label is the human-readable status name used in reports.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusSubmitted:
		return "Submitted"
	case StatusUnderReview:
		return "Under Review"
	case StatusInfoRequired:
		return "Info Required"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	case StatusSettled:
		return "Settled"
	case StatusClosed:
		return "Closed"
	}
	return string(s)
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

type Claim struct {
	ID              int64     `json:"id" db:"id"`
	ClaimNumber     string    `json:"claim_number" db:"claim_number"`
	PolicyID        int64     `json:"policy_id" db:"policy_id"`
	PolicyName      string    `json:"policy_name,omitempty" db:"policy_name"`
	CustomerID      int64     `json:"customer_id" db:"customer_id"`
	CustomerName    string    `json:"customer_name,omitempty" db:"customer_name"`
	AgentID         int64     `json:"agent_id" db:"agent_id"`
	ClaimType       string    `json:"claim_type" db:"claim_type"`
	IncidentDate    time.Time `json:"incident_date" db:"incident_date"`
	Description     string    `json:"description" db:"description"`
	RequestedAmount float64   `json:"requested_amount" db:"requested_amount"`
	ApprovedAmount  *float64  `json:"approved_amount,omitempty" db:"approved_amount"`
	Status          Status    `json:"status" db:"status"`

	Documents []Document      `json:"documents,omitempty"`
	Notes     []Note          `json:"notes,omitempty"`
	Timeline  []TimelineEntry `json:"timeline,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TimelineEntry is one row of the append-only status history.
type TimelineEntry struct {
	ID        int64     `json:"id" db:"id"`
	ClaimID   int64     `json:"claim_id" db:"claim_id"`
	Status    Status    `json:"status" db:"status"`
	Note      string    `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"date" db:"created_at"`
}

type Note struct {
	ID         int64     `json:"id" db:"id"`
	ClaimID    int64     `json:"claim_id" db:"claim_id"`
	AuthorID   int64     `json:"author_id" db:"author_id"`
	AuthorName string    `json:"author_name,omitempty" db:"author_name"`
	Note       string    `json:"note" db:"note"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Document is stored evidence attached to a claim.
type Document struct {
	ID          int64     `json:"id" db:"id"`
	ClaimID     int64     `json:"claim_id" db:"claim_id"`
	Name        string    `json:"name" db:"display_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size_bytes"`
	StorageKey  string    `json:"-" db:"storage_key"`
	Checksum    string    `json:"checksum" db:"checksum"`
	UploadedBy  int64     `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at"`
}
