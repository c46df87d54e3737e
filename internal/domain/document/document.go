// Package document models KYC documents attached to a customer.
package document

import (
	"time"
)

type Type string

const (
	GovernmentID   Type = "government_id"
	ProofOfAddress Type = "proof_of_address"
	IncomeProof    Type = "income_proof"
	NomineeID      Type = "nominee_id"
	Other          Type = "other"
)

// RequiredKYC must be present on every customer.
var RequiredKYC = []Type{GovernmentID, ProofOfAddress, IncomeProof}

// Keyed lists the types stored one-per-customer, in form order.
var Keyed = []Type{GovernmentID, ProofOfAddress, IncomeProof, NomineeID}

// Multipart field names for the repeated "other" documents.
const (
	OtherFilesField = "other_documents"
	OtherNamesField = "other_document_names"
)

// ParseKeyed maps a multipart field name to a keyed document type.
func ParseKeyed(field string) (Type, bool) {
	for _, t := range Keyed {
		if string(t) == field {
			return t, true
		}
	}
	return "", false
}

// Document is either Persisted or Pending.
type Document interface {
	DisplayName() string
	UploadedOn() time.Time
	sealed()
}

// Persisted is a document already stored by the server. It satisfies
// presence checks and is never sent again.
type Persisted struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	UploadDate time.Time `json:"upload_date"`
}

// Pending is a staged file that has not been transmitted yet.
type Pending struct {
	Name       string
	MIME       string
	Size       int64
	Data       []byte
	UploadDate time.Time
}

func (p Persisted) DisplayName() string { return p.Name }
func (p Persisted) UploadedOn() time.Time { return p.UploadDate }
func (Persisted) sealed() {}
func (p *Pending) DisplayName() string { return p.Name }
func (p *Pending) UploadedOn() time.Time { return p.UploadDate }
func (*Pending) sealed() {}

// Record is the stored row for a customer document.
type Record struct {
	ID           int64      `json:"id" db:"id"`
	CustomerID   int64      `json:"customer_id" db:"customer_id"`
	Type         Type       `json:"document_type" db:"document_type"`
	Name         string     `json:"name" db:"display_name"`
	ContentType  string     `json:"content_type" db:"content_type"`
	Size         int64      `json:"size" db:"size_bytes"`
	StorageKey   string     `json:"-" db:"storage_key"`
	Checksum     string     `json:"checksum" db:"checksum"`
	SupersededAt *time.Time `json:"superseded_at,omitempty" db:"superseded_at"`
	UploadedAt   time.Time  `json:"uploaded_at" db:"uploaded_at"`
}

// Persisted converts a stored record into its client-side form.
func (r Record) Persisted() Persisted {
	return Persisted{ID: r.ID, Name: r.Name, UploadDate: r.UploadedAt}
}
