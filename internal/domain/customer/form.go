package customer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"insurance-service/internal/pkg/validation"
)

// DateLayout is the wire format for dates of birth.
const DateLayout = "2006-01-02"

// Personal is the first wizard step. Values are kept as entered.
type Personal struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DateOfBirth  string `json:"date_of_birth"`
	Gender       string `json:"gender"`
	Occupation   string `json:"occupation"`
	AnnualIncome string `json:"annual_income"`
}

// PersonalFields are the required keys of the personal step.
var PersonalFields = []string{"first_name", "last_name", "date_of_birth", "occupation", "annual_income"}

// Validate reports required-field errors and unparseable values.
func (p Personal) Validate() validation.FieldErrors {
	return p.ValidateAt(time.Now())
}

// ValidateAt is Validate with the date of birth checked against now.
func (p Personal) ValidateAt(now time.Time) validation.FieldErrors {
	fe := validation.FieldErrors{}
	fe.Set("first_name", validation.Required(p.FirstName))
	fe.Set("last_name", validation.Required(p.LastName))
	fe.Set("date_of_birth", validation.Required(p.DateOfBirth))
	fe.Set("occupation", validation.Required(p.Occupation))
	fe.Set("annual_income", validation.Required(p.AnnualIncome))

	if p.DateOfBirth != "" {
		dob, err := p.DOB()
		switch {
		case err != nil:
			fe.Set("date_of_birth", "date of birth must be YYYY-MM-DD")
		case dob.After(now):
			fe.Set("date_of_birth", "date of birth is in the future")
		}
	}
	if p.AnnualIncome != "" {
		if v, err := p.Income(); err != nil {
			fe.Set("annual_income", "annual income must be a number")
		} else {
			fe.Set("annual_income", validation.NonNegativeAmount(v))
		}
	}
	return fe
}

func (p Personal) DOB() (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(p.DateOfBirth))
}

func (p Personal) Income() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(p.AnnualIncome), 64)
}

// Contact is the second wizard step.
type Contact struct {
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// ContactFields are the keys whose errors block the contact step.
var ContactFields = []string{"email", "phone", "address_line1", "city", "state", "postal_code"}

func (c Contact) Validate() validation.FieldErrors {
	fe := validation.FieldErrors{}
	fe.Set("email", validation.Email(c.Email))
	fe.Set("phone", validation.Phone(validation.Digits(c.Phone)))
	fe.Set("address_line1", validation.Required(c.AddressLine1))
	fe.Set("city", validation.Required(c.City))
	fe.Set("state", validation.Required(c.State))
	fe.Set("postal_code", validation.Required(c.PostalCode))
	return fe
}

// Nominee is optional; when Enabled a nominee ID document is required.
type Nominee struct {
	Enabled      bool   `json:"has_nominee"`
	Name         string `json:"nominee_name"`
	Relationship string `json:"nominee_relationship"`
	Phone        string `json:"nominee_phone"`
}

// PolicySelection is the policy step; zero means nothing selected.
type PolicySelection struct {
	PolicyID int64 `json:"policy_id"`
}

// Form is the full onboarding aggregate.
type Form struct {
	Personal Personal
	Contact  Contact
	Nominee  Nominee
	Policy   PolicySelection
}

// Field is one scalar multipart part.
type Field struct {
	Key   string
	Value string
}

// Fields flattens the form into snake_case scalar parts in a stable order.
func (f Form) Fields() []Field {
	fields := []Field{
		{"first_name", f.Personal.FirstName},
		{"last_name", f.Personal.LastName},
		{"date_of_birth", f.Personal.DateOfBirth},
		{"gender", f.Personal.Gender},
		{"occupation", f.Personal.Occupation},
		{"annual_income", f.Personal.AnnualIncome},
		{"email", f.Contact.Email},
		{"phone", validation.Digits(f.Contact.Phone)},
		{"address_line1", f.Contact.AddressLine1},
		{"address_line2", f.Contact.AddressLine2},
		{"city", f.Contact.City},
		{"state", f.Contact.State},
		{"postal_code", f.Contact.PostalCode},
		{"country", f.Contact.Country},
		{"has_nominee", strconv.FormatBool(f.Nominee.Enabled)},
	}
	if f.Nominee.Enabled {
		fields = append(fields,
			Field{"nominee_name", f.Nominee.Name},
			Field{"nominee_relationship", f.Nominee.Relationship},
			Field{"nominee_phone", f.Nominee.Phone},
		)
	}
	if f.Policy.PolicyID > 0 {
		fields = append(fields, Field{"policy_id", strconv.FormatInt(f.Policy.PolicyID, 10)})
	}
	return fields
}

// FormFromValues is the inverse of Fields; get returns "" for absent keys.
func FormFromValues(get func(key string) string) (Form, error) {
	f := Form{
		Personal: Personal{
			FirstName:    strings.TrimSpace(get("first_name")),
			LastName:     strings.TrimSpace(get("last_name")),
			DateOfBirth:  strings.TrimSpace(get("date_of_birth")),
			Gender:       strings.TrimSpace(get("gender")),
			Occupation:   strings.TrimSpace(get("occupation")),
			AnnualIncome: strings.TrimSpace(get("annual_income")),
		},
		Contact: Contact{
			Email:        strings.TrimSpace(get("email")),
			Phone:        strings.TrimSpace(get("phone")),
			AddressLine1: strings.TrimSpace(get("address_line1")),
			AddressLine2: strings.TrimSpace(get("address_line2")),
			City:         strings.TrimSpace(get("city")),
			State:        strings.TrimSpace(get("state")),
			PostalCode:   strings.TrimSpace(get("postal_code")),
			Country:      strings.TrimSpace(get("country")),
		},
		Nominee: Nominee{
			Name:         strings.TrimSpace(get("nominee_name")),
			Relationship: strings.TrimSpace(get("nominee_relationship")),
			Phone:        strings.TrimSpace(get("nominee_phone")),
		},
	}

	if v := get("has_nominee"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("has_nominee: %w", err)
		}
		f.Nominee.Enabled = enabled
	}
	if v := get("policy_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("policy_id: %w", err)
		}
		f.Policy.PolicyID = id
	}
	return f, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
