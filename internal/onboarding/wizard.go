// Package onboarding drives the customer onboarding and edit wizard: step
// gating, field errors, document staging and the final submission.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"insurance-service/internal/domain/customer"
	"insurance-service/internal/domain/document"
	"insurance-service/internal/domain/policy"
	xerrors "insurance-service/internal/pkg/errors"
	"insurance-service/internal/pkg/validation"
)

type Mode int

const (
	ModeOnboard Mode = iota
	ModeEdit
)

type Step int

const (
	StepPersonal Step = iota + 1
	StepContact
	StepKYC
	StepPolicy
	StepReview
)

// LastStep is the only step from which Submit is accepted.
const LastStep = StepReview

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "Personal"
	case StepContact:
		return "Contact"
	case StepKYC:
		return "KYC"
	case StepPolicy:
		return "Policy"
	case StepReview:
		return "Review"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

var (
	ErrStepIncomplete = errors.New("current step is incomplete")
	ErrNotLastStep    = errors.New("submit is only available on the last step")
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrAtLastStep     = errors.New("already on the last step")
)

// Submitter sends an assembled payload to the back office.
type Submitter interface {
	Onboard(ctx context.Context, p *Payload) (*customer.Details, error)
	UpdateCustomer(ctx context.Context, id int64, p *Payload) (*customer.Details, error)
}

type Option func(*Wizard)

// WithClock overrides time.Now for age and upload dates.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// Wizard is not safe for concurrent mutation except Submit, which guards
// itself against a second call while one is in flight.
type Wizard struct {
	mode       Mode
	customerID int64
	step       Step
	form       customer.Form
	errors     validation.FieldErrors
	docs       *Staging
	catalog    []policy.Policy
	now        func() time.Time
	submitting atomic.Bool
}

func newWizard(mode Mode, catalog []policy.Policy, opts []Option) *Wizard {
	w := &Wizard{
		mode:    mode,
		step:    StepPersonal,
		errors:  validation.FieldErrors{},
		catalog: catalog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.docs = NewStaging(KYCPolicy, w.now)
	return w
}

// NewOnboarding starts an empty wizard for a new customer.
func NewOnboarding(catalog []policy.Policy, opts ...Option) *Wizard {
	return newWizard(ModeOnboard, catalog, opts)
}

// NewEdit starts a wizard prefilled from a stored customer.
func NewEdit(details customer.Details, catalog []policy.Policy, opts ...Option) *Wizard {
	w := newWizard(ModeEdit, catalog, opts)
	w.customerID = details.Customer.ID
	w.form = details.Customer.Form()
	w.docs.LoadPersisted(details.Documents)
	return w
}

func (w *Wizard) Mode() Mode { return w.mode }
func (w *Wizard) Step() Step { return w.step }
func (w *Wizard) Form() customer.Form { return w.form }
func (w *Wizard) Documents() *Staging { return w.docs }
func (w *Wizard) Submitting() bool { return w.submitting.Load() }
func (w *Wizard) FieldError(field string) string { return w.errors[field] }

// Errors returns a copy of the field error map.
func (w *Wizard) Errors() validation.FieldErrors {
	out := make(validation.FieldErrors, len(w.errors))
	for k, v := range w.errors {
		out[k] = v
	}
	return out
}

// UpdatePersonal replaces the personal step.
func (w *Wizard) UpdatePersonal(p customer.Personal) {
	w.form.Personal = p
}

// UpdateContact replaces the contact step. The phone is clamped to ten
// digits; email and phone errors are refreshed once the field is non-empty.
func (w *Wizard) UpdateContact(c customer.Contact) {
	c.Phone = validation.AcceptPhoneInput(w.form.Contact.Phone, c.Phone)
	w.form.Contact = c

	if c.Email != "" {
		w.errors.Set("email", validation.Email(c.Email))
	} else {
		w.errors.Set("email", "")
	}
	if c.Phone != "" {
		w.errors.Set("phone", validation.Phone(c.Phone))
	} else {
		w.errors.Set("phone", "")
	}
}

// TypePhone feeds keystrokes into the phone field one at a time.
func (w *Wizard) TypePhone(keys string) {
	c := w.form.Contact
	c.Phone = validation.TypePhone(c.Phone, keys)
	w.UpdateContact(c)
}

func (w *Wizard) UpdateNominee(n customer.Nominee) {
	w.form.Nominee = n
}

// SetFieldError records an error reported for field, e.g. by the server.
func (w *Wizard) SetFieldError(field, msg string) {
	w.errors.Set(field, msg)
}

// StageDocument stages a KYC file under t.
func (w *Wizard) StageDocument(t document.Type, f File) error {
	return w.docs.Stage(t, f)
}

// CustomerAge is the age implied by the entered date of birth.
func (w *Wizard) CustomerAge() (int, error) {
	dob, err := w.form.Personal.DOB()
	if err != nil {
		return 0, xerrors.Wrap(xerrors.ErrInvalidInput, "date of birth must be YYYY-MM-DD")
	}
	return policy.Age(dob, w.now()), nil
}

// Policies partitions the active catalog by the customer's age.
func (w *Wizard) Policies() (*policy.EligibilityResponse, error) {
	age, err := w.CustomerAge()
	if err != nil {
		return nil, err
	}
	active := make([]policy.Policy, 0, len(w.catalog))
	for _, p := range w.catalog {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	eligible, ineligible := policy.Partition(active, age)
	return &policy.EligibilityResponse{Age: age, Eligible: eligible, Ineligible: ineligible}, nil
}

// SelectPolicy selects id when the customer is eligible. Nothing changes
// on error.
func (w *Wizard) SelectPolicy(id int64) error {
	var found *policy.Policy
	for i := range w.catalog {
		if w.catalog[i].ID == id {
			found = &w.catalog[i]
			break
		}
	}
	if found == nil || !found.IsActive() {
		return xerrors.Wrap(xerrors.ErrNotFound, "policy")
	}

	age, err := w.CustomerAge()
	if err != nil {
		return err
	}
	if !found.Eligible(age) {
		return fmt.Errorf("%s: %w", found.IneligibleReason(age), xerrors.ErrIneligible)
	}

	w.form.Policy.PolicyID = id
	return nil
}

func (w *Wizard) ClearPolicy() {
	w.form.Policy = customer.PolicySelection{}
}

// CanProceed reports whether step is complete.
func (w *Wizard) CanProceed(step Step) bool {
	switch step {
	case StepPersonal:
		return PersonalComplete(w.form.Personal)
	case StepContact:
		return ContactComplete(w.form.Contact) && !w.errors.Any(customer.ContactFields...)
	case StepKYC:
		return KYCComplete(w.docs.Has, w.form.Nominee.Enabled)
	case StepPolicy:
		return w.mode == ModeEdit || w.form.Policy.PolicyID > 0
	case StepReview:
		return true
	}
	return false
}

// Next advances one step. It leaves the step unchanged and returns
// ErrStepIncomplete when the current step is not complete.
func (w *Wizard) Next() error {
	if w.step >= LastStep {
		return ErrAtLastStep
	}
	if !w.CanProceed(w.step) {
		return fmt.Errorf("%s: %w", w.step, ErrStepIncomplete)
	}
	w.step++
	return nil
}

// Back moves one step back, stopping at the first step.
func (w *Wizard) Back() {
	if w.step > StepPersonal {
		w.step--
	}
}

// GoTo jumps back to an earlier or the current step. Forward jumps must go
// through Next.
func (w *Wizard) GoTo(step Step) error {
	if step < StepPersonal || step > w.step {
		return fmt.Errorf("cannot jump to %s from %s: %w", step, w.step, ErrStepIncomplete)
	}
	w.step = step
	return nil
}

// Submit assembles the payload and sends it. A concurrent call while one
// is running returns ErrSubmitInFlight without sending anything.
func (w *Wizard) Submit(ctx context.Context, s Submitter) (*customer.Details, error) {
	if w.step != LastStep {
		return nil, ErrNotLastStep
	}
	if !w.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer w.submitting.Store(false)

	for step := StepPersonal; step <= LastStep; step++ {
		if !w.CanProceed(step) {
			return nil, fmt.Errorf("%s: %w", step, ErrStepIncomplete)
		}
	}

	payload, err := Assemble(w.form, w.docs)
	if err != nil {
		return nil, err
	}

	var details *customer.Details
	if w.mode == ModeEdit {
		details, err = s.UpdateCustomer(ctx, w.customerID, payload)
	} else {
		details, err = s.Onboard(ctx, payload)
	}
	if err != nil {
		var verr *xerrors.ValidationError
		if errors.As(err, &verr) {
			for k, v := range verr.Fields {
				w.errors.Set(k, v)
			}
		}
		return nil, err
	}

	w.customerID = details.Customer.ID
	w.docs.LoadPersisted(details.Documents)
	return details, nil
}

// PersonalComplete requires every personal field except gender.
func PersonalComplete(p customer.Personal) bool {
	for _, v := range []string{p.FirstName, p.LastName, p.DateOfBirth, p.Occupation, p.AnnualIncome} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// ContactComplete requires a valid email, a ten-digit phone and the
// mandatory address fields.
func ContactComplete(c customer.Contact) bool {
	if validation.Email(c.Email) != "" {
		return false
	}
	if len(validation.Digits(c.Phone)) != validation.PhoneLength {
		return false
	}
	for _, v := range []string{c.AddressLine1, c.City, c.State, c.PostalCode} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// KYCComplete checks the mandatory document types, plus the nominee ID
// when a nominee is declared.
func KYCComplete(has func(document.Type) bool, nominee bool) bool {
	for _, t := range document.RequiredKYC {
		if !has(t) {
			return false
		}
	}
	return !nominee || has(document.NomineeID)
}
