package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"insurance-service/internal/domain/customer"
	"insurance-service/internal/domain/document"
	"insurance-service/internal/domain/policy"
	xerrors "insurance-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

var catalog = []policy.Policy{
	{ID: 1, Name: "Young Saver", MinAge: intPtr(18), MaxAge: intPtr(30), Status: policy.StatusActive},
	{ID: 2, Name: "Family Cover", MinAge: intPtr(18), MaxAge: intPtr(60), Status: policy.StatusActive},
	{ID: 3, Name: "Retired", MinAge: intPtr(61), Status: policy.StatusActive},
	{ID: 4, Name: "Legacy", Status: policy.StatusInactive},
}

type fakeSubmitter struct {
	mu       sync.Mutex
	calls    int
	updates  []int64
	payloads []*Payload
	release  chan struct{}
	started  chan struct{}
	err      error
}

func (f *fakeSubmitter) record(id int64, p *Payload) (*customer.Details, error) {
	f.mu.Lock()
	f.calls++
	f.payloads = append(f.payloads, p)
	if id != 0 {
		f.updates = append(f.updates, id)
	}
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if id == 0 {
		id = 99
	}
	return &customer.Details{
		Customer: customer.Customer{ID: id},
		Documents: []document.Record{
			{ID: 10, Type: document.GovernmentID, Name: "id.pdf"},
			{ID: 11, Type: document.ProofOfAddress, Name: "bill.pdf"},
			{ID: 12, Type: document.IncomeProof, Name: "pay.pdf"},
		},
	}, nil
}

func (f *fakeSubmitter) Onboard(_ context.Context, p *Payload) (*customer.Details, error) {
	return f.record(0, p)
}

func (f *fakeSubmitter) UpdateCustomer(_ context.Context, id int64, p *Payload) (*customer.Details, error) {
	return f.record(id, p)
}

func validPersonal() customer.Personal {
	return customer.Personal{
		FirstName:    "Jane",
		LastName:     "Doe",
		DateOfBirth:  "2000-06-15",
		Occupation:   "Engineer",
		AnnualIncome: "50000",
	}
}

func validContact() customer.Contact {
	return customer.Contact{
		Email:        "jane@example.com",
		Phone:        "1234567890",
		AddressLine1: "1 Main St",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62701",
	}
}

func stageKYC(t *testing.T, w *Wizard) {
	t.Helper()
	for _, typ := range document.RequiredKYC {
		require.NoError(t, w.StageDocument(typ, pdf(string(typ)+".pdf", 4)))
	}
}

// readyWizard returns an onboarding wizard parked on the review step.
func readyWizard(t *testing.T) *Wizard {
	t.Helper()
	w := NewOnboarding(catalog, WithClock(clock))
	w.UpdatePersonal(validPersonal())
	require.NoError(t, w.Next())
	w.UpdateContact(validContact())
	require.NoError(t, w.Next())
	stageKYC(t, w)
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectPolicy(2))
	require.NoError(t, w.Next())
	require.Equal(t, StepReview, w.Step())
	return w
}

func TestNextIsNoOpWhenStepIncomplete(t *testing.T) {
	w := NewOnboarding(catalog, WithClock(clock))

	err := w.Next()
	assert.ErrorIs(t, err, ErrStepIncomplete)
	assert.Equal(t, StepPersonal, w.Step())

	p := validPersonal()
	p.AnnualIncome = "  "
	w.UpdatePersonal(p)
	assert.ErrorIs(t, w.Next(), ErrStepIncomplete)
	assert.Equal(t, StepPersonal, w.Step())

	w.UpdatePersonal(validPersonal())
	require.NoError(t, w.Next())
	assert.Equal(t, StepContact, w.Step())
}

func TestContactStepGating(t *testing.T) {
	w := NewOnboarding(catalog, WithClock(clock))
	w.UpdatePersonal(validPersonal())
	require.NoError(t, w.Next())

	c := validContact()
	c.Email = "jane@example"
	w.UpdateContact(c)
	assert.NotEmpty(t, w.FieldError("email"))
	assert.False(t, w.CanProceed(StepContact))

	c.Email = "jane@example.com"
	c.City = ""
	w.UpdateContact(c)
	assert.Empty(t, w.FieldError("email"))
	assert.False(t, w.CanProceed(StepContact))

	w.UpdateContact(validContact())
	assert.True(t, w.CanProceed(StepContact))

	w.SetFieldError("postal_code", "unknown postal code")
	assert.False(t, w.CanProceed(StepContact))
	assert.ErrorIs(t, w.Next(), ErrStepIncomplete)
	assert.Equal(t, StepContact, w.Step())
}

func TestPhoneInputIsClamped(t *testing.T) {
	w := NewOnboarding(catalog, WithClock(clock))
	w.TypePhone("12345678901")
	assert.Equal(t, "1234567890", w.Form().Contact.Phone)

	c := w.Form().Contact
	c.Phone = "123456789a"
	w.UpdateContact(c)
	assert.Equal(t, "1234567890", w.Form().Contact.Phone)
}

func TestKYCStepRequiresNomineeIDWhenOptedIn(t *testing.T) {
	w := NewOnboarding(catalog, WithClock(clock))
	assert.False(t, w.CanProceed(StepKYC))

	stageKYC(t, w)
	assert.True(t, w.CanProceed(StepKYC))

	w.UpdateNominee(customer.Nominee{Enabled: true, Name: "John"})
	assert.False(t, w.CanProceed(StepKYC))

	require.NoError(t, w.StageDocument(document.NomineeID, pdf("nominee.pdf", 2)))
	assert.True(t, w.CanProceed(StepKYC))
}

func TestSelectPolicyRejectsIneligible(t *testing.T) {
	w := NewOnboarding(catalog, WithClock(clock))
	w.UpdatePersonal(validPersonal()) // age 23 on 2024-03-01

	require.NoError(t, w.SelectPolicy(1))
	assert.Equal(t, int64(1), w.Form().Policy.PolicyID)

	err := w.SelectPolicy(3)
	assert.ErrorIs(t, err, xerrors.ErrIneligible)
	assert.Contains(t, err.Error(), "(Customer: 23) not in required range (61-100)")
	assert.Equal(t, int64(1), w.Form().Policy.PolicyID)

	assert.ErrorIs(t, w.SelectPolicy(4), xerrors.ErrNotFound)
	assert.ErrorIs(t, w.SelectPolicy(404), xerrors.ErrNotFound)
	assert.Equal(t, int64(1), w.Form().Policy.PolicyID)
}

func TestPoliciesPartition(t *testing.T) {
	w := NewOnboarding(catalog, WithClock(clock))
	_, err := w.Policies()
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	w.UpdatePersonal(validPersonal())
	res, err := w.Policies()
	require.NoError(t, err)
	assert.Equal(t, 23, res.Age)
	assert.Len(t, res.Eligible, 2)
	require.Len(t, res.Ineligible, 1)
	assert.Equal(t, int64(3), res.Ineligible[0].Policy.ID)
}

func TestPolicyStepOnlyRequiredWhenOnboarding(t *testing.T) {
	onboard := NewOnboarding(catalog, WithClock(clock))
	assert.False(t, onboard.CanProceed(StepPolicy))

	edit := NewEdit(customer.Details{Customer: customer.Customer{ID: 5}}, catalog, WithClock(clock))
	assert.True(t, edit.CanProceed(StepPolicy))
}

func TestBackAndGoTo(t *testing.T) {
	w := readyWizard(t)

	w.Back()
	assert.Equal(t, StepPolicy, w.Step())
	require.NoError(t, w.GoTo(StepPersonal))
	w.Back()
	assert.Equal(t, StepPersonal, w.Step())

	assert.Error(t, w.GoTo(StepContact))
	assert.Equal(t, StepPersonal, w.Step())
	assert.Error(t, w.GoTo(Step(0)))
}

func TestNextOnLastStep(t *testing.T) {
	w := readyWizard(t)
	assert.ErrorIs(t, w.Next(), ErrAtLastStep)
	assert.Equal(t, StepReview, w.Step())
}

func TestSubmitOnlyFromLastStep(t *testing.T) {
	w := NewOnboarding(catalog, WithClock(clock))
	sub := &fakeSubmitter{}

	_, err := w.Submit(context.Background(), sub)
	assert.ErrorIs(t, err, ErrNotLastStep)
	assert.Zero(t, sub.calls)
}

func TestSubmitOnboard(t *testing.T) {
	w := readyWizard(t)
	sub := &fakeSubmitter{}

	details, err := w.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, int64(99), details.Customer.ID)
	assert.Equal(t, 1, sub.calls)
	assert.Empty(t, sub.updates)

	// documents are now persisted and are not sent again
	d, _ := w.Documents().Get(document.GovernmentID)
	_, persisted := d.(document.Persisted)
	assert.True(t, persisted)
	assert.False(t, w.Submitting())
}

func TestSubmitGuardsAgainstDoubleFire(t *testing.T) {
	w := readyWizard(t)
	sub := &fakeSubmitter{release: make(chan struct{}), started: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background(), sub)
		done <- err
	}()

	<-sub.started
	assert.True(t, w.Submitting())
	_, err := w.Submit(context.Background(), sub)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(sub.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, sub.calls)
}

func TestSubmitEditSendsOnlyNewDocuments(t *testing.T) {
	policyID := int64(2)
	stored := customer.Details{
		Customer: customer.Customer{
			ID:           7,
			FirstName:    "Jane",
			LastName:     "Doe",
			DateOfBirth:  fixedNow.AddDate(-30, 0, 0),
			Occupation:   "Engineer",
			AnnualIncome: 50000,
			Email:        "jane@example.com",
			Phone:        "1234567890",
			AddressLine1: "1 Main St",
			City:         "Springfield",
			State:        "IL",
			PostalCode:   "62701",
			PolicyID:     &policyID,
		},
		Documents: []document.Record{
			{ID: 1, Type: document.GovernmentID, Name: "passport.pdf"},
			{ID: 2, Type: document.ProofOfAddress, Name: "bill.pdf"},
			{ID: 3, Type: document.IncomeProof, Name: "pay.pdf"},
		},
	}
	w := NewEdit(stored, catalog, WithClock(clock))
	for w.Step() < LastStep {
		require.NoError(t, w.Next(), w.Step().String())
	}
	require.NoError(t, w.Documents().Stage(document.IncomeProof, pdf("new-pay.pdf", 3)))

	sub := &fakeSubmitter{}
	_, err := w.Submit(context.Background(), sub)
	require.NoError(t, err)
	require.Equal(t, []int64{7}, sub.updates)

	var files []part
	for _, p := range readParts(t, sub.payloads[0]) {
		if p.filename != "" {
			files = append(files, p)
		}
	}
	require.Len(t, files, 1)
	assert.Equal(t, "income_proof", files[0].name)
	assert.Equal(t, "new-pay.pdf", files[0].filename)
}

func TestSubmitFailureSurfacesFieldErrors(t *testing.T) {
	w := readyWizard(t)
	sub := &fakeSubmitter{err: &xerrors.ValidationError{Fields: map[string]string{"email": "already registered"}}}

	_, err := w.Submit(context.Background(), sub)
	require.Error(t, err)
	var verr *xerrors.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "already registered", w.FieldError("email"))
	assert.False(t, w.Submitting())
}
