// internal/service/customer/customer.go
package customer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"insurance-service/internal/domain/auth"
	"insurance-service/internal/domain/customer"
	"insurance-service/internal/domain/document"
	"insurance-service/internal/domain/policy"
	"insurance-service/internal/metrics"
	"insurance-service/internal/onboarding"
	xerrors "insurance-service/internal/pkg/errors"
	"insurance-service/internal/pkg/response"
	"insurance-service/internal/pkg/validation"
	"insurance-service/internal/service/upload"
	"insurance-service/internal/storage"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, c *customer.Customer, docs []document.Record) error
	Update(ctx context.Context, c *customer.Customer, docs []document.Record) error
	FindByID(ctx context.Context, id int64) (*customer.Customer, error)
	List(ctx context.Context, filters *customer.ListFilters) ([]customer.Customer, int64, error)
	CurrentDocuments(ctx context.Context, customerID int64) ([]document.Record, error)
	FindDocument(ctx context.Context, id int64) (*document.Record, error)
}

// EligibilityChecker resolves a policy and verifies it can be sold at dob.
type EligibilityChecker interface {
	CheckEligible(ctx context.Context, policyID int64, dob time.Time) (*policy.Policy, error)
}

type CustomerService struct {
	repo     Repository
	policies EligibilityChecker
	store    storage.ObjectStore
	kyc      onboarding.StagePolicy
	now      func() time.Time
	logger   *zap.Logger
}

func NewCustomerService(repo Repository, policies EligibilityChecker, store storage.ObjectStore, maxUploadBytes int64, logger *zap.Logger) *CustomerService {
	kyc := onboarding.KYCPolicy
	if maxUploadBytes > 0 {
		kyc.MaxBytes = maxUploadBytes
	}
	return &CustomerService{
		repo:     repo,
		policies: policies,
		store:    store,
		kyc:      kyc,
		now:      time.Now,
		logger:   logger,
	}
}

// submission is a parsed onboarding or edit request.
type submission struct {
	form   customer.Form
	keyed  map[document.Type]*upload.File
	others []*upload.File
}

func (s *submission) has(t document.Type) bool {
	_, ok := s.keyed[t]
	return ok
}

// Onboard creates a customer from a multipart wizard submission. Every
// step is re-checked here with the same predicates the wizard uses.
func (s *CustomerService) Onboard(ctx context.Context, actor auth.Actor, mf *multipart.Form) (*customer.Details, error) {
	sub, err := s.parse(mf)
	if err != nil {
		return nil, err
	}
	if err := validateSteps(sub.form, s.now()); err != nil {
		return nil, err
	}
	if !onboarding.KYCComplete(sub.has, sub.form.Nominee.Enabled) {
		return nil, xerrors.NewValidationError(missingDocuments(sub.has, sub.form.Nominee.Enabled))
	}
	if sub.form.Policy.PolicyID <= 0 {
		return nil, xerrors.NewValidationError(map[string]string{"policy_id": "select a policy"})
	}

	dob, _ := sub.form.Personal.DOB()
	if _, err := s.policies.CheckEligible(ctx, sub.form.Policy.PolicyID, dob); err != nil {
		return nil, err
	}

	c := &customer.Customer{
		Reference: s.reference(),
		AgentID:   actor.UserID,
		Status:    customer.StatusActive,
	}
	if err := apply(c, sub.form); err != nil {
		return nil, err
	}

	records, err := s.storeAll(ctx, c.Reference, sub)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c, records); err != nil {
		s.discard(records)
		return nil, err
	}

	metrics.CustomersOnboarded.WithLabelValues("onboard").Inc()
	s.logger.Info("customer onboarded",
		zap.Int64("customer_id", c.ID),
		zap.String("reference", c.Reference),
		zap.Int64("agent_id", c.AgentID),
		zap.Int("documents", len(records)),
	)
	return s.details(ctx, c)
}

// Update applies an edit submission. Absent document parts leave the
// stored document untouched; present ones supersede it.
func (s *CustomerService) Update(ctx context.Context, actor auth.Actor, id int64, mf *multipart.Form) (*customer.Details, error) {
	c, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.CurrentDocuments(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	sub, err := s.parse(mf)
	if err != nil {
		return nil, err
	}
	if err := validateSteps(sub.form, s.now()); err != nil {
		return nil, err
	}

	stored := make(map[document.Type]bool, len(current))
	for _, d := range current {
		stored[d.Type] = true
	}
	has := func(t document.Type) bool { return sub.has(t) || stored[t] }
	if !onboarding.KYCComplete(has, sub.form.Nominee.Enabled) {
		return nil, xerrors.NewValidationError(missingDocuments(has, sub.form.Nominee.Enabled))
	}

	// The policy step is informational on edit. Only a changed selection is
	// checked, so customers who aged out of their policy stay editable.
	changed := sub.form.Policy.PolicyID > 0 && (c.PolicyID == nil || *c.PolicyID != sub.form.Policy.PolicyID)
	if changed {
		dob, _ := sub.form.Personal.DOB()
		if _, err := s.policies.CheckEligible(ctx, sub.form.Policy.PolicyID, dob); err != nil {
			return nil, err
		}
	} else if sub.form.Policy.PolicyID == 0 && c.PolicyID != nil {
		sub.form.Policy.PolicyID = *c.PolicyID
	}

	if err := apply(c, sub.form); err != nil {
		return nil, err
	}

	records, err := s.storeAll(ctx, c.Reference, sub)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c, records); err != nil {
		s.discard(records)
		return nil, err
	}

	metrics.CustomersOnboarded.WithLabelValues("edit").Inc()
	s.logger.Info("customer updated",
		zap.Int64("customer_id", c.ID),
		zap.Int64("actor_id", actor.UserID),
		zap.Int("documents", len(records)),
	)
	return s.details(ctx, c)
}

func (s *CustomerService) Details(ctx context.Context, actor auth.Actor, id int64) (*customer.Details, error) {
	c, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, c)
}

func (s *CustomerService) List(ctx context.Context, actor auth.Actor, filters *customer.ListFilters) (*customer.ListResponse, error) {
	filters.AgentID = actor.AgentScope()
	customers, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []customer.Customer{}
	}
	return &customer.ListResponse{
		Customers:  customers,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: response.TotalPages(total, filters.PageSize),
	}, nil
}

// OpenDocument returns a customer document's blob. The caller must close it.
func (s *CustomerService) OpenDocument(ctx context.Context, actor auth.Actor, docID int64) (*document.Record, io.ReadCloser, error) {
	d, err := s.repo.FindDocument(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.owned(ctx, actor, d.CustomerID); err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, d.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return d, rc, nil
}

// owned hides customers of other agents behind ErrNotFound.
func (s *CustomerService) owned(ctx context.Context, actor auth.Actor, id int64) (*customer.Customer, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(c.AgentID) {
		return nil, xerrors.Wrap(xerrors.ErrNotFound, "customer")
	}
	return c, nil
}

func (s *CustomerService) details(ctx context.Context, c *customer.Customer) (*customer.Details, error) {
	docs, err := s.repo.CurrentDocuments(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []document.Record{}
	}
	return &customer.Details{Customer: *c, Documents: docs}, nil
}

// reference has the form CUST-YYYYMMDD-<last 8 ULID characters>.
func (s *CustomerService) reference() string {
	now := s.now()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	return fmt.Sprintf("CUST-%s-%s", now.Format("20060102"), id[len(id)-8:])
}

func (s *CustomerService) parse(mf *multipart.Form) (*submission, error) {
	if mf == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "multipart form required")
	}
	get := func(key string) string {
		if v := mf.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	form, err := customer.FormFromValues(get)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, err.Error())
	}

	sub := &submission{form: form, keyed: map[document.Type]*upload.File{}}
	for _, t := range document.Keyed {
		files := mf.File[string(t)]
		if len(files) == 0 {
			continue
		}
		f, err := upload.Read(files[0], string(t), s.kyc, storage.ScopeCustomer)
		if err != nil {
			return nil, err
		}
		sub.keyed[t] = f
	}

	names := mf.Value[document.OtherNamesField]
	for i, fh := range mf.File[document.OtherFilesField] {
		f, err := upload.Read(fh, document.OtherFilesField, s.kyc, storage.ScopeCustomer)
		if err != nil {
			return nil, err
		}
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			f.Name = strings.TrimSpace(names[i])
		}
		sub.others = append(sub.others, f)
	}

	// A nominee document without a declared nominee is dropped.
	if !form.Nominee.Enabled {
		delete(sub.keyed, document.NomineeID)
	}
	return sub, nil
}

// storeAll writes every accepted file to the object store. On failure the
// blobs written so far are removed.
func (s *CustomerService) storeAll(ctx context.Context, reference string, sub *submission) ([]document.Record, error) {
	var records []document.Record
	put := func(t document.Type, f *upload.File) error {
		key := storage.CustomerKey(reference, string(t), f.Name)
		obj, err := s.store.Put(ctx, key, bytes.NewReader(f.Data), f.MIME)
		if err != nil {
			return fmt.Errorf("store %s: %w", f.Name, err)
		}
		records = append(records, document.Record{
			Type:        t,
			Name:        f.Name,
			ContentType: f.MIME,
			Size:        obj.Size,
			StorageKey:  obj.Key,
			Checksum:    obj.Checksum,
		})
		return nil
	}

	for _, t := range document.Keyed {
		f, ok := sub.keyed[t]
		if !ok {
			continue
		}
		if err := put(t, f); err != nil {
			s.discard(records)
			return nil, err
		}
	}
	for _, f := range sub.others {
		if err := put(document.Other, f); err != nil {
			s.discard(records)
			return nil, err
		}
	}
	return records, nil
}

func (s *CustomerService) discard(records []document.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range records {
		if err := s.store.Delete(ctx, r.StorageKey); err != nil {
			s.logger.Warn("failed to remove orphaned document", zap.String("key", r.StorageKey), zap.Error(err))
		}
	}
}

func validateSteps(f customer.Form, now time.Time) error {
	fe := f.Personal.ValidateAt(now)
	for k, v := range f.Contact.Validate() {
		fe.Set(k, v)
	}
	if f.Nominee.Enabled && strings.TrimSpace(f.Nominee.Name) == "" {
		fe.Set("nominee_name", "This field is required")
	}
	if err := xerrors.NewValidationError(fe); err != nil {
		return err
	}
	if !onboarding.PersonalComplete(f.Personal) || !onboarding.ContactComplete(f.Contact) {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "personal or contact details incomplete")
	}
	return nil
}

func missingDocuments(has func(document.Type) bool, nominee bool) map[string]string {
	fields := map[string]string{}
	for _, t := range document.RequiredKYC {
		if !has(t) {
			fields[string(t)] = "document is required"
		}
	}
	if nominee && !has(document.NomineeID) {
		fields[string(document.NomineeID)] = "document is required when a nominee is declared"
	}
	return fields
}

func apply(c *customer.Customer, f customer.Form) error {
	dob, err := f.Personal.DOB()
	if err != nil {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "date_of_birth")
	}
	income, err := f.Personal.Income()
	if err != nil {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "annual_income")
	}

	c.FirstName = f.Personal.FirstName
	c.LastName = f.Personal.LastName
	c.DateOfBirth = dob
	c.Gender = f.Personal.Gender
	c.Occupation = f.Personal.Occupation
	c.AnnualIncome = income

	c.Email = f.Contact.Email
	c.Phone = validation.Digits(f.Contact.Phone)
	c.AddressLine1 = f.Contact.AddressLine1
	c.AddressLine2 = f.Contact.AddressLine2
	c.City = f.Contact.City
	c.State = f.Contact.State
	c.PostalCode = f.Contact.PostalCode
	c.Country = f.Contact.Country

	c.HasNominee = f.Nominee.Enabled
	if f.Nominee.Enabled {
		c.NomineeName = f.Nominee.Name
		c.NomineeRelationship = f.Nominee.Relationship
		c.NomineePhone = f.Nominee.Phone
	} else {
		c.NomineeName, c.NomineeRelationship, c.NomineePhone = "", "", ""
	}

	if f.Policy.PolicyID > 0 {
		id := f.Policy.PolicyID
		c.PolicyID = &id
	}
	return nil
}
