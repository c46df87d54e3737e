package customer

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"insurance-service/internal/domain/auth"
	"insurance-service/internal/domain/customer"
	"insurance-service/internal/domain/document"
	"insurance-service/internal/domain/policy"
	"insurance-service/internal/onboarding"
	xerrors "insurance-service/internal/pkg/errors"
	"insurance-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pdf = []byte("%PDF-1.4\n%test\n")

type fakeRepo struct {
	customers map[int64]*customer.Customer
	docs      []document.Record
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{customers: map[int64]*customer.Customer{}}
}

func (f *fakeRepo) attach(id int64, docs []document.Record, supersede bool) {
	now := time.Now()
	for _, d := range docs {
		d.CustomerID = id
		d.ID = int64(len(f.docs) + 1)
		if supersede && d.Type != document.Other {
			for i := range f.docs {
				if f.docs[i].CustomerID == id && f.docs[i].Type == d.Type && f.docs[i].SupersededAt == nil {
					f.docs[i].SupersededAt = &now
				}
			}
		}
		f.docs = append(f.docs, d)
	}
}

func (f *fakeRepo) Create(_ context.Context, c *customer.Customer, docs []document.Record) error {
	c.ID = int64(len(f.customers) + 1)
	dup := *c
	f.customers[c.ID] = &dup
	f.attach(c.ID, docs, false)
	return nil
}

func (f *fakeRepo) Update(_ context.Context, c *customer.Customer, docs []document.Record) error {
	dup := *c
	f.customers[c.ID] = &dup
	f.attach(c.ID, docs, true)
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	dup := *c
	return &dup, nil
}

func (f *fakeRepo) List(_ context.Context, filters *customer.ListFilters) ([]customer.Customer, int64, error) {
	var out []customer.Customer
	for _, c := range f.customers {
		if filters.AgentID == nil || *filters.AgentID == c.AgentID {
			out = append(out, *c)
		}
	}
	filters.Page, filters.PageSize = 1, 20
	return out, int64(len(out)), nil
}

func (f *fakeRepo) CurrentDocuments(_ context.Context, id int64) ([]document.Record, error) {
	var out []document.Record
	for _, d := range f.docs {
		if d.CustomerID == id && d.SupersededAt == nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindDocument(_ context.Context, id int64) (*document.Record, error) {
	for _, d := range f.docs {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

type fakePolicies struct{}

func (fakePolicies) CheckEligible(_ context.Context, id int64, dob time.Time) (*policy.Policy, error) {
	p := &policy.Policy{ID: id, MinAge: new(int), MaxAge: new(int)}
	*p.MaxAge = 60
	if !p.Eligible(policy.Age(dob, time.Now())) {
		return nil, xerrors.ErrIneligible
	}
	return p, nil
}

func newService(t *testing.T) (*CustomerService, *fakeRepo) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	repo := newFakeRepo()
	return NewCustomerService(repo, fakePolicies{}, store, 0, zap.NewNop()), repo
}

type part struct {
	field, name string
	data        []byte
}

func buildForm(t *testing.T, values map[string]string, files ...part) *multipart.Form {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	mf, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mf.RemoveAll() })
	return mf
}

func validValues() map[string]string {
	return map[string]string{
		"first_name":    "Asha",
		"last_name":     "Mwangi",
		"date_of_birth": "1990-04-12",
		"occupation":    "Engineer",
		"annual_income": "84000",
		"email":         "asha@example.com",
		"phone":         "(555) 123-4567",
		"address_line1": "1 Main St",
		"city":          "Nairobi",
		"state":         "Nairobi",
		"postal_code":   "00100",
		"policy_id":     "3",
	}
}

func kycFiles() []part {
	return []part{
		{"government_id", "id.pdf", pdf},
		{"proof_of_address", "bill.pdf", pdf},
		{"income_proof", "payslip.pdf", pdf},
	}
}

var agent = auth.Actor{UserID: 9, Role: auth.RoleAgent}

func TestOnboard(t *testing.T) {
	svc, repo := newService(t)
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }

	files := append(kycFiles(), part{"other_documents", "scan1.pdf", pdf})
	values := validValues()
	values["other_document_names"] = "Employer letter"

	details, err := svc.Onboard(context.Background(), agent, buildForm(t, values, files...))
	require.NoError(t, err)

	c := details.Customer
	assert.True(t, strings.HasPrefix(c.Reference, "CUST-20260304-"))
	assert.Len(t, c.Reference, len("CUST-20260304-")+8)
	assert.Equal(t, int64(9), c.AgentID)
	assert.Equal(t, "5551234567", c.Phone)
	assert.Equal(t, customer.StatusActive, c.Status)
	require.NotNil(t, c.PolicyID)
	assert.Equal(t, int64(3), *c.PolicyID)

	require.Len(t, details.Documents, 4)
	assert.Equal(t, "Employer letter", details.Documents[3].Name)
	assert.Equal(t, "application/pdf", details.Documents[0].ContentType)
	assert.Len(t, repo.docs, 4)
}

func TestOnboardRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v map[string]string) map[string]string
		files  []part
		want   error
	}{
		{
			name:   "missing income proof",
			mutate: func(v map[string]string) map[string]string { return v },
			files:  kycFiles()[:2],
			want:   xerrors.ErrInvalidInput,
		},
		{
			name: "nominee without nominee id",
			mutate: func(v map[string]string) map[string]string {
				v["has_nominee"] = "true"
				v["nominee_name"] = "Joy"
				return v
			},
			files: kycFiles(),
			want:  xerrors.ErrInvalidInput,
		},
		{
			name: "bad email",
			mutate: func(v map[string]string) map[string]string {
				v["email"] = "asha@"
				return v
			},
			files: kycFiles(),
			want:  xerrors.ErrInvalidInput,
		},
		{
			name: "date of birth in the future",
			mutate: func(v map[string]string) map[string]string {
				v["date_of_birth"] = time.Now().AddDate(0, 0, 2).Format(customer.DateLayout)
				return v
			},
			files: kycFiles(),
			want:  xerrors.ErrInvalidInput,
		},
		{
			name: "ineligible policy",
			mutate: func(v map[string]string) map[string]string {
				v["date_of_birth"] = "1940-01-01"
				return v
			},
			files: kycFiles(),
			want:  xerrors.ErrIneligible,
		},
		{
			name:   "unsupported file type",
			mutate: func(v map[string]string) map[string]string { return v },
			files: append(kycFiles()[:2], part{"income_proof", "payslip.txt", []byte("just text")}),
			want:  xerrors.ErrUnsupportedFileType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService(t)
			_, err := svc.Onboard(context.Background(), agent, buildForm(t, tt.mutate(validValues()), tt.files...))
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, repo.customers)
		})
	}
}

// editForm builds the multipart body the edit wizard sends for a stored
// customer after applying change.
func editForm(t *testing.T, details *customer.Details, change func(w *onboarding.Wizard)) *multipart.Form {
	t.Helper()
	w := onboarding.NewEdit(*details, nil)
	change(w)
	p, err := onboarding.Assemble(w.Form(), w.Documents())
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(p.ContentType)
	require.NoError(t, err)
	mf, err := multipart.NewReader(p.Reader(), params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mf.RemoveAll() })
	return mf
}

func TestUpdateSupersedesOnlySentDocuments(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	created, err := svc.Onboard(ctx, agent, buildForm(t, validValues(), kycFiles()...))
	require.NoError(t, err)

	mf := editForm(t, created, func(w *onboarding.Wizard) {
		c := w.Form().Contact
		c.City = "Mombasa"
		w.UpdateContact(c)
		require.NoError(t, w.StageDocument(document.GovernmentID, onboarding.File{Name: "passport.pdf", MIME: "application/pdf", Data: pdf}))
	})
	assert.Equal(t, []string{"3"}, mf.Value["policy_id"])

	details, err := svc.Update(ctx, agent, created.Customer.ID, mf)
	require.NoError(t, err)

	assert.Equal(t, "Mombasa", details.Customer.City)
	require.NotNil(t, details.Customer.PolicyID)
	assert.Equal(t, int64(3), *details.Customer.PolicyID)

	require.Len(t, details.Documents, 3)
	names := map[document.Type]string{}
	for _, d := range details.Documents {
		names[d.Type] = d.Name
	}
	assert.Equal(t, "passport.pdf", names[document.GovernmentID])
	assert.Equal(t, "bill.pdf", names[document.ProofOfAddress])
	assert.Len(t, repo.docs, 4)
}

func TestUpdateKeepsPolicyCustomerAgedOutOf(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	created, err := svc.Onboard(ctx, agent, buildForm(t, validValues(), kycFiles()...))
	require.NoError(t, err)
	id := created.Customer.ID

	// The customer is now older than the policy's maximum age of 60.
	repo.customers[id].DateOfBirth = time.Now().AddDate(-61, 0, -1)
	stored, err := svc.Details(ctx, agent, id)
	require.NoError(t, err)

	mf := editForm(t, stored, func(w *onboarding.Wizard) {
		c := w.Form().Contact
		c.City = "Kisumu"
		w.UpdateContact(c)
	})
	details, err := svc.Update(ctx, agent, id, mf)
	require.NoError(t, err)
	assert.Equal(t, "Kisumu", details.Customer.City)
	require.NotNil(t, details.Customer.PolicyID)
	assert.Equal(t, int64(3), *details.Customer.PolicyID)

	// Switching to another policy is still checked.
	values := editForm(t, stored, func(*onboarding.Wizard) {}).Value
	flat := map[string]string{}
	for k, v := range values {
		flat[k] = v[0]
	}
	flat["policy_id"] = "4"
	_, err = svc.Update(ctx, agent, id, buildForm(t, flat))
	assert.ErrorIs(t, err, xerrors.ErrIneligible)
}

func TestOwnership(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Onboard(ctx, agent, buildForm(t, validValues(), kycFiles()...))
	require.NoError(t, err)

	other := auth.Actor{UserID: 10, Role: auth.RoleAgent}
	_, err = svc.Details(ctx, other, created.Customer.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	admin := auth.Actor{UserID: 1, Role: auth.RoleAdmin}
	_, err = svc.Details(ctx, admin, created.Customer.ID)
	assert.NoError(t, err)

	list, err := svc.List(ctx, other, &customer.ListFilters{})
	require.NoError(t, err)
	assert.Empty(t, list.Customers)

	list, err = svc.List(ctx, admin, &customer.ListFilters{})
	require.NoError(t, err)
	assert.Len(t, list.Customers, 1)
	assert.Equal(t, 1, list.TotalPages)
}

func TestOpenDocument(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Onboard(ctx, agent, buildForm(t, validValues(), kycFiles()...))
	require.NoError(t, err)
	docID := created.Documents[0].ID

	rec, rc, err := svc.OpenDocument(ctx, agent, docID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pdf, data)
	assert.Equal(t, "id.pdf", rec.Name)

	_, _, err = svc.OpenDocument(ctx, auth.Actor{UserID: 10, Role: auth.RoleAgent}, docID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
