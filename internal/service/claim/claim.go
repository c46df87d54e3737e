// Package claim opens claims, records decisions and manages claim notes
// and evidence.
package claim

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"insurance-service/internal/domain/auth"
	"insurance-service/internal/domain/claim"
	"insurance-service/internal/domain/customer"
	"insurance-service/internal/domain/policy"
	wstypes "insurance-service/internal/domain/websocket"
	"insurance-service/internal/metrics"
	"insurance-service/internal/onboarding"
	xerrors "insurance-service/internal/pkg/errors"
	"insurance-service/internal/pkg/response"
	"insurance-service/internal/service/upload"
	"insurance-service/internal/storage"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, c *claim.Claim) error
	SaveTransition(ctx context.Context, c *claim.Claim, from claim.Status, entry *claim.TimelineEntry) error
	FindByID(ctx context.Context, id int64) (*claim.Claim, error)
	List(ctx context.Context, filters *claim.ListFilters) ([]claim.Claim, int64, error)
	Timeline(ctx context.Context, claimID int64) ([]claim.TimelineEntry, error)
	AddNote(ctx context.Context, n *claim.Note) error
	Notes(ctx context.Context, claimID int64) ([]claim.Note, error)
	AddDocument(ctx context.Context, d *claim.Document) error
	Documents(ctx context.Context, claimID int64) ([]claim.Document, error)
	FindDocument(ctx context.Context, id int64) (*claim.Document, error)
}

type CustomerFinder interface {
	FindByID(ctx context.Context, id int64) (*customer.Customer, error)
}

type PolicyFinder interface {
	FindByID(ctx context.Context, id int64) (*policy.Policy, error)
}

// Notifier tells the owning agent about a decision.
type Notifier interface {
	ClaimStatusChanged(agentID int64, data wstypes.ClaimStatusData)
}

// DocumentsField is the repeated multipart field of a claim upload.
const DocumentsField = "documents"

type ClaimService struct {
	repo      Repository
	customers CustomerFinder
	policies  PolicyFinder
	store     storage.ObjectStore
	notifier  Notifier
	evidence  onboarding.StagePolicy
	now       func() time.Time
	logger    *zap.Logger
}

func NewClaimService(
	repo Repository,
	customers CustomerFinder,
	policies PolicyFinder,
	store storage.ObjectStore,
	notifier Notifier,
	maxUploadBytes int64,
	logger *zap.Logger,
) *ClaimService {
	evidence := onboarding.ClaimPolicy
	if maxUploadBytes > 0 {
		evidence.MaxBytes = maxUploadBytes
	}
	return &ClaimService{
		repo:      repo,
		customers: customers,
		policies:  policies,
		store:     store,
		notifier:  notifier,
		evidence:  evidence,
		now:       time.Now,
		logger:    logger,
	}
}

// Create files a claim for a customer against the policy they hold.
func (s *ClaimService) Create(ctx context.Context, actor auth.Actor, req *claim.CreateClaimRequest) (*claim.Claim, error) {
	fields := map[string]string{}
	incident, err := time.Parse(customer.DateLayout, strings.TrimSpace(req.IncidentDate))
	if err != nil {
		fields["incident_date"] = "incident date must be YYYY-MM-DD"
	} else if incident.After(s.now()) {
		fields["incident_date"] = "incident date is in the future"
	}
	if req.RequestedAmount < 0 {
		fields["requested_amount"] = "must not be negative"
	}
	if err := xerrors.NewValidationError(fields); err != nil {
		return nil, err
	}

	cust, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(cust.AgentID) {
		return nil, xerrors.Wrap(xerrors.ErrNotFound, "customer")
	}
	if cust.PolicyID == nil || *cust.PolicyID != req.PolicyID {
		return nil, xerrors.NewValidationError(map[string]string{"policy_id": "customer does not hold this policy"})
	}

	pol, err := s.policies.FindByID(ctx, req.PolicyID)
	if err != nil {
		return nil, err
	}
	if req.RequestedAmount > pol.CoverageAmount {
		return nil, xerrors.NewValidationError(map[string]string{
			"requested_amount": fmt.Sprintf("must not exceed the coverage amount of %.2f", pol.CoverageAmount),
		})
	}

	now := s.now()
	c := &claim.Claim{
		ClaimNumber:     claimNumber(now),
		PolicyID:        pol.ID,
		PolicyName:      pol.Name,
		CustomerID:      cust.ID,
		CustomerName:    cust.FullName(),
		AgentID:         cust.AgentID,
		ClaimType:       strings.TrimSpace(req.ClaimType),
		IncidentDate:    incident,
		Description:     req.Description,
		RequestedAmount: req.RequestedAmount,
	}
	if _, err := claim.Open(c, now); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("claim created",
		zap.Int64("claim_id", c.ID),
		zap.String("claim_number", c.ClaimNumber),
		zap.Int64("customer_id", c.CustomerID),
		zap.Float64("requested_amount", c.RequestedAmount),
	)
	return c, nil
}

// UpdateStatus runs a decision through the state machine. A concurrent
// decision on the same claim makes the slower one fail with ErrConflict.
func (s *ClaimService) UpdateStatus(ctx context.Context, actor auth.Actor, id int64, req *claim.UpdateStatusRequest) (*claim.Claim, error) {
	c, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	from := c.Status
	entry, err := claim.Apply(c, claim.Decision{
		To:             req.Status,
		ApprovedAmount: req.ApprovedAmount,
		Note:           strings.TrimSpace(req.Note),
	}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveTransition(ctx, c, from, entry); err != nil {
		return nil, err
	}

	metrics.ClaimTransitions.WithLabelValues(string(from), string(c.Status)).Inc()
	s.notifier.ClaimStatusChanged(c.AgentID, wstypes.ClaimStatusData{
		ClaimID:        c.ID,
		ClaimNumber:    c.ClaimNumber,
		From:           string(from),
		To:             string(c.Status),
		ApprovedAmount: c.ApprovedAmount,
		Note:           entry.Note,
	})
	s.logger.Info("claim status changed",
		zap.Int64("claim_id", c.ID),
		zap.String("from", string(from)),
		zap.String("to", string(c.Status)),
		zap.Int64("decided_by", actor.UserID),
	)
	return s.load(ctx, c)
}

// Get returns a claim with documents, notes and timeline.
func (s *ClaimService) Get(ctx context.Context, actor auth.Actor, id int64) (*claim.Claim, error) {
	c, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, c)
}

func (s *ClaimService) List(ctx context.Context, actor auth.Actor, filters *claim.ListFilters) (*claim.ListResponse, error) {
	filters.AgentID = actor.AgentScope()
	claims, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		claims = []claim.Claim{}
	}
	return &claim.ListResponse{
		Claims:     claims,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: response.TotalPages(total, filters.PageSize),
	}, nil
}

func (s *ClaimService) AddNote(ctx context.Context, actor auth.Actor, id int64, req *claim.AddNoteRequest) (*claim.Note, error) {
	c, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Note)
	if text == "" {
		return nil, xerrors.NewValidationError(map[string]string{"note": "This field is required"})
	}

	n := &claim.Note{ClaimID: c.ID, AuthorID: actor.UserID, Note: text}
	if err := s.repo.AddNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// UploadDocuments stores each file independently. The result lists what
// was stored and the first failure; earlier files are kept.
func (s *ClaimService) UploadDocuments(ctx context.Context, actor auth.Actor, id int64, files []*multipart.FileHeader) (*claim.UploadResult, error) {
	c, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, xerrors.NewValidationError(map[string]string{DocumentsField: "at least one file is required"})
	}

	result := &claim.UploadResult{Stored: []claim.Document{}}
	for _, fh := range files {
		d, err := s.storeOne(ctx, actor, c.ID, fh)
		if err != nil {
			s.logger.Warn("claim document rejected",
				zap.Int64("claim_id", c.ID),
				zap.String("file", fh.Filename),
				zap.Error(err),
			)
			if result.Error == "" {
				result.Error = err.Error()
			}
			continue
		}
		result.Stored = append(result.Stored, *d)
	}
	return result, nil
}

func (s *ClaimService) storeOne(ctx context.Context, actor auth.Actor, claimID int64, fh *multipart.FileHeader) (*claim.Document, error) {
	f, err := upload.Read(fh, DocumentsField, s.evidence, storage.ScopeClaim)
	if err != nil {
		return nil, err
	}
	obj, err := s.store.Put(ctx, storage.ClaimKey(claimID, f.Name), bytes.NewReader(f.Data), f.MIME)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", f.Name, err)
	}

	d := &claim.Document{
		ClaimID:     claimID,
		Name:        f.Name,
		ContentType: f.MIME,
		Size:        obj.Size,
		StorageKey:  obj.Key,
		Checksum:    obj.Checksum,
		UploadedBy:  actor.UserID,
	}
	if err := s.repo.AddDocument(ctx, d); err != nil {
		if derr := s.store.Delete(ctx, obj.Key); derr != nil {
			s.logger.Warn("failed to remove orphaned claim document", zap.String("key", obj.Key), zap.Error(derr))
		}
		return nil, err
	}
	return d, nil
}

// OpenDocument returns a claim document's blob. The caller must close it.
func (s *ClaimService) OpenDocument(ctx context.Context, actor auth.Actor, docID int64) (*claim.Document, io.ReadCloser, error) {
	d, err := s.repo.FindDocument(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.owned(ctx, actor, d.ClaimID); err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, d.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return d, rc, nil
}

func (s *ClaimService) owned(ctx context.Context, actor auth.Actor, id int64) (*claim.Claim, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(c.AgentID) {
		return nil, xerrors.Wrap(xerrors.ErrNotFound, "claim")
	}
	return c, nil
}

func (s *ClaimService) load(ctx context.Context, c *claim.Claim) (*claim.Claim, error) {
	var err error
	if c.Timeline, err = s.repo.Timeline(ctx, c.ID); err != nil {
		return nil, err
	}
	if c.Notes, err = s.repo.Notes(ctx, c.ID); err != nil {
		return nil, err
	}
	if c.Documents, err = s.repo.Documents(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func claimNumber(now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	return fmt.Sprintf("CLM-%s-%s", now.Format("20060102"), id[len(id)-8:])
}
