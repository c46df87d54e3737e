package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"insurance-service/internal/domain/claim"
	"insurance-service/internal/domain/customer"
	"insurance-service/internal/domain/document"
	"insurance-service/internal/domain/policy"
	"insurance-service/internal/onboarding"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxParallelUploads bounds concurrent evidence uploads.
const maxParallelUploads = 4

var _ onboarding.Submitter = (*Client)(nil)

// ========== Customers ==========

func (c *Client) Onboard(ctx context.Context, p *onboarding.Payload) (*customer.Details, error) {
	var out customer.Details
	if err := c.do(ctx, http.MethodPost, "/customer-onboarding/onboard", p.ContentType, p.Reader(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, id int64, p *onboarding.Payload) (*customer.Details, error) {
	var out customer.Details
	path := "/customer-onboarding/update/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, p.ContentType, p.Reader(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CustomerDetails(ctx context.Context, id int64) (*customer.Details, error) {
	var out customer.Details
	if err := c.doJSON(ctx, http.MethodGet, "/customer-onboarding/details/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenDocument streams a stored KYC document. The caller must Close it.
func (c *Client) OpenDocument(ctx context.Context, id int64) (io.ReadCloser, error) {
	return c.open(ctx, "/documents/"+strconv.FormatInt(id, 10)+"/file")
}

// OpenClaimDocument streams a claim evidence file. The caller must Close it.
func (c *Client) OpenClaimDocument(ctx context.Context, id int64) (io.ReadCloser, error) {
	return c.open(ctx, "/claims/documents/"+strconv.FormatInt(id, 10)+"/file")
}

func (c *Client) open(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := c.send(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ========== Policies ==========

func (c *Client) Eligibility(ctx context.Context, dob string) (*policy.EligibilityResponse, error) {
	var out policy.EligibilityResponse
	path := "/policies/eligibility?" + url.Values{"dob": {dob}}.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ========== Claims ==========

type ClaimView struct {
	Claim            claim.Claim    `json:"claim"`
	AvailableActions []claim.Action `json:"available_actions"`
}

func (c *Client) CreateClaim(ctx context.Context, req *claim.CreateClaimRequest) (*claim.Claim, error) {
	var out claim.Claim
	if err := c.doJSON(ctx, http.MethodPost, "/claims", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetClaim(ctx context.Context, id int64) (*ClaimView, error) {
	var out ClaimView
	if err := c.doJSON(ctx, http.MethodGet, "/claims/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateClaimStatus(ctx context.Context, id int64, req *claim.UpdateStatusRequest) (*claim.Claim, error) {
	var out claim.Claim
	if err := c.doJSON(ctx, http.MethodPut, "/claims/"+strconv.FormatInt(id, 10)+"/status", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddClaimNote(ctx context.Context, id int64, note string) (*claim.Note, error) {
	var out claim.Note
	err := c.doJSON(ctx, http.MethodPost, "/claims/"+strconv.FormatInt(id, 10)+"/notes", claim.AddNoteRequest{Note: note}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadClaimDocuments sends one request per file concurrently. One failure
// does not cancel the others and nothing is rolled back: every stored
// document is returned in input order together with the first error, also
// in input order.
func (c *Client) UploadClaimDocuments(ctx context.Context, claimID int64, files []*document.Pending) ([]claim.Document, error) {
	path := "/claims/" + strconv.FormatInt(claimID, 10) + "/documents"
	stored := make([][]claim.Document, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(maxParallelUploads)
	for i, f := range files {
		g.Go(func() error {
			errs[i] = c.uploadOne(ctx, path, f, &stored[i])
			return nil
		})
	}
	_ = g.Wait()

	out := make([]claim.Document, 0, len(files))
	for _, docs := range stored {
		out = append(out, docs...)
	}
	for _, err := range errs {
		if err != nil {
			c.logger.Warn("claim upload incomplete",
				zap.Int64("claim_id", claimID),
				zap.Int("stored", len(out)),
				zap.Int("requested", len(files)),
				zap.Error(err),
			)
			return out, err
		}
	}
	return out, nil
}

func (c *Client) uploadOne(ctx context.Context, path string, f *document.Pending, stored *[]claim.Document) error {
	p, err := onboarding.AssembleFiles(claimDocumentsField, f)
	if err != nil {
		return fmt.Errorf("upload %s: %w", f.Name, err)
	}
	var res claim.UploadResult
	if err := c.do(ctx, http.MethodPost, path, p.ContentType, p.Reader(), &res); err != nil {
		return fmt.Errorf("upload %s: %w", f.Name, err)
	}
	*stored = res.Stored
	if res.Error != "" {
		return fmt.Errorf("upload %s: %s", f.Name, res.Error)
	}
	return nil
}

// claimDocumentsField is the repeated multipart field the server reads.
const claimDocumentsField = "documents"
