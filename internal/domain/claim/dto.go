// internal/domain/claim/dto.go
package claim

type CreateClaimRequest struct {
	PolicyID        int64   `json:"policy_id" binding:"required"`
	CustomerID      int64   `json:"customer_id" binding:"required"`
	ClaimType       string  `json:"claim_type" binding:"required,max=100"`
	IncidentDate    string  `json:"incident_date" binding:"required"` // YYYY-MM-DD
	Description     string  `json:"description"`
	RequestedAmount float64 `json:"requested_amount" binding:"min=0"`
}

type UpdateStatusRequest struct {
	Status         Status   `json:"status" binding:"required,oneof=APPROVED REJECTED"`
	ApprovedAmount *float64 `json:"approved_amount"`
	Note           string   `json:"note"`
}

type AddNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

type ListFilters struct {
	Search     string  `form:"search"`
	Status     *Status `form:"status"`
	PolicyID   *int64  `form:"policy_id"`
	CustomerID *int64  `form:"customer_id"`
	AgentID    *int64  `form:"-"`
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size" binding:"omitempty,max=100"`
}

type ListResponse struct {
	Claims     []Claim `json:"claims"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// UploadResult reports a multi-file upload: what was stored and the first
// failure, if any. Stored documents stay stored when a later file fails.
type UploadResult struct {
	Stored []Document `json:"stored"`
	Error  string     `json:"error,omitempty"`
}
