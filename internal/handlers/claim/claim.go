// internal/handlers/claim/claim.go
package claim

import (
	"net/http"
	"strconv"

	"insurance-service/internal/domain/claim"
	"insurance-service/internal/middleware"
	"insurance-service/internal/pkg/response"
	service "insurance-service/internal/service/claim"

	"github.com/gin-gonic/gin"
)

type ClaimHandler struct {
	claimService *service.ClaimService
}

func NewClaimHandler(claimService *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

func (h *ClaimHandler) List(c *gin.Context) {
	var filters claim.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.claimService.List(c.Request.Context(), middleware.Actor(c), &filters)
	if err != nil {
		response.FromError(c, err, "failed to list claims")
		return
	}
	response.Success(c, http.StatusOK, "claims retrieved", result)
}

// Get returns a claim with its documents, notes and timeline
func (h *ClaimHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	result, err := h.claimService.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.FromError(c, err, "failed to get claim")
		return
	}
	response.Success(c, http.StatusOK, "claim retrieved", gin.H{
		"claim":             result,
		"available_actions": claim.AvailableActions(result.Status),
	})
}

func (h *ClaimHandler) Create(c *gin.Context) {
	var req claim.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.claimService.Create(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		response.FromError(c, err, "failed to create claim")
		return
	}
	response.Success(c, http.StatusCreated, "claim submitted successfully", result)
}

// UpdateStatus approves or rejects a submitted claim
func (h *ClaimHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req claim.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.claimService.UpdateStatus(c.Request.Context(), middleware.Actor(c), id, &req)
	if err != nil {
		response.FromError(c, err, "failed to update claim status")
		return
	}
	response.Success(c, http.StatusOK, "claim "+result.Status.Label(), result)
}

func (h *ClaimHandler) AddNote(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req claim.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.claimService.AddNote(c.Request.Context(), middleware.Actor(c), id, &req)
	if err != nil {
		response.FromError(c, err, "failed to add note")
		return
	}
	response.Success(c, http.StatusCreated, "note added", result)
}

// UploadDocuments stores each file of the repeated "documents" part. A
// partial failure still answers 200 with the stored list and the first error.
func (h *ClaimHandler) UploadDocuments(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	result, err := h.claimService.UploadDocuments(c.Request.Context(), middleware.Actor(c), id, form.File[service.DocumentsField])
	if err != nil {
		response.FromError(c, err, "failed to upload documents")
		return
	}

	message := "documents uploaded"
	if result.Error != "" {
		message = "some documents were not uploaded"
	}
	response.Success(c, http.StatusOK, message, result)
}

func (h *ClaimHandler) DocumentFile(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	doc, rc, err := h.claimService.OpenDocument(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.FromError(c, err, "failed to open document")
		return
	}
	defer rc.Close()

	response.File(c, doc.Name, doc.ContentType, doc.Size, rc)
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid id", err)
		return 0, false
	}
	return id, true
}
