// internal/handlers/policy/policy.go
package policy

import (
	"net/http"
	"strconv"
	"time"

	"insurance-service/internal/domain/customer"
	"insurance-service/internal/domain/policy"
	"insurance-service/internal/pkg/response"
	service "insurance-service/internal/service/policy"

	"github.com/gin-gonic/gin"
)

type PolicyHandler struct {
	policyService *service.PolicyService
}

func NewPolicyHandler(policyService *service.PolicyService) *PolicyHandler {
	return &PolicyHandler{policyService: policyService}
}

// ========== Policies ==========

func (h *PolicyHandler) List(c *gin.Context) {
	var filters policy.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.policyService.List(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, err, "failed to list policies")
		return
	}
	response.Success(c, http.StatusOK, "policies retrieved", result)
}

func (h *PolicyHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	result, err := h.policyService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get policy")
		return
	}
	response.Success(c, http.StatusOK, "policy retrieved", result)
}

func (h *PolicyHandler) Create(c *gin.Context) {
	var req policy.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.policyService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "failed to create policy")
		return
	}
	response.Success(c, http.StatusCreated, "policy created successfully", result)
}

func (h *PolicyHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req policy.UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.policyService.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err, "failed to update policy")
		return
	}
	response.Success(c, http.StatusOK, "policy updated successfully", result)
}

// Delete retires a policy; it stays visible as INACTIVE.
func (h *PolicyHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.policyService.Deactivate(c.Request.Context(), id); err != nil {
		response.FromError(c, err, "failed to deactivate policy")
		return
	}
	response.Success(c, http.StatusOK, "policy deactivated", nil)
}

// Eligibility splits the active catalog for ?dob=YYYY-MM-DD.
func (h *PolicyHandler) Eligibility(c *gin.Context) {
	dob, err := time.Parse(customer.DateLayout, c.Query("dob"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "dob must be YYYY-MM-DD", err)
		return
	}

	result, err := h.policyService.Eligibility(c.Request.Context(), dob)
	if err != nil {
		response.FromError(c, err, "failed to check eligibility")
		return
	}
	response.Success(c, http.StatusOK, "eligibility computed", result)
}

// ========== Policy types ==========

func (h *PolicyHandler) ListTypes(c *gin.Context) {
	result, err := h.policyService.ListTypes(c.Request.Context())
	if err != nil {
		response.FromError(c, err, "failed to list policy types")
		return
	}
	response.Success(c, http.StatusOK, "policy types retrieved", result)
}

func (h *PolicyHandler) CreateType(c *gin.Context) {
	var req policy.PolicyTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	result, err := h.policyService.CreateType(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "failed to create policy type")
		return
	}
	response.Success(c, http.StatusCreated, "policy type created", result)
}

func (h *PolicyHandler) UpdateType(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req policy.PolicyTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	result, err := h.policyService.UpdateType(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err, "failed to update policy type")
		return
	}
	response.Success(c, http.StatusOK, "policy type updated", result)
}

// ========== Providers ==========

func (h *PolicyHandler) ListProviders(c *gin.Context) {
	result, err := h.policyService.ListProviders(c.Request.Context())
	if err != nil {
		response.FromError(c, err, "failed to list providers")
		return
	}
	response.Success(c, http.StatusOK, "providers retrieved", result)
}

func (h *PolicyHandler) GetProvider(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	result, err := h.policyService.GetProvider(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get provider")
		return
	}
	response.Success(c, http.StatusOK, "provider retrieved", result)
}

func (h *PolicyHandler) CreateProvider(c *gin.Context) {
	var req policy.ProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	result, err := h.policyService.CreateProvider(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "failed to create provider")
		return
	}
	response.Success(c, http.StatusCreated, "provider created", result)
}

func (h *PolicyHandler) UpdateProvider(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req policy.ProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	result, err := h.policyService.UpdateProvider(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err, "failed to update provider")
		return
	}
	response.Success(c, http.StatusOK, "provider updated", result)
}

func (h *PolicyHandler) DeleteProvider(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.policyService.DeleteProvider(c.Request.Context(), id); err != nil {
		response.FromError(c, err, "failed to delete provider")
		return
	}
	response.Success(c, http.StatusOK, "provider deleted", nil)
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid id", err)
		return 0, false
	}
	return id, true
}
