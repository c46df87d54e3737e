// internal/handlers/customer/customer.go
package customer

import (
	"net/http"
	"strconv"

	"insurance-service/internal/domain/customer"
	"insurance-service/internal/middleware"
	"insurance-service/internal/pkg/response"
	service "insurance-service/internal/service/customer"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService *service.CustomerService
}

func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// Onboard creates a customer from the wizard's multipart submission
func (h *CustomerHandler) Onboard(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	result, err := h.customerService.Onboard(c.Request.Context(), middleware.Actor(c), form)
	if err != nil {
		response.FromError(c, err, "failed to onboard customer")
		return
	}

	response.Success(c, http.StatusCreated, "customer onboarded successfully", result)
}

// Update applies an edit submission; omitted documents stay as stored
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	result, err := h.customerService.Update(c.Request.Context(), middleware.Actor(c), id, form)
	if err != nil {
		response.FromError(c, err, "failed to update customer")
		return
	}

	response.Success(c, http.StatusOK, "customer updated successfully", result)
}

// Details returns a customer with current documents
func (h *CustomerHandler) Details(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	result, err := h.customerService.Details(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.FromError(c, err, "failed to get customer")
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", result)
}

// List lists customers visible to the caller
func (h *CustomerHandler) List(c *gin.Context) {
	var filters customer.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.customerService.List(c.Request.Context(), middleware.Actor(c), &filters)
	if err != nil {
		response.FromError(c, err, "failed to list customers")
		return
	}

	response.Success(c, http.StatusOK, "customers retrieved", result)
}

// DocumentFile streams a stored KYC document for preview, or as an
// attachment with ?download=true
func (h *CustomerHandler) DocumentFile(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	doc, rc, err := h.customerService.OpenDocument(c.Request.Context(), middleware.Actor(c), id)
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
