// internal/handlers/agent/agent.go
package agent

import (
	"net/http"
	"strconv"

	"insurance-service/internal/domain/auth"
	"insurance-service/internal/pkg/response"
	agentUsecase "insurance-service/internal/service/agent"
	roleUsecase "insurance-service/internal/service/role"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AgentHandler serves agent accounts and the agent permission matrix.
type AgentHandler struct {
	agentService *agentUsecase.AgentService
	roleService  *roleUsecase.RoleService
	logger       *zap.Logger
}

func NewAgentHandler(agentService *agentUsecase.AgentService, roleService *roleUsecase.RoleService, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		agentService: agentService,
		roleService:  roleService,
		logger:       logger,
	}
}

// ========== Agents ==========

func (h *AgentHandler) List(c *gin.Context) {
	result, err := h.agentService.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err, "failed to list agents")
		return
	}
	response.Success(c, http.StatusOK, "agents retrieved", result)
}

func (h *AgentHandler) Create(c *gin.Context) {
	var req auth.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.agentService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "failed to create agent")
		return
	}
	response.Success(c, http.StatusCreated, "agent created successfully", result)
}

func (h *AgentHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid agent ID", err)
		return
	}
	var req auth.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.agentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err, "failed to update agent")
		return
	}
	response.Success(c, http.StatusOK, "agent updated successfully", result)
}

// ========== Permission matrix ==========

func (h *AgentHandler) GetRole(c *gin.Context) {
	result, err := h.roleService.GetAgentRole(c.Request.Context())
	if err != nil {
		response.FromError(c, err, "failed to get agent permissions")
		return
	}
	response.Success(c, http.StatusOK, "agent permissions retrieved", result)
}

// UpdateRole replaces the agent permission set; connected agents receive
// a permissions:updated event.
func (h *AgentHandler) UpdateRole(c *gin.Context) {
	var req auth.UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.roleService.UpdateAgentRole(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "failed to update agent permissions")
		return
	}
	response.Success(c, http.StatusOK, "agent permissions updated", result)
}
