// internal/app/router.go
package app

import (
	"net/http"

	"insurance-service/internal/domain/auth"
	agentHandler "insurance-service/internal/handlers/agent"
	authHandler "insurance-service/internal/handlers/auth"
	claimHandler "insurance-service/internal/handlers/claim"
	customerHandler "insurance-service/internal/handlers/customer"
	policyHandler "insurance-service/internal/handlers/policy"
	reportHandler "insurance-service/internal/handlers/report"
	wsHandler "insurance-service/internal/handlers/websocket"
	"insurance-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler     *authHandler.AuthHandler
	AgentHandler    *agentHandler.AgentHandler
	PolicyHandler   *policyHandler.PolicyHandler
	CustomerHandler *customerHandler.CustomerHandler
	ClaimHandler    *claimHandler.ClaimHandler
	ReportHandler   *reportHandler.ReportHandler
	WSHandler       *wsHandler.WebSocketHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")
	mw := h.AuthMiddleware
	can := mw.RequirePermission

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Metrics & WebSocket ====================
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Auth ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.POST("/refresh", h.AuthHandler.Refresh)
	}

	authProtected := api.Group("/auth")
	authProtected.Use(mw.Auth())
	{
		authProtected.GET("/me", h.AuthHandler.Me)
		authProtected.POST("/logout", h.AuthHandler.Logout)
	}

	// Everything below requires a valid session.
	protected := api.Group("")
	protected.Use(mw.Auth())

	// ==================== Customers ====================
	customers := protected.Group("/customer-onboarding")
	{
		customers.POST("/onboard", can(auth.PermCustomersCreate), h.CustomerHandler.Onboard)
		customers.PUT("/update/:id", can(auth.PermCustomersEdit), h.CustomerHandler.Update)
		customers.GET("/details/:id", can(auth.PermCustomersView), h.CustomerHandler.Details)
		customers.GET("/list", can(auth.PermCustomersView), h.CustomerHandler.List)
	}
	protected.GET("/documents/:id/file", can(auth.PermCustomersView), h.CustomerHandler.DocumentFile)

	// ==================== Policies ====================
	policies := protected.Group("/policies")
	{
		policies.GET("", can(auth.PermPoliciesView), h.PolicyHandler.List)
		policies.GET("/eligibility", can(auth.PermPoliciesView), h.PolicyHandler.Eligibility)
		policies.GET("/:id", can(auth.PermPoliciesView), h.PolicyHandler.Get)
		policies.POST("", can(auth.PermPoliciesManage), h.PolicyHandler.Create)
		policies.PUT("/:id", can(auth.PermPoliciesManage), h.PolicyHandler.Update)
		policies.DELETE("/:id", can(auth.PermPoliciesManage), h.PolicyHandler.Delete)
	}

	// ==================== Providers ====================
	providers := protected.Group("/providers")
	{
		providers.GET("", can(auth.PermProvidersView), h.PolicyHandler.ListProviders)
		providers.GET("/:id", can(auth.PermProvidersView), h.PolicyHandler.GetProvider)
		providers.POST("", mw.RequireRole(auth.RoleAdmin), h.PolicyHandler.CreateProvider)
		providers.PUT("/:id", mw.RequireRole(auth.RoleAdmin), h.PolicyHandler.UpdateProvider)
		providers.DELETE("/:id", mw.RequireRole(auth.RoleAdmin), h.PolicyHandler.DeleteProvider)
	}

	// ==================== Claims ====================
	claims := protected.Group("/claims")
	{
		claims.GET("", can(auth.PermClaimsView), h.ClaimHandler.List)
		claims.GET("/:id", can(auth.PermClaimsView), h.ClaimHandler.Get)
		claims.POST("", can(auth.PermClaimsCreate), h.ClaimHandler.Create)
		claims.PUT("/:id/status", can(auth.PermClaimsDecide), h.ClaimHandler.UpdateStatus)
		claims.POST("/:id/notes", can(auth.PermClaimsView), h.ClaimHandler.AddNote)
		claims.POST("/:id/documents", can(auth.PermClaimsCreate), h.ClaimHandler.UploadDocuments)
		claims.GET("/documents/:id/file", can(auth.PermClaimsView), h.ClaimHandler.DocumentFile)
	}

	// ==================== Reports ====================
	protected.GET("/reports/:kind", can(auth.PermReportsView), h.ReportHandler.Export)

	// ==================== Admin ====================
	admin := api.Group("")
	admin.Use(mw.AdminOnly()...)
	{
		admin.GET("/admin/policy-types", h.PolicyHandler.ListTypes)
		admin.POST("/admin/policy-types", h.PolicyHandler.CreateType)
		admin.PUT("/admin/policy-types/:id", h.PolicyHandler.UpdateType)

		admin.GET("/agent/all", h.AgentHandler.List)
		admin.POST("/agent", h.AgentHandler.Create)
		admin.PUT("/agent/update/:id", h.AgentHandler.Update)

		admin.GET("/roles/agent", h.AgentHandler.GetRole)
		admin.PUT("/roles/agent", h.AgentHandler.UpdateRole)

		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
