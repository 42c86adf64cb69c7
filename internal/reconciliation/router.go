package reconciliation

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupReconciliationRoutes configures the admin reconciliation routes
func SetupReconciliationRoutes(rg *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	admin := rg.Group("/admin/reconciliation")
	admin.Use(auth, middleware.RequireAdmin())
	{
		admin.POST("/sweep", controller.Sweep)                     // POST /api/v1/admin/reconciliation/sweep
		admin.GET("/issues", controller.ListIssues)                // GET /api/v1/admin/reconciliation/issues
		admin.POST("/issues/:id/resolve", controller.ResolveIssue) // POST /api/v1/admin/reconciliation/issues/:id/resolve
	}
}
