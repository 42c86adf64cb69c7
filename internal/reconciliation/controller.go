package reconciliation

import (
	"net/http"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// Sweep handles POST /api/v1/admin/reconciliation/sweep
func (c *Controller) Sweep(ctx *gin.Context) {
	result, err := c.service.Sweep(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reconciliation sweep completed", result, nil)
}

// ListIssues handles GET /api/v1/admin/reconciliation/issues
func (c *Controller) ListIssues(ctx *gin.Context) {
	var query IssueQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.ListIssues(ctx.Request.Context(), query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Issues retrieved successfully", gin.H{
		"issues": result.Issues,
		"pagination": response.Pagination{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	}, nil)
}

// ResolveIssue handles POST /api/v1/admin/reconciliation/issues/:id/resolve
func (c *Controller) ResolveIssue(ctx *gin.Context) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	issueID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, apperrors.ValidationError{Field: "id", Msg: "invalid issue ID"})
		return
	}

	var req ResolveIssueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	issue, err := c.service.ResolveIssue(ctx.Request.Context(), issueID, actor.ID, req.Note)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Issue resolved", issue, nil)
}
