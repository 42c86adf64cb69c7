package payments

import (
	"net/http"

	"busline/internal/bookings"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Controller struct {
	service   Service
	ledger    Ledger
	validator *validator.Validate
}

func NewController(service Service, ledger Ledger) *Controller {
	return &Controller{
		service:   service,
		ledger:    ledger,
		validator: validator.New(),
	}
}

// SubmitPayment handles POST /api/v1/bookings/:id/payments
func (c *Controller) SubmitPayment(ctx *gin.Context) {
	booking, ok := c.loadOwnedBooking(ctx)
	if !ok {
		return
	}

	var req SubmitPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	payment, err := c.service.SubmitPayment(ctx.Request.Context(), SubmitPaymentInput{
		BookingID:      booking.ID,
		Amount:         req.Amount,
		Method:         Method(req.Method),
		ProofReference: req.ProofReference,
	})
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Payment submitted successfully", payment.ToResponse(), nil)
}

// GetBookingPayments handles GET /api/v1/bookings/:id/payments
func (c *Controller) GetBookingPayments(ctx *gin.Context) {
	booking, ok := c.loadOwnedBooking(ctx)
	if !ok {
		return
	}

	payments, err := c.service.ListBookingPayments(ctx.Request.Context(), booking.ID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payments retrieved successfully", toResponses(payments), nil)
}

// GetPayment handles GET /api/v1/payments/:id
func (c *Controller) GetPayment(ctx *gin.Context) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	paymentID, ok := parsePaymentID(ctx)
	if !ok {
		return
	}

	payment, err := c.service.GetPayment(ctx.Request.Context(), paymentID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	if !actor.IsAdmin() {
		booking, err := c.ledger.GetBooking(ctx.Request.Context(), payment.BookingID)
		if err != nil {
			response.RespondError(ctx, err)
			return
		}
		if !actor.CanAccess(booking.CustomerID) {
			response.RespondJSON(ctx, "error", http.StatusForbidden, "Access denied", nil, nil)
			return
		}
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment retrieved successfully", payment.ToResponse(), nil)
}

// VerifyPayment handles POST /api/v1/admin/payments/:id/verify
func (c *Controller) VerifyPayment(ctx *gin.Context) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	paymentID, ok := parsePaymentID(ctx)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	payment, err := c.service.Verify(ctx.Request.Context(), paymentID, Outcome(req.Outcome), actor.ID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment "+payment.Status.String(), payment.ToResponse(), nil)
}

// RefundPayment handles POST /api/v1/admin/payments/:id/refund
func (c *Controller) RefundPayment(ctx *gin.Context) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	paymentID, ok := parsePaymentID(ctx)
	if !ok {
		return
	}

	var req RefundPaymentRequest
	// The body is optional
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
			return
		}
		if err := c.validator.Struct(&req); err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
			return
		}
	}

	payment, err := c.service.Refund(ctx.Request.Context(), paymentID, actor.ID, req.Reason)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	message := "Payment refunded successfully"
	if payment.NeedsReconciliation {
		message = "Payment refunded, booking flagged for reconciliation"
	}
	response.RespondJSON(ctx, "success", http.StatusOK, message, payment.ToResponse(), nil)
}

// GetPendingReconciliation handles GET /api/v1/admin/payments/reconciliation
func (c *Controller) GetPendingReconciliation(ctx *gin.Context) {
	var query ReconciliationQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.ListPendingReconciliation(ctx.Request.Context(), query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Flagged payments retrieved successfully", gin.H{
		"payments": toResponses(result.Payments),
		"pagination": response.Pagination{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	}, nil)
}

// loadOwnedBooking resolves the booking :id (uuid or code) and checks ownership
func (c *Controller) loadOwnedBooking(ctx *gin.Context) (*bookings.Booking, bool) {
	actor, err := middleware.CurrentActor(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return nil, false
	}

	var booking *bookings.Booking
	if id, parseErr := uuid.Parse(ctx.Param("id")); parseErr == nil {
		booking, err = c.ledger.GetBooking(ctx.Request.Context(), id)
	} else {
		booking, err = c.ledger.GetBookingByCode(ctx.Request.Context(), ctx.Param("id"))
	}
	if err != nil {
		response.RespondError(ctx, err)
		return nil, false
	}

	if !actor.CanAccess(booking.CustomerID) {
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Access denied", nil, nil)
		return nil, false
	}
	return booking, true
}

func parsePaymentID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, apperrors.ValidationError{Field: "id", Msg: "invalid payment ID"})
		return uuid.Nil, false
	}
	return id, true
}

func toResponses(payments []Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, payments[i].ToResponse())
	}
	return out
}
