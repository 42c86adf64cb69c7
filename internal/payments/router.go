package payments

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes configures all payment-related routes
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	// Customer routes, nested under the booking they pay for
	bookings := rg.Group("/bookings")
	bookings.Use(auth, middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		bookings.POST("/:id/payments", controller.SubmitPayment)     // POST /api/v1/bookings/:id/payments
		bookings.GET("/:id/payments", controller.GetBookingPayments) // GET /api/v1/bookings/:id/payments
	}

	payments := rg.Group("/payments")
	payments.Use(auth, middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		payments.GET("/:id", controller.GetPayment) // GET /api/v1/payments/:id
	}

	// Admin routes
	admin := rg.Group("/admin/payments")
	admin.Use(auth, middleware.RequireAdmin())
	{
		admin.GET("/reconciliation", controller.GetPendingReconciliation) // GET /api/v1/admin/payments/reconciliation
		admin.POST("/:id/verify", controller.VerifyPayment)               // POST /api/v1/admin/payments/:id/verify
		admin.POST("/:id/refund", controller.RefundPayment)               // POST /api/v1/admin/payments/:id/refund
	}
}

// Route definitions for reference:
//
// PAYMENT SUBMISSION
// POST   /api/v1/bookings/:id/payments                 - Submit a payment for a pending booking
// Request body: { "amount": 300000, "method": "bank_transfer", "proof_reference": "TRX-0192" }
//
// PAYMENT REVIEW (admin)
// POST   /api/v1/admin/payments/:id/verify             - { "outcome": "verified" | "rejected" }
// POST   /api/v1/admin/payments/:id/refund             - { "reason": "..." } (optional)
// GET    /api/v1/admin/payments/reconciliation         - Refunds whose booking could not be cancelled
//
// Outcomes:
// verified  -> booking confirmed, seats booked
// rejected  -> booking cancelled, seats released
// refunded  -> booking cancelled; when that fails the payment is flagged instead
