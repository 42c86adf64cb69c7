package payments

import "github.com/google/uuid"

type SubmitPaymentRequest struct {
	Amount         float64 `json:"amount" validate:"gte=0,lte=9999999999.99"`
	Method         string  `json:"method" validate:"required,oneof=bank_transfer card e_wallet cash"`
	ProofReference string  `json:"proof_reference" validate:"omitempty,max=255"`
}

type VerifyPaymentRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=verified rejected"`
}

type RefundPaymentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// SubmitPaymentInput is the coordinator's view of a payment submission
type SubmitPaymentInput struct {
	BookingID      uuid.UUID
	Amount         float64
	Method         Method
	ProofReference string
}

type ReconciliationQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
