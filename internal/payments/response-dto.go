package payments

import "time"

// PaymentResponse is the client view of a payment
type PaymentResponse struct {
	ID                  string     `json:"id"`
	PaymentCode         string     `json:"payment_code"`
	BookingID           string     `json:"booking_id"`
	Amount              float64    `json:"amount"`
	Method              Method     `json:"method"`
	Status              Status     `json:"status"`
	ProofReference      string     `json:"proof_reference,omitempty"`
	VerifiedAt          *time.Time `json:"verified_at,omitempty"`
	RejectedAt          *time.Time `json:"rejected_at,omitempty"`
	RefundedAt          *time.Time `json:"refunded_at,omitempty"`
	NeedsReconciliation bool       `json:"needs_reconciliation"`
	ReconciliationNote  string     `json:"reconciliation_note,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (p *Payment) ToResponse() PaymentResponse {
	return PaymentResponse{
		ID:                  p.ID.String(),
		PaymentCode:         p.PaymentCode,
		BookingID:           p.BookingID.String(),
		Amount:              p.Amount,
		Method:              p.Method,
		Status:              p.Status,
		ProofReference:      p.ProofReference,
		VerifiedAt:          p.VerifiedAt,
		RejectedAt:          p.RejectedAt,
		RefundedAt:          p.RefundedAt,
		NeedsReconciliation: p.NeedsReconciliation,
		ReconciliationNote:  p.ReconciliationNote,
		CreatedAt:           p.CreatedAt,
	}
}
