package payments

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// openPaymentIndex allows one pending or verified payment per booking. Partial
// indexes are understood by both PostgreSQL and SQLite.
const openPaymentIndex = "idx_payments_open_booking"

// Payment is one attempt to pay for a booking
type Payment struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentCode         string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"payment_code"`
	BookingID           uuid.UUID  `gorm:"type:uuid;index;not null" json:"booking_id"`
	Amount              float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method              Method     `gorm:"type:varchar(20);not null" json:"method"`
	Status              Status     `gorm:"type:varchar(20);not null;index" json:"status"`
	ProofReference      string     `gorm:"type:varchar(255)" json:"proof_reference,omitempty"`
	VerifiedBy          *uuid.UUID `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt          *time.Time `json:"verified_at,omitempty"`
	RejectedAt          *time.Time `json:"rejected_at,omitempty"`
	RefundedBy          *uuid.UUID `gorm:"type:uuid" json:"refunded_by,omitempty"`
	RefundedAt          *time.Time `json:"refunded_at,omitempty"`
	RefundReason        string     `gorm:"type:varchar(500)" json:"refund_reason,omitempty"`
	NeedsReconciliation bool       `gorm:"not null;default:false;index" json:"needs_reconciliation"`
	ReconciliationNote  string     `gorm:"type:text" json:"reconciliation_note,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	return nil
}

func (p *Payment) IsPending() bool {
	return p.Status == StatusPending
}

func (p *Payment) IsVerified() bool {
	return p.Status == StatusVerified
}

// Migrate creates the payments table and its open-payment index
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Payment{}); err != nil {
		return err
	}
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON payments (booking_id) WHERE status IN ('%s', '%s')",
		openPaymentIndex, StatusPending, StatusVerified,
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", openPaymentIndex, err)
	}
	return nil
}

// PaginatedPayments represents paginated payment results
type PaginatedPayments struct {
	Payments   []Payment `json:"payments"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int64     `json:"total"`
	TotalPages int       `json:"total_pages"`
}
