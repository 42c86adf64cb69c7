package reconciliation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kind classifies an integrity problem
type Kind string

const (
	KindOrphanedReservation Kind = "orphaned_reservation"
	KindOwnershipMismatch   Kind = "ownership_mismatch"
	KindRefundDivergence    Kind = "refund_divergence"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindOrphanedReservation, KindOwnershipMismatch, KindRefundDivergence:
		return true
	}
	return false
}

// openIssueIndex keeps one unresolved issue per fingerprint
const openIssueIndex = "idx_reconciliation_issues_open_fingerprint"

// Issue is an integrity problem waiting for an operator
type Issue struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Kind           Kind       `gorm:"type:varchar(32);not null;index" json:"kind"`
	Fingerprint    string     `gorm:"type:varchar(160);not null;index" json:"-"`
	ScheduleID     *uint      `json:"schedule_id,omitempty"`
	TravelDate     string     `gorm:"type:varchar(10)" json:"travel_date,omitempty"`
	SeatNumber     string     `gorm:"type:varchar(8)" json:"seat_number,omitempty"`
	BookingID      *uuid.UUID `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	PaymentID      *uuid.UUID `gorm:"type:uuid" json:"payment_id,omitempty"`
	Detail         string     `gorm:"type:text;not null" json:"detail"`
	DetectedAt     time.Time  `gorm:"not null" json:"detected_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy     *uuid.UUID `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolutionNote string     `gorm:"type:text" json:"resolution_note,omitempty"`
}

func (Issue) TableName() string {
	return "reconciliation_issues"
}

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.DetectedAt.IsZero() {
		i.DetectedAt = time.Now().UTC()
	}
	return nil
}

func (i *Issue) IsResolved() bool {
	return i.ResolvedAt != nil
}

// OrphanedSeat is a held seat whose booking is missing or cancelled
type OrphanedSeat struct {
	SeatID        uuid.UUID  `gorm:"column:seat_id"`
	ScheduleID    uint       `gorm:"column:schedule_id"`
	TravelDate    string     `gorm:"column:travel_date"`
	SeatNumber    string     `gorm:"column:seat_number"`
	Status        string     `gorm:"column:status"`
	BookingID     *uuid.UUID `gorm:"column:booking_id"`
	BookingStatus *string    `gorm:"column:booking_status"`
}

// Reason describes why the seat is orphaned
func (o OrphanedSeat) Reason() string {
	switch {
	case o.BookingID == nil:
		return "seat is held without a booking"
	case o.BookingStatus == nil:
		return fmt.Sprintf("seat is held by missing booking %s", o.BookingID)
	default:
		return fmt.Sprintf("seat is held by %s booking %s", *o.BookingStatus, o.BookingID)
	}
}

// Migrate creates the issue table and its open-fingerprint index
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Issue{}); err != nil {
		return err
	}
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON reconciliation_issues (fingerprint) WHERE resolved_at IS NULL",
		openIssueIndex,
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", openIssueIndex, err)
	}
	return nil
}

// SweepResult summarizes one orphan sweep
type SweepResult struct {
	Scanned  int `json:"scanned"`
	Recorded int `json:"recorded"`
	Released int `json:"released"`
}

type PaginatedIssues struct {
	Issues     []Issue `json:"issues"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int64   `json:"total"`
	TotalPages int     `json:"total_pages"`
}

type IssueQuery struct {
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	Kind       string `form:"kind"`
	Unresolved bool   `form:"unresolved"`
}

type ResolveIssueRequest struct {
	Note string `json:"note" validate:"required,max=1000"`
}
