package seats

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusBooked    Status = "booked"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusBooked:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Seat is one seat of one schedule on one travel date. Rows are created when the date's
// inventory is materialized and are never deleted.
type Seat struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ScheduleID uint       `gorm:"not null;uniqueIndex:idx_seats_schedule_date_number,priority:1" json:"schedule_id"`
	TravelDate string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_seats_schedule_date_number,priority:2" json:"travel_date"`
	SeatNumber string     `gorm:"type:varchar(8);not null;uniqueIndex:idx_seats_schedule_date_number,priority:3" json:"seat_number"`
	Status     Status     `gorm:"type:varchar(20);not null;index" json:"status"`
	BookingID  *uuid.UUID `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

func (s *Seat) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = StatusAvailable
	}
	return nil
}

// Helper methods for seat management
func (s Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

func (s Seat) IsOwnedBy(bookingID uuid.UUID) bool {
	return s.BookingID != nil && *s.BookingID == bookingID
}

// Migrate creates the seats table and its indexes
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Seat{})
}

// ReservationResult describes a successful reservation
type ReservationResult struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ScheduleID uint      `json:"schedule_id"`
	TravelDate string    `json:"travel_date"`
	Seats      []string  `json:"seats"`
}
