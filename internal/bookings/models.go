package bookings

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking defines the main booking structure
type Booking struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BookingCode string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"booking_code"`
	CustomerID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"customer_id"`
	ScheduleID  uint       `gorm:"not null;index:idx_bookings_schedule_date,priority:1" json:"schedule_id"`
	TravelDate  string     `gorm:"type:varchar(10);not null;index:idx_bookings_schedule_date,priority:2" json:"travel_date"`
	TotalAmount float64    `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status      Status     `gorm:"type:varchar(20);not null;index" json:"status"`
	CancelledBy *uuid.UUID `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	Seats []BookingSeat `json:"seats" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// BookingSeat is one seat of a booking together with its passenger
type BookingSeat struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID      uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	SeatNumber     string    `gorm:"type:varchar(8);not null" json:"seat_number"`
	Position       int       `gorm:"not null" json:"position"`
	PassengerName  string    `gorm:"type:varchar(120);not null" json:"passenger_name"`
	PassengerPhone string    `gorm:"type:varchar(32)" json:"passenger_phone,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// TableName sets the table name for BookingSeat
func (BookingSeat) TableName() string {
	return "booking_seats"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (s *BookingSeat) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SeatNumbers returns the booked seats in the order they were requested
func (b *Booking) SeatNumbers() []string {
	seats := append([]BookingSeat(nil), b.Seats...)
	sort.SliceStable(seats, func(i, j int) bool { return seats[i].Position < seats[j].Position })

	numbers := make([]string, 0, len(seats))
	for _, seat := range seats {
		numbers = append(numbers, seat.SeatNumber)
	}
	return numbers
}

// Helper methods for booking management
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// Migrate creates the booking tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Booking{}, &BookingSeat{})
}

// PaginatedBookings represents paginated booking results
type PaginatedBookings struct {
	Bookings   []Booking `json:"bookings"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int64     `json:"total"`
	TotalPages int       `json:"total_pages"`
}
