package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingCompleted EventType = "booking.completed"

	EventPaymentSubmitted EventType = "payment.submitted"
	EventPaymentVerified  EventType = "payment.verified"
	EventPaymentRejected  EventType = "payment.rejected"
	EventPaymentRefunded  EventType = "payment.refunded"

	EventReconciliationFlagged EventType = "reconciliation.flagged"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Event describes a committed state change. It is published after the
// transaction that produced it has committed.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Type     EventType `json:"type"`
	Priority Priority  `json:"priority"`

	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	BookingID   *uuid.UUID `json:"booking_id,omitempty"`
	BookingCode string     `json:"booking_code,omitempty"`
	PaymentID   *uuid.UUID `json:"payment_id,omitempty"`
	PaymentCode string     `json:"payment_code,omitempty"`

	ScheduleID uint     `json:"schedule_id,omitempty"`
	TravelDate string   `json:"travel_date,omitempty"`
	Seats      []string `json:"seats,omitempty"`
	Amount     float64  `json:"amount,omitempty"`
	Status     string   `json:"status,omitempty"`

	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type EventBuilder struct {
	event *Event
}

func NewEventBuilder(eventType EventType) *EventBuilder {
	return &EventBuilder{
		event: &Event{
			ID:         uuid.New(),
			Type:       eventType,
			Priority:   GetDefaultPriority(eventType),
			OccurredAt: time.Now().UTC(),
		},
	}
}

func (eb *EventBuilder) WithCustomer(customerID uuid.UUID) *EventBuilder {
	eb.event.CustomerID = &customerID
	return eb
}

func (eb *EventBuilder) WithBooking(bookingID uuid.UUID, code string) *EventBuilder {
	eb.event.BookingID = &bookingID
	eb.event.BookingCode = code
	return eb
}

func (eb *EventBuilder) WithPayment(paymentID uuid.UUID, code string) *EventBuilder {
	eb.event.PaymentID = &paymentID
	eb.event.PaymentCode = code
	return eb
}

func (eb *EventBuilder) WithTrip(scheduleID uint, travelDate string, seats []string) *EventBuilder {
	eb.event.ScheduleID = scheduleID
	eb.event.TravelDate = travelDate
	eb.event.Seats = seats
	return eb
}

func (eb *EventBuilder) WithAmount(amount float64) *EventBuilder {
	eb.event.Amount = amount
	return eb
}

func (eb *EventBuilder) WithStatus(status string) *EventBuilder {
	eb.event.Status = status
	return eb
}

func (eb *EventBuilder) WithData(key string, value interface{}) *EventBuilder {
	if eb.event.Data == nil {
		eb.event.Data = make(map[string]interface{})
	}
	eb.event.Data[key] = value
	return eb
}

func (eb *EventBuilder) Build() Event {
	return *eb.event
}

func GetDefaultPriority(eventType EventType) Priority {
	switch eventType {
	case EventReconciliationFlagged, EventPaymentRefunded:
		return PriorityHigh
	case EventBookingCreated, EventPaymentSubmitted:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// PartitionKey keeps every event of one booking on the same partition.
func (e Event) PartitionKey() string {
	if e.BookingID != nil {
		return e.BookingID.String()
	}
	if e.PaymentID != nil {
		return e.PaymentID.String()
	}
	return e.ID.String()
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
