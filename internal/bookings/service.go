package bookings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"busline/internal/notifications"
	"busline/internal/seats"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/config"
	"busline/internal/shared/txn"
	"busline/internal/shared/utils/money"
	"busline/internal/shared/utils/refcode"
	"busline/internal/shared/utils/traveldate"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

const maxCodeAttempts = 5

// IssueRecorder persists integrity problems found while changing bookings.
type IssueRecorder interface {
	RecordOwnershipMismatch(ctx context.Context, bookingID uuid.UUID, mismatch apperrors.OwnershipMismatchError) error
}

// Service is the booking ledger, the only writer of booking status.
type Service interface {
	SetPublisher(publisher notifications.Publisher)
	SetIssueRecorder(recorder IssueRecorder)

	CreateBooking(ctx context.Context, input CreateBookingInput) (*Booking, error)
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor uuid.UUID) (*Booking, error)
	CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error)

	GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	GetBookingByCode(ctx context.Context, code string) (*Booking, error)
	ListCustomerBookings(ctx context.Context, customerID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error)

	// CompleteDepartedBookings completes confirmed bookings that travelled before the given date.
	CompleteDepartedBookings(ctx context.Context, before string, limit int) (int, error)
}

type service struct {
	repo      Repository
	tx        txn.Transactor
	inventory seats.Inventory
	calendar  seats.Calendar
	cfg       config.BookingConfig
	publisher notifications.Publisher
	recorder  IssueRecorder
	logger    *logger.Logger
}

// NewService creates a new booking ledger
func NewService(repo Repository, tx txn.Transactor, inventory seats.Inventory, calendar seats.Calendar, cfg config.BookingConfig) Service {
	if cfg.BookingCodePrefix == "" {
		cfg.BookingCodePrefix = "BUS"
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	return &service{
		repo:      repo,
		tx:        tx,
		inventory: inventory,
		calendar:  calendar,
		cfg:       cfg,
		publisher: notifications.NopPublisher,
		logger:    logger.GetDefault().WithComponent("bookings"),
	}
}

// SetPublisher injects the post-commit event publisher
func (s *service) SetPublisher(publisher notifications.Publisher) {
	if publisher == nil {
		publisher = notifications.NopPublisher
	}
	s.publisher = publisher
}

// SetIssueRecorder injects the reconciliation issue store
func (s *service) SetIssueRecorder(recorder IssueRecorder) {
	s.recorder = recorder
}

// CreateBooking reserves the seats and stores a pending booking in one transaction.
// On any failure neither the booking nor a reserved seat remains.
func (s *service) CreateBooking(ctx context.Context, input CreateBookingInput) (*Booking, error) {
	booking, err := s.buildBooking(input)
	if err != nil {
		return nil, err
	}
	seatNumbers := booking.SeatNumbers()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		operates, err := s.calendar.OperatesOn(ctx, booking.ScheduleID, booking.TravelDate)
		if err != nil {
			return err
		}
		if !operates {
			return apperrors.CapacityExceededError{
				ScheduleID: booking.ScheduleID,
				TravelDate: booking.TravelDate,
				Reason:     "schedule does not operate on this date",
			}
		}

		code, err := s.newBookingCode(ctx)
		if err != nil {
			return err
		}
		booking.BookingCode = code

		if err := s.repo.Create(ctx, booking); err != nil {
			return err
		}

		if _, err := s.inventory.Reserve(ctx, booking.ScheduleID, booking.TravelDate, seatNumbers, booking.ID); err != nil {
			return err
		}

		s.publishAfterCommit(ctx, bookingEvent(notifications.EventBookingCreated, booking))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogBookingCreated(ctx, booking.ID.String(), booking.BookingCode, booking.ScheduleID, booking.TravelDate, seatNumbers)
	return booking, nil
}

func (s *service) buildBooking(input CreateBookingInput) (*Booking, error) {
	if input.CustomerID == uuid.Nil {
		return nil, apperrors.ValidationError{Field: "customer_id", Msg: "customer is required"}
	}
	if input.ScheduleID == 0 {
		return nil, apperrors.ValidationError{Field: "schedule_id", Msg: "schedule is required"}
	}
	date, err := traveldate.Parse(input.TravelDate)
	if err != nil {
		return nil, err
	}
	seatNumbers, err := seats.NormalizeSeatNumbers(input.SeatNumbers)
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxSeatsPerBook > 0 && len(seatNumbers) > s.cfg.MaxSeatsPerBook {
		return nil, apperrors.ValidationError{
			Field: "seat_numbers",
			Msg:   fmt.Sprintf("at most %d seats per booking", s.cfg.MaxSeatsPerBook),
		}
	}
	if len(input.Passengers) != len(seatNumbers) {
		return nil, apperrors.ValidationError{Field: "passengers", Msg: "one passenger is required per seat"}
	}
	if !money.Valid(input.TotalAmount) {
		return nil, apperrors.ValidationError{Field: "total_amount", Msg: fmt.Sprintf("amount must be between 0 and %.2f", money.Max)}
	}

	booking := &Booking{
		ID:          uuid.New(),
		CustomerID:  input.CustomerID,
		ScheduleID:  input.ScheduleID,
		TravelDate:  date,
		TotalAmount: money.Round(input.TotalAmount),
		Status:      StatusPending,
		Seats:       make([]BookingSeat, 0, len(seatNumbers)),
	}
	for i, number := range seatNumbers {
		name := strings.TrimSpace(input.Passengers[i].Name)
		if name == "" {
			return nil, apperrors.ValidationError{Field: "passengers", Msg: fmt.Sprintf("passenger name for seat %s is required", number)}
		}
		booking.Seats = append(booking.Seats, BookingSeat{
			SeatNumber:     number,
			Position:       i,
			PassengerName:  name,
			PassengerPhone: strings.TrimSpace(input.Passengers[i].Phone),
		})
	}
	return booking, nil
}

func (s *service) newBookingCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := refcode.Generate(s.cfg.BookingCodePrefix, time.Now())
		if err != nil {
			return "", fmt.Errorf("failed to generate booking code: %w", err)
		}
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperrors.InternalError{Msg: "could not allocate a unique booking code"}
}

// ConfirmBooking moves a pending booking to confirmed and books its seats.
// Confirming an already confirmed booking changes nothing and succeeds.
func (s *service) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	var booking *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		booking = current

		if current.Status == StatusConfirmed {
			return nil
		}
		if !current.Status.CanTransitionTo(StatusConfirmed) {
			return invalidTransition(current, StatusConfirmed)
		}

		now := time.Now().UTC()
		ok, err := s.repo.Transition(ctx, bookingID, StatusConfirmed, map[string]interface{}{"confirmed_at": now})
		if err != nil {
			return err
		}
		if !ok {
			latest, err := s.repo.GetByID(ctx, bookingID)
			if err != nil {
				return err
			}
			booking = latest
			if latest.Status == StatusConfirmed {
				return nil
			}
			return invalidTransition(latest, StatusConfirmed)
		}

		if err := s.inventory.Confirm(ctx, current.ScheduleID, current.TravelDate, current.SeatNumbers(), current.ID); err != nil {
			return err
		}

		current.Status = StatusConfirmed
		current.ConfirmedAt = &now
		s.transitionAfterCommit(ctx, current, StatusPending, notifications.EventBookingConfirmed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// CancelBooking releases the booking's seats and marks it cancelled. When some
// seats turn out not to be owned by the booking the cancel still goes through
// and the mismatch is recorded for reconciliation.
func (s *service) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor uuid.UUID) (*Booking, error) {
	var booking *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(StatusCancelled) {
			return invalidTransition(current, StatusCancelled)
		}
		from := current.Status

		now := time.Now().UTC()
		updates := map[string]interface{}{"cancelled_at": now}
		if actor != uuid.Nil {
			updates["cancelled_by"] = actor
		}
		ok, err := s.repo.Transition(ctx, bookingID, StatusCancelled, updates)
		if err != nil {
			return err
		}
		if !ok {
			latest, err := s.repo.GetByID(ctx, bookingID)
			if err != nil {
				return err
			}
			return invalidTransition(latest, StatusCancelled)
		}

		if err := s.inventory.Release(ctx, current.ScheduleID, current.TravelDate, current.SeatNumbers(), current.ID); err != nil {
			var mismatch apperrors.OwnershipMismatchError
			if !errors.As(err, &mismatch) {
				return err
			}
			if err := s.recordMismatch(ctx, current.ID, mismatch); err != nil {
				return err
			}
		}

		current.Status = StatusCancelled
		current.CancelledAt = &now
		if actor != uuid.Nil {
			current.CancelledBy = &actor
		}
		booking = current
		s.transitionAfterCommit(ctx, current, from, notifications.EventBookingCancelled)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// CompleteBooking closes a confirmed booking after travel. Seats stay booked.
func (s *service) CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	var booking *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(StatusCompleted) {
			return invalidTransition(current, StatusCompleted)
		}

		now := time.Now().UTC()
		ok, err := s.repo.Transition(ctx, bookingID, StatusCompleted, map[string]interface{}{"completed_at": now})
		if err != nil {
			return err
		}
		if !ok {
			latest, err := s.repo.GetByID(ctx, bookingID)
			if err != nil {
				return err
			}
			return invalidTransition(latest, StatusCompleted)
		}

		current.Status = StatusCompleted
		current.CompletedAt = &now
		booking = current
		s.transitionAfterCommit(ctx, current, StatusConfirmed, notifications.EventBookingCompleted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// GetBooking retrieves a booking by ID
func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, bookingID)
}

// GetBookingByCode retrieves a booking by its external code
func (s *service) GetBookingByCode(ctx context.Context, code string) (*Booking, error) {
	return s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// ListCustomerBookings retrieves bookings for a specific customer
func (s *service) ListCustomerBookings(ctx context.Context, customerID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 || query.Limit > 100 {
		query.Limit = s.cfg.DefaultPageSize
	}
	if query.Status != "" && !Status(query.Status).IsValid() {
		return nil, apperrors.ValidationError{Field: "status", Msg: fmt.Sprintf("unknown status %q", query.Status)}
	}
	if query.TravelDate != "" {
		date, err := traveldate.Parse(query.TravelDate)
		if err != nil {
			return nil, err
		}
		query.TravelDate = date
	}

	bookings, total, err := s.repo.ListByCustomer(ctx, customerID, query)
	if err != nil {
		return nil, err
	}

	return &PaginatedBookings{
		Bookings:   bookings,
		Page:       query.Page,
		Limit:      query.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
	}, nil
}

func (s *service) CompleteDepartedBookings(ctx context.Context, before string, limit int) (int, error) {
	date, err := traveldate.Parse(before)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		limit = 100
	}

	ids, err := s.repo.ListConfirmedBefore(ctx, date, limit)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, id := range ids {
		if _, err := s.CompleteBooking(ctx, id); err != nil {
			// Cancelled or completed by someone else since the listing.
			if apperrors.IsInvalidTransition(err) {
				continue
			}
			return completed, err
		}
		completed++
	}
	return completed, nil
}

func (s *service) recordMismatch(ctx context.Context, bookingID uuid.UUID, mismatch apperrors.OwnershipMismatchError) error {
	if s.recorder == nil {
		return nil
	}
	if err := s.recorder.RecordOwnershipMismatch(ctx, bookingID, mismatch); err != nil {
		return fmt.Errorf("failed to record ownership mismatch: %w", err)
	}
	return nil
}

func (s *service) transitionAfterCommit(ctx context.Context, booking *Booking, from Status, eventType notifications.EventType) {
	id, to := booking.ID.String(), booking.Status.String()
	txn.AfterCommit(ctx, func(ctx context.Context) {
		s.logger.LogBookingTransition(ctx, id, from.String(), to)
	})
	s.publishAfterCommit(ctx, bookingEvent(eventType, booking))
}

func (s *service) publishAfterCommit(ctx context.Context, event notifications.Event) {
	txn.AfterCommit(ctx, func(ctx context.Context) {
		s.publisher.Publish(ctx, event)
	})
}

func bookingEvent(eventType notifications.EventType, b *Booking) notifications.Event {
	return notifications.NewEventBuilder(eventType).
		WithCustomer(b.CustomerID).
		WithBooking(b.ID, b.BookingCode).
		WithTrip(b.ScheduleID, b.TravelDate, b.SeatNumbers()).
		WithAmount(b.TotalAmount).
		WithStatus(b.Status.String()).
		Build()
}

func invalidTransition(b *Booking, target Status) error {
	return apperrors.InvalidTransitionError{
		Entity: "booking",
		ID:     b.ID.String(),
		From:   b.Status.String(),
		To:     target.String(),
	}
}
