package payments

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"busline/internal/bookings"
	"busline/internal/notifications"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/config"
	"busline/internal/shared/txn"
	"busline/internal/shared/utils/money"
	"busline/internal/shared/utils/refcode"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

const maxCodeAttempts = 5

// Ledger is the part of the booking ledger the coordinator drives
type Ledger interface {
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error)
	GetBookingByCode(ctx context.Context, code string) (*bookings.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor uuid.UUID) (*bookings.Booking, error)
}

// IssueRecorder persists payments whose booking could not follow a refund
type IssueRecorder interface {
	RecordRefundDivergence(ctx context.Context, paymentID, bookingID uuid.UUID, detail string) error
}

// Service is the payment coordinator. It is the only writer of payment status and
// changes bookings exclusively through the Ledger.
type Service interface {
	SetPublisher(publisher notifications.Publisher)
	SetIssueRecorder(recorder IssueRecorder)

	SubmitPayment(ctx context.Context, input SubmitPaymentInput) (*Payment, error)
	Verify(ctx context.Context, paymentID uuid.UUID, outcome Outcome, verifier uuid.UUID) (*Payment, error)
	Refund(ctx context.Context, paymentID uuid.UUID, actor uuid.UUID, reason string) (*Payment, error)

	GetPayment(ctx context.Context, paymentID uuid.UUID) (*Payment, error)
	ListBookingPayments(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)
	ListPendingReconciliation(ctx context.Context, query ReconciliationQuery) (*PaginatedPayments, error)
}

type service struct {
	repo      Repository
	tx        txn.Transactor
	ledger    Ledger
	cfg       config.BookingConfig
	publisher notifications.Publisher
	recorder  IssueRecorder
	logger    *logger.Logger
}

func NewService(repo Repository, tx txn.Transactor, ledger Ledger, cfg config.BookingConfig) Service {
	if cfg.PaymentCodePrefix == "" {
		cfg.PaymentCodePrefix = "PAY"
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	return &service{
		repo:      repo,
		tx:        tx,
		ledger:    ledger,
		cfg:       cfg,
		publisher: notifications.NopPublisher,
		logger:    logger.GetDefault().WithComponent("payments"),
	}
}

func (s *service) SetPublisher(publisher notifications.Publisher) {
	if publisher == nil {
		publisher = notifications.NopPublisher
	}
	s.publisher = publisher
}

func (s *service) SetIssueRecorder(recorder IssueRecorder) {
	s.recorder = recorder
}

// SubmitPayment records a pending payment for a pending booking. The checks run in
// order: booking state, open payment, amount.
func (s *service) SubmitPayment(ctx context.Context, input SubmitPaymentInput) (*Payment, error) {
	if !input.Method.IsValid() {
		return nil, apperrors.ValidationError{Field: "method", Msg: fmt.Sprintf("unknown payment method %q", input.Method)}
	}
	if !money.Valid(input.Amount) {
		return nil, apperrors.ValidationError{Field: "amount", Msg: fmt.Sprintf("amount must be between 0 and %.2f", money.Max)}
	}

	var payment *Payment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		booking, err := s.ledger.GetBooking(ctx, input.BookingID)
		if err != nil {
			return err
		}
		if booking.Status != bookings.StatusPending {
			return apperrors.InvalidBookingStateError{BookingID: booking.ID.String(), Status: booking.Status.String()}
		}

		existing, err := s.repo.FindOpenByBooking(ctx, booking.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.DuplicatePaymentError{BookingID: booking.ID.String(), ExistingPaymentID: existing.ID.String()}
		}

		if !money.Equal(input.Amount, booking.TotalAmount) {
			return apperrors.AmountMismatchError{Expected: booking.TotalAmount, Got: input.Amount}
		}

		code, err := s.newPaymentCode(ctx)
		if err != nil {
			return err
		}

		payment = &Payment{
			ID:             uuid.New(),
			PaymentCode:    code,
			BookingID:      booking.ID,
			Amount:         money.Round(input.Amount),
			Method:         input.Method,
			Status:         StatusPending,
			ProofReference: strings.TrimSpace(input.ProofReference),
		}
		if err := s.repo.Create(ctx, payment); err != nil {
			return err
		}

		s.publishAfterCommit(ctx, paymentEvent(notifications.EventPaymentSubmitted, payment, booking))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogPaymentTransition(ctx, payment.ID.String(), payment.BookingID.String(), "", payment.Status.String())
	return payment, nil
}

func (s *service) newPaymentCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := refcode.Generate(s.cfg.PaymentCodePrefix, time.Now())
		if err != nil {
			return "", fmt.Errorf("failed to generate payment code: %w", err)
		}
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperrors.InternalError{Msg: "could not allocate a unique payment code"}
}

// Verify applies an administrator's decision to a pending payment. A verified
// payment confirms the booking, a rejected one cancels it, in the same transaction.
func (s *service) Verify(ctx context.Context, paymentID uuid.UUID, outcome Outcome, verifier uuid.UUID) (*Payment, error) {
	if !outcome.IsValid() {
		return nil, apperrors.ValidationError{Field: "outcome", Msg: fmt.Sprintf("unknown outcome %q", outcome)}
	}
	target := outcome.Target()

	var payment *Payment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(target) {
			return invalidTransition(current, target)
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{}
		if verifier != uuid.Nil {
			updates["verified_by"] = verifier
			current.VerifiedBy = &verifier
		}
		if target == StatusVerified {
			updates["verified_at"] = now
			current.VerifiedAt = &now
		} else {
			updates["rejected_at"] = now
			current.RejectedAt = &now
		}

		ok, err := s.repo.Transition(ctx, paymentID, target, updates)
		if err != nil {
			return err
		}
		if !ok {
			latest, err := s.repo.GetByID(ctx, paymentID)
			if err != nil {
				return err
			}
			return invalidTransition(latest, target)
		}

		var booking *bookings.Booking
		if target == StatusVerified {
			booking, err = s.ledger.ConfirmBooking(ctx, current.BookingID)
		} else {
			booking, err = s.cancelUnlessCancelled(ctx, current.BookingID, verifier)
		}
		if err != nil {
			return err
		}

		from := current.Status
		current.Status = target
		payment = current

		eventType := notifications.EventPaymentVerified
		if target == StatusRejected {
			eventType = notifications.EventPaymentRejected
		}
		s.transitionAfterCommit(ctx, current, from, paymentEvent(eventType, current, booking))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// cancelUnlessCancelled cancels the booking unless a customer already did
func (s *service) cancelUnlessCancelled(ctx context.Context, bookingID, actor uuid.UUID) (*bookings.Booking, error) {
	booking, err := s.ledger.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == bookings.StatusCancelled {
		return booking, nil
	}
	return s.ledger.CancelBooking(ctx, bookingID, actor)
}

// Refund moves a verified payment to refunded and cancels its booking. The refund
// commits even when the booking cannot be cancelled; the payment is then flagged
// for reconciliation and an issue is recorded.
func (s *service) Refund(ctx context.Context, paymentID uuid.UUID, actor uuid.UUID, reason string) (*Payment, error) {
	var payment *Payment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(StatusRefunded) {
			return invalidTransition(current, StatusRefunded)
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"refunded_at":   now,
			"refund_reason": strings.TrimSpace(reason),
		}
		if actor != uuid.Nil {
			updates["refunded_by"] = actor
			current.RefundedBy = &actor
		}
		ok, err := s.repo.Transition(ctx, paymentID, StatusRefunded, updates)
		if err != nil {
			return err
		}
		if !ok {
			latest, err := s.repo.GetByID(ctx, paymentID)
			if err != nil {
				return err
			}
			return invalidTransition(latest, StatusRefunded)
		}
		current.Status = StatusRefunded
		current.RefundedAt = &now
		current.RefundReason = strings.TrimSpace(reason)

		var booking *bookings.Booking
		cancelErr := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			cancelled, err := s.cancelUnlessCancelled(ctx, current.BookingID, actor)
			booking = cancelled
			return err
		})
		if cancelErr != nil {
			if err := s.flagDivergence(ctx, current, cancelErr); err != nil {
				return err
			}
		}

		payment = current
		s.transitionAfterCommit(ctx, current, StatusVerified, paymentEvent(notifications.EventPaymentRefunded, current, booking))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) flagDivergence(ctx context.Context, payment *Payment, cause error) error {
	note := fmt.Sprintf("refund committed but booking %s was not cancelled: %v", payment.BookingID, cause)
	if err := s.repo.FlagForReconciliation(ctx, payment.ID, note); err != nil {
		return err
	}
	payment.NeedsReconciliation = true
	payment.ReconciliationNote = note

	s.logger.LogIntegrityError(ctx, "refund_divergence", cause, map[string]interface{}{
		"payment_id": payment.ID.String(),
		"booking_id": payment.BookingID.String(),
	})

	if s.recorder == nil {
		return nil
	}
	if err := s.recorder.RecordRefundDivergence(ctx, payment.ID, payment.BookingID, note); err != nil {
		return fmt.Errorf("failed to record refund divergence: %w", err)
	}
	return nil
}

func (s *service) GetPayment(ctx context.Context, paymentID uuid.UUID) (*Payment, error) {
	return s.repo.GetByID(ctx, paymentID)
}

func (s *service) ListBookingPayments(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

// ListPendingReconciliation lists payments flagged by a divergent refund
func (s *service) ListPendingReconciliation(ctx context.Context, query ReconciliationQuery) (*PaginatedPayments, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 || query.Limit > 100 {
		query.Limit = s.cfg.DefaultPageSize
	}

	payments, total, err := s.repo.ListNeedingReconciliation(ctx, (query.Page-1)*query.Limit, query.Limit)
	if err != nil {
		return nil, err
	}

	return &PaginatedPayments{
		Payments:   payments,
		Page:       query.Page,
		Limit:      query.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
	}, nil
}

func (s *service) transitionAfterCommit(ctx context.Context, payment *Payment, from Status, event notifications.Event) {
	id, bookingID, to := payment.ID.String(), payment.BookingID.String(), payment.Status.String()
	txn.AfterCommit(ctx, func(ctx context.Context) {
		s.logger.LogPaymentTransition(ctx, id, bookingID, from.String(), to)
	})
	s.publishAfterCommit(ctx, event)
}

func (s *service) publishAfterCommit(ctx context.Context, event notifications.Event) {
	txn.AfterCommit(ctx, func(ctx context.Context) {
		s.publisher.Publish(ctx, event)
	})
}

func paymentEvent(eventType notifications.EventType, p *Payment, b *bookings.Booking) notifications.Event {
	builder := notifications.NewEventBuilder(eventType).
		WithPayment(p.ID, p.PaymentCode).
		WithAmount(p.Amount).
		WithStatus(p.Status.String())
	if b != nil {
		builder = builder.
			WithCustomer(b.CustomerID).
			WithBooking(b.ID, b.BookingCode).
			WithTrip(b.ScheduleID, b.TravelDate, b.SeatNumbers())
	} else {
		builder = builder.WithBooking(p.BookingID, "")
	}
	return builder.Build()
}

func invalidTransition(p *Payment, target Status) error {
	return apperrors.InvalidTransitionError{
		Entity: "payment",
		ID:     p.ID.String(),
		From:   p.Status.String(),
		To:     target.String(),
	}
}
