package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"busline/internal/notifications"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/config"
	"busline/internal/shared/txn"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

// SeatReleaser frees seats still held for a booking
type SeatReleaser interface {
	Release(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) error
}

// Service finds, records and resolves integrity problems. It also serves as the
// issue recorder of the booking ledger and the payment coordinator.
type Service interface {
	SetPublisher(publisher notifications.Publisher)

	Sweep(ctx context.Context) (*SweepResult, error)
	ListIssues(ctx context.Context, query IssueQuery) (*PaginatedIssues, error)
	ResolveIssue(ctx context.Context, issueID uuid.UUID, resolver uuid.UUID, note string) (*Issue, error)

	RecordOwnershipMismatch(ctx context.Context, bookingID uuid.UUID, mismatch apperrors.OwnershipMismatchError) error
	RecordRefundDivergence(ctx context.Context, paymentID, bookingID uuid.UUID, detail string) error
}

type service struct {
	repo      Repository
	tx        txn.Transactor
	releaser  SeatReleaser
	cfg       config.ReconciliationConfig
	publisher notifications.Publisher
	logger    *logger.Logger
}

func NewService(repo Repository, tx txn.Transactor, releaser SeatReleaser, cfg config.ReconciliationConfig) Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &service{
		repo:      repo,
		tx:        tx,
		releaser:  releaser,
		cfg:       cfg,
		publisher: notifications.NopPublisher,
		logger:    logger.GetDefault().WithComponent("reconciliation"),
	}
}

func (s *service) SetPublisher(publisher notifications.Publisher) {
	if publisher == nil {
		publisher = notifications.NopPublisher
	}
	s.publisher = publisher
}

// Sweep records every orphaned seat once and, with auto-release on, frees the
// seats that still name their stale booking.
func (s *service) Sweep(ctx context.Context) (*SweepResult, error) {
	orphans, err := s.repo.FindOrphanedSeats(ctx, s.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Scanned: len(orphans)}
	for _, orphan := range orphans {
		s.logger.LogIntegrityError(ctx, string(KindOrphanedReservation), errors.New(orphan.Reason()), map[string]interface{}{
			"seat_id":     orphan.SeatID.String(),
			"schedule_id": orphan.ScheduleID,
			"travel_date": orphan.TravelDate,
			"seat_number": orphan.SeatNumber,
			"status":      orphan.Status,
		})

		scheduleID := orphan.ScheduleID
		issue := &Issue{
			Kind:        KindOrphanedReservation,
			Fingerprint: orphanFingerprint(orphan),
			ScheduleID:  &scheduleID,
			TravelDate:  orphan.TravelDate,
			SeatNumber:  orphan.SeatNumber,
			BookingID:   orphan.BookingID,
			Detail:      orphan.Reason(),
		}
		created, err := s.record(ctx, issue)
		if err != nil {
			return result, err
		}
		if created {
			result.Recorded++
		}

		if !s.cfg.AutoRelease || orphan.BookingID == nil {
			continue
		}
		released, err := s.release(ctx, orphan, issue)
		if err != nil {
			return result, err
		}
		if released {
			result.Released++
		}
	}

	if result.Scanned > 0 {
		s.logger.InfoWithContext(ctx, "Reconciliation sweep finished", map[string]interface{}{
			"scanned":  result.Scanned,
			"recorded": result.Recorded,
			"released": result.Released,
		})
	}
	return result, nil
}

// release frees one orphaned seat and resolves its issue in the same transaction.
// A seat that changed since the scan is left for the next sweep.
func (s *service) release(ctx context.Context, orphan OrphanedSeat, issue *Issue) (bool, error) {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.releaser.Release(ctx, orphan.ScheduleID, orphan.TravelDate, []string{orphan.SeatNumber}, *orphan.BookingID); err != nil {
			return err
		}
		if issue.ID == uuid.Nil {
			return nil
		}
		_, err := s.repo.ResolveIssue(ctx, issue.ID, nil, "released by reconciliation sweep")
		return err
	})
	if err != nil {
		if apperrors.IsOwnershipMismatch(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *service) RecordOwnershipMismatch(ctx context.Context, bookingID uuid.UUID, mismatch apperrors.OwnershipMismatchError) error {
	scheduleID := mismatch.ScheduleID
	_, err := s.record(ctx, &Issue{
		Kind:        KindOwnershipMismatch,
		Fingerprint: fmt.Sprintf("%s:%s", KindOwnershipMismatch, bookingID),
		ScheduleID:  &scheduleID,
		TravelDate:  mismatch.TravelDate,
		BookingID:   &bookingID,
		Detail:      mismatch.Error(),
	})
	return err
}

func (s *service) RecordRefundDivergence(ctx context.Context, paymentID, bookingID uuid.UUID, detail string) error {
	_, err := s.record(ctx, &Issue{
		Kind:        KindRefundDivergence,
		Fingerprint: fmt.Sprintf("%s:%s", KindRefundDivergence, paymentID),
		BookingID:   &bookingID,
		PaymentID:   &paymentID,
		Detail:      detail,
	})
	return err
}

// record stores the issue and announces it once the surrounding transaction commits
func (s *service) record(ctx context.Context, issue *Issue) (bool, error) {
	created, err := s.repo.CreateIssue(ctx, issue)
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	builder := notifications.NewEventBuilder(notifications.EventReconciliationFlagged).
		WithData("issue_id", issue.ID.String()).
		WithData("kind", string(issue.Kind)).
		WithData("detail", issue.Detail)
	if issue.BookingID != nil {
		builder = builder.WithBooking(*issue.BookingID, "")
	}
	if issue.PaymentID != nil {
		builder = builder.WithPayment(*issue.PaymentID, "")
	}
	event := builder.Build()
	txn.AfterCommit(ctx, func(ctx context.Context) {
		s.publisher.Publish(ctx, event)
	})
	return true, nil
}

func (s *service) ListIssues(ctx context.Context, query IssueQuery) (*PaginatedIssues, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 || query.Limit > 100 {
		query.Limit = 20
	}
	if query.Kind != "" && !Kind(query.Kind).IsValid() {
		return nil, apperrors.ValidationError{Field: "kind", Msg: fmt.Sprintf("unknown issue kind %q", query.Kind)}
	}

	issues, total, err := s.repo.ListIssues(ctx, query)
	if err != nil {
		return nil, err
	}
	return &PaginatedIssues{
		Issues:     issues,
		Page:       query.Page,
		Limit:      query.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
	}, nil
}

func (s *service) ResolveIssue(ctx context.Context, issueID uuid.UUID, resolver uuid.UUID, note string) (*Issue, error) {
	var issue *Issue
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var by *uuid.UUID
		if resolver != uuid.Nil {
			by = &resolver
		}
		ok, err := s.repo.ResolveIssue(ctx, issueID, by, note)
		if err != nil {
			return err
		}

		current, err := s.repo.GetIssue(ctx, issueID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.InvalidTransitionError{
				Entity: "reconciliation issue",
				ID:     issueID.String(),
				From:   "resolved",
				To:     "resolved",
			}
		}
		issue = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func orphanFingerprint(o OrphanedSeat) string {
	booking := "none"
	if o.BookingID != nil {
		booking = o.BookingID.String()
	}
	return fmt.Sprintf("%s:%s:%s", KindOrphanedReservation, o.SeatID, booking)
}

// departedBefore is the travel date before which confirmed bookings are complete
func departedBefore(now time.Time, graceDays int) string {
	return now.UTC().AddDate(0, 0, -graceDays).Format("2006-01-02")
}
