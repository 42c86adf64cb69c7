package seats

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/constants"
	"busline/internal/shared/txn"
	"busline/internal/shared/utils/traveldate"
	"busline/pkg/cache"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

// Calendar answers whether a schedule runs on a date and which seats it offers.
type Calendar interface {
	OperatesOn(ctx context.Context, scheduleID uint, travelDate string) (bool, error)
	SeatPool(ctx context.Context, scheduleID uint, travelDate string) ([]string, error)
}

// Inventory owns seat state per (schedule, travel date). All transitions are
// conditional updates so two callers can never hold the same seat.
type Inventory interface {
	SetCacheService(cacheService cache.Service)
	SetCalendar(calendar Calendar)

	Reserve(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) (*ReservationResult, error)
	Confirm(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) error
	Release(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) error
	AvailableCount(ctx context.Context, scheduleID uint, travelDate string) (int, error)

	Materialize(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string) (int, error)
	ListSeats(ctx context.Context, scheduleID uint, travelDate string) (*SeatMap, error)
}

type inventory struct {
	repo         Repository
	tx           txn.Transactor
	calendar     Calendar
	cacheService cache.Service
	logger       *logger.Logger
}

func NewInventory(repo Repository, tx txn.Transactor, calendar Calendar) Inventory {
	return &inventory{
		repo:     repo,
		tx:       tx,
		calendar: calendar,
		logger:   logger.GetDefault().WithComponent("seats"),
	}
}

// SetCacheService injects the cache service dependency
func (s *inventory) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

// SetCalendar breaks the construction cycle with the schedule service, which
// materializes seats through this inventory.
func (s *inventory) SetCalendar(calendar Calendar) {
	s.calendar = calendar
}

// NormalizeSeatNumbers trims and upper-cases seat numbers and rejects empty or repeated ones.
func NormalizeSeatNumbers(seatNumbers []string) ([]string, error) {
	if len(seatNumbers) == 0 {
		return nil, apperrors.ValidationError{Field: "seat_numbers", Msg: "at least one seat is required"}
	}

	seen := make(map[string]struct{}, len(seatNumbers))
	out := make([]string, 0, len(seatNumbers))
	for _, raw := range seatNumbers {
		number := strings.ToUpper(strings.TrimSpace(raw))
		if number == "" {
			return nil, apperrors.ValidationError{Field: "seat_numbers", Msg: "seat number cannot be empty"}
		}
		if _, dup := seen[number]; dup {
			return nil, apperrors.ValidationError{Field: "seat_numbers", Msg: fmt.Sprintf("seat %s requested more than once", number)}
		}
		seen[number] = struct{}{}
		out = append(out, number)
	}
	return out, nil
}

// Reserve takes every requested seat for bookingID or none of them.
func (s *inventory) Reserve(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) (*ReservationResult, error) {
	requested, err := NormalizeSeatNumbers(seatNumbers)
	if err != nil {
		return nil, err
	}
	if travelDate, err = traveldate.Parse(travelDate); err != nil {
		return nil, err
	}

	// Sorted so overlapping reservations touch rows in the same order.
	ordered := append([]string(nil), requested...)
	sort.Strings(ordered)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureCapacity(ctx, scheduleID, travelDate, ordered); err != nil {
			return err
		}

		for _, seat := range ordered {
			ok, err := s.repo.ReserveSeat(ctx, scheduleID, travelDate, seat, bookingID)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.SeatUnavailableError{ScheduleID: scheduleID, TravelDate: travelDate, Seat: seat}
			}
		}

		txn.AfterCommit(ctx, s.invalidateSeatMap(scheduleID, travelDate))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugWithContext(ctx, "Seats Reserved", map[string]interface{}{
		"booking_id":  bookingID.String(),
		"schedule_id": scheduleID,
		"travel_date": travelDate,
		"seats":       requested,
	})

	return &ReservationResult{
		BookingID:  bookingID,
		ScheduleID: scheduleID,
		TravelDate: travelDate,
		Seats:      requested,
	}, nil
}

// ensureCapacity checks the requested seats against the seat pool the calendar
// defines for the date and against the inventory that was materialized for it.
func (s *inventory) ensureCapacity(ctx context.Context, scheduleID uint, travelDate string, requested []string) error {
	layout, err := s.calendar.SeatPool(ctx, scheduleID, travelDate)
	if err != nil {
		return err
	}
	if len(layout) == 0 {
		return apperrors.CapacityExceededError{ScheduleID: scheduleID, TravelDate: travelDate, Reason: "schedule does not operate on this date"}
	}

	pool, err := s.repo.CountPool(ctx, scheduleID, travelDate)
	if err != nil {
		return err
	}
	if pool == 0 {
		return apperrors.CapacityExceededError{ScheduleID: scheduleID, TravelDate: travelDate, Reason: "seat inventory has not been created"}
	}
	if len(requested) > len(layout) || int64(len(requested)) > pool {
		return apperrors.CapacityExceededError{
			ScheduleID: scheduleID,
			TravelDate: travelDate,
			Reason:     fmt.Sprintf("requested %d seats but the bus has %d", len(requested), pool),
		}
	}

	onBus := make(map[string]struct{}, len(layout))
	for _, number := range layout {
		onBus[number] = struct{}{}
	}
	for _, number := range requested {
		if _, ok := onBus[number]; !ok {
			return apperrors.SeatUnavailableError{ScheduleID: scheduleID, TravelDate: travelDate, Seat: number}
		}
	}
	return nil
}

// Confirm turns the booking's reserved seats into booked seats. Seats that are
// already booked by the same booking count as confirmed.
func (s *inventory) Confirm(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) error {
	seats, err := NormalizeSeatNumbers(seatNumbers)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.MarkBooked(ctx, scheduleID, travelDate, seats, bookingID); err != nil {
			return err
		}

		owned, err := s.repo.CountOwned(ctx, scheduleID, travelDate, seats, bookingID, StatusBooked)
		if err != nil {
			return err
		}
		if owned != int64(len(seats)) {
			mismatch := apperrors.OwnershipMismatchError{
				ScheduleID: scheduleID,
				TravelDate: travelDate,
				BookingID:  bookingID.String(),
				Seats:      seats,
				Expected:   len(seats),
				Affected:   int(owned),
			}
			s.logger.LogIntegrityError(ctx, "seat_confirm_mismatch", mismatch, map[string]interface{}{
				"booking_id":  bookingID.String(),
				"schedule_id": scheduleID,
				"travel_date": travelDate,
			})
			return mismatch
		}

		txn.AfterCommit(ctx, s.invalidateSeatMap(scheduleID, travelDate))
		return nil
	})
}

// Release returns the booking's seats to the pool. Seats the booking does not own
// are left alone; when that happens the release that did apply is kept and an
// OwnershipMismatchError is returned.
func (s *inventory) Release(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string, bookingID uuid.UUID) error {
	seats, err := NormalizeSeatNumbers(seatNumbers)
	if err != nil {
		return err
	}

	var affected int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.ReleaseOwned(ctx, scheduleID, travelDate, seats, bookingID)
		if err != nil {
			return err
		}
		affected = n
		txn.AfterCommit(ctx, s.invalidateSeatMap(scheduleID, travelDate))
		return nil
	})
	if err != nil {
		return err
	}

	if affected != int64(len(seats)) {
		mismatch := apperrors.OwnershipMismatchError{
			ScheduleID: scheduleID,
			TravelDate: travelDate,
			BookingID:  bookingID.String(),
			Seats:      seats,
			Expected:   len(seats),
			Affected:   int(affected),
		}
		s.logger.LogIntegrityError(ctx, "seat_release_mismatch", mismatch, map[string]interface{}{
			"booking_id":  bookingID.String(),
			"schedule_id": scheduleID,
			"travel_date": travelDate,
		})
		return mismatch
	}
	return nil
}

// AvailableCount reads straight from storage and is never cached.
func (s *inventory) AvailableCount(ctx context.Context, scheduleID uint, travelDate string) (int, error) {
	date, err := traveldate.Parse(travelDate)
	if err != nil {
		return 0, err
	}
	count, err := s.repo.CountAvailable(ctx, scheduleID, date)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Materialize creates any missing seats of the pool as available.
func (s *inventory) Materialize(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string) (int, error) {
	created, err := s.repo.CreateMissing(ctx, scheduleID, travelDate, seatNumbers)
	if err != nil {
		return 0, err
	}
	if created > 0 {
		txn.AfterCommit(ctx, s.invalidateSeatMap(scheduleID, travelDate))
	}
	return created, nil
}

func (s *inventory) ListSeats(ctx context.Context, scheduleID uint, travelDate string) (*SeatMap, error) {
	date, err := traveldate.Parse(travelDate)
	if err != nil {
		return nil, err
	}

	fetch := func() (interface{}, error) {
		rows, err := s.repo.List(ctx, scheduleID, date)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, apperrors.NotFoundError{Resource: "seat map", ID: fmt.Sprintf("%d/%s", scheduleID, date)}
		}
		return buildSeatMap(scheduleID, date, rows), nil
	}

	if s.cacheService == nil {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		return result.(*SeatMap), nil
	}

	var seatMap SeatMap
	if err := s.cacheService.GetOrSet(ctx, constants.BuildSeatMapKey(scheduleID, date), constants.TTL_SEAT_MAP, fetch, &seatMap); err != nil {
		return nil, err
	}
	return &seatMap, nil
}

func buildSeatMap(scheduleID uint, travelDate string, rows []Seat) *SeatMap {
	seatMap := &SeatMap{
		ScheduleID: scheduleID,
		TravelDate: travelDate,
		Total:      len(rows),
		Seats:      make([]SeatView, 0, len(rows)),
	}
	for _, row := range rows {
		if row.IsAvailable() {
			seatMap.Available++
		}
		seatMap.Seats = append(seatMap.Seats, SeatView{SeatNumber: row.SeatNumber, Status: row.Status})
	}
	return seatMap
}

func (s *inventory) invalidateSeatMap(scheduleID uint, travelDate string) func(context.Context) {
	return func(ctx context.Context) {
		if s.cacheService == nil {
			return
		}
		if err := s.cacheService.Delete(ctx, constants.BuildSeatMapKey(scheduleID, travelDate)); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate seat map cache", "error", err)
		}
	}
}
