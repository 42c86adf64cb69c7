package schedules

import (
	"context"
	"fmt"
	"math"
	"strings"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/constants"
	"busline/internal/shared/txn"
	"busline/internal/shared/utils/traveldate"
	"busline/pkg/cache"
	"busline/pkg/logger"
)

const defaultSeatsPerRow = 4

// SeatMaterializer creates the seat rows of a schedule's date-specific pool.
type SeatMaterializer interface {
	Materialize(ctx context.Context, scheduleID uint, travelDate string, seatNumbers []string) (int, error)
}

type Service interface {
	SetCacheService(cacheService cache.Service)

	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*Schedule, error)
	GetSchedule(ctx context.Context, id uint) (*Schedule, error)
	ListSchedules(ctx context.Context, page, limit int) (*PaginatedSchedules, error)
	AddOperatingDate(ctx context.Context, scheduleID uint, travelDate string) (*OperatingDateResult, error)
	ListOperatingDates(ctx context.Context, scheduleID uint, from string) ([]string, error)

	// Calendar reads consumed by seat inventory and the booking ledger
	OperatesOn(ctx context.Context, scheduleID uint, travelDate string) (bool, error)
	SeatPool(ctx context.Context, scheduleID uint, travelDate string) ([]string, error)
}

type service struct {
	repo         Repository
	tx           txn.Transactor
	materializer SeatMaterializer
	cacheService cache.Service
	logger       *logger.Logger
}

func NewService(repo Repository, tx txn.Transactor, materializer SeatMaterializer) Service {
	return &service{
		repo:         repo,
		tx:           tx,
		materializer: materializer,
		logger:       logger.GetDefault().WithComponent("schedules"),
	}
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*Schedule, error) {
	perRow := req.SeatsPerRow
	if perRow == 0 {
		perRow = defaultSeatsPerRow
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	schedule := &Schedule{
		RouteCode:     strings.ToUpper(strings.TrimSpace(req.RouteCode)),
		Origin:        strings.TrimSpace(req.Origin),
		Destination:   strings.TrimSpace(req.Destination),
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		SeatCapacity:  req.SeatCapacity,
		SeatsPerRow:   perRow,
		BasePrice:     req.BasePrice,
		IsActive:      active,
	}

	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	s.logger.InfoContext(ctx, "Schedule Created", "schedule_id", schedule.ID, "route_code", schedule.RouteCode)
	return schedule, nil
}

func (s *service) GetSchedule(ctx context.Context, id uint) (*Schedule, error) {
	if s.cacheService == nil {
		return s.repo.GetByID(ctx, id)
	}

	var schedule Schedule
	err := s.cacheService.GetOrSet(ctx, constants.BuildScheduleDetailKey(id), constants.TTL_SCHEDULE_DETAIL,
		func() (interface{}, error) { return s.repo.GetByID(ctx, id) }, &schedule)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (s *service) ListSchedules(ctx context.Context, page, limit int) (*PaginatedSchedules, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	fetch := func() (interface{}, error) {
		schedules, total, err := s.repo.List(ctx, (page-1)*limit, limit)
		if err != nil {
			return nil, err
		}
		return &PaginatedSchedules{
			Schedules:  schedules,
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		}, nil
	}

	if s.cacheService == nil {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		return result.(*PaginatedSchedules), nil
	}

	var result PaginatedSchedules
	if err := s.cacheService.GetOrSet(ctx, constants.BuildSchedulesListKey(page, limit), constants.TTL_SCHEDULES_LIST, fetch, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddOperatingDate registers the date and materializes the seat pool in one transaction.
// Calling it again for the same date only fills in missing seats.
func (s *service) AddOperatingDate(ctx context.Context, scheduleID uint, travelDate string) (*OperatingDateResult, error) {
	date, err := traveldate.Parse(travelDate)
	if err != nil {
		return nil, err
	}

	result := &OperatingDateResult{ScheduleID: scheduleID, TravelDate: date}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		schedule, err := s.repo.GetByID(ctx, scheduleID)
		if err != nil {
			return err
		}
		if !schedule.IsActive {
			return apperrors.ValidationError{Field: "schedule_id", Msg: "schedule is not active"}
		}

		created, err := s.repo.AddDate(ctx, scheduleID, date)
		if err != nil {
			return err
		}
		result.DateCreated = created

		pool := SeatLabels(schedule.SeatCapacity, schedule.SeatsPerRow)
		result.SeatPoolTotal = len(pool)

		seatsCreated, err := s.materializer.Materialize(ctx, scheduleID, date, pool)
		if err != nil {
			return fmt.Errorf("failed to materialize seat pool: %w", err)
		}
		result.SeatsCreated = seatsCreated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Operating Date Registered",
		"schedule_id", scheduleID,
		"travel_date", date,
		"seats_created", result.SeatsCreated,
	)
	return result, nil
}

func (s *service) ListOperatingDates(ctx context.Context, scheduleID uint, from string) ([]string, error) {
	if from != "" {
		normalized, err := traveldate.Parse(from)
		if err != nil {
			return nil, err
		}
		from = normalized
	}
	if _, err := s.repo.GetByID(ctx, scheduleID); err != nil {
		return nil, err
	}
	return s.repo.ListDates(ctx, scheduleID, from)
}

// OperatesOn is true when the schedule is active and the date is on its calendar.
func (s *service) OperatesOn(ctx context.Context, scheduleID uint, travelDate string) (bool, error) {
	schedule, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !schedule.IsActive {
		return false, nil
	}
	return s.repo.HasDate(ctx, scheduleID, travelDate)
}

// SeatPool returns the seat numbers of the schedule on the date, or nil when it does not operate.
func (s *service) SeatPool(ctx context.Context, scheduleID uint, travelDate string) ([]string, error) {
	operates, err := s.OperatesOn(ctx, scheduleID, travelDate)
	if err != nil || !operates {
		return nil, err
	}
	schedule, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	return SeatLabels(schedule.SeatCapacity, schedule.SeatsPerRow), nil
}

func (s *service) invalidateListCache(ctx context.Context) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.DeletePattern(ctx, constants.PATTERN_INVALIDATE_SCHEDULES_LIST); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate schedule list cache", "error", err)
	}
}
