package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// Pattern: busline:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

// Semi-Static Data (changes occasionally)
const (
	TTL_SEMI_STATIC_SHORT = 1 * time.Hour    // 1 hour - for schedule listings
	TTL_SEMI_STATIC_QUICK = 15 * time.Minute // 15 minutes - for schedule details
)

// Highly Dynamic (real-time sensitive)
const (
	TTL_REALTIME_SHORT = 30 * time.Second // 30 seconds - for seat maps
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "busline"
)

// ================== SCHEDULES MODULE ==================

const (
	CACHE_KEY_SCHEDULE_DETAIL = CACHE_PREFIX + ":schedules:detail:id:" // + schedule-id
	CACHE_KEY_SCHEDULES_LIST  = CACHE_PREFIX + ":schedules:list"       // + :page:X:limit:Y
)

const (
	TTL_SCHEDULE_DETAIL = TTL_SEMI_STATIC_QUICK
	TTL_SCHEDULES_LIST  = TTL_SEMI_STATIC_SHORT
)

// ================== SEATS MODULE ==================

// Seat map per schedule and travel date. Availability counts are never cached.
const (
	CACHE_KEY_SEAT_MAP = CACHE_PREFIX + ":seats:map:schedule:" // + schedule-id:date:travel-date
)

const (
	TTL_SEAT_MAP = TTL_REALTIME_SHORT
)

// ================== CACHE INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_SCHEDULES_LIST = CACHE_PREFIX + ":schedules:list*"
)

// ================== HELPER FUNCTIONS ==================

func BuildScheduleDetailKey(scheduleID uint) string {
	return CACHE_KEY_SCHEDULE_DETAIL + fmt.Sprintf("%d", scheduleID)
}

func BuildSchedulesListKey(page, limit int) string {
	return CACHE_KEY_SCHEDULES_LIST + ":page:" + fmt.Sprintf("%d", page) + ":limit:" + fmt.Sprintf("%d", limit)
}

func BuildSeatMapKey(scheduleID uint, travelDate string) string {
	return CACHE_KEY_SEAT_MAP + fmt.Sprintf("%d", scheduleID) + ":date:" + travelDate
}
