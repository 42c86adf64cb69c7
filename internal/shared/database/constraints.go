package database

import (
	"fmt"

	"gorm.io/gorm"
)

// checkConstraints pin the status columns to their state machines on PostgreSQL
var checkConstraints = []struct {
	table, name, expr string
}{
	{"seats", "chk_seats_status", "status IN ('available', 'reserved', 'booked')"},
	{"seats", "chk_seats_owner", "(status = 'available') = (booking_id IS NULL)"},
	{"bookings", "chk_bookings_status", "status IN ('pending', 'confirmed', 'cancelled', 'completed')"},
	{"bookings", "chk_bookings_amount", "total_amount >= 0"},
	{"payments", "chk_payments_status", "status IN ('pending', 'verified', 'rejected', 'refunded')"},
	{"payments", "chk_payments_amount", "amount >= 0"},
}

// MigrateConstraints adds the CHECK constraints that SQLite cannot add after the fact
func MigrateConstraints(db *gorm.DB) error {
	for _, c := range checkConstraints {
		// ADD CONSTRAINT has no IF NOT EXISTS form, so guard through the catalog
		stmt := fmt.Sprintf(`
			DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
				END IF;
			END $$;`, c.name, c.table, c.name, c.expr)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}

	// Seat availability and sweep queries filter by status within a trip
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_seats_trip_status
		ON seats (schedule_id, travel_date, status);
	`).Error
	if err != nil {
		return fmt.Errorf("failed to add idx_seats_trip_status: %w", err)
	}

	return nil
}
