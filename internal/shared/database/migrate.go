package database

import (
	"busline/internal/bookings"
	"busline/internal/payments"
	"busline/internal/reconciliation"
	"busline/internal/schedules"
	"busline/internal/seats"

	"gorm.io/gorm"
)

// Migrate creates every table the service owns
func Migrate(db *gorm.DB) error {
	for _, migrate := range []func(*gorm.DB) error{
		schedules.Migrate,
		seats.Migrate,
		bookings.Migrate,
		payments.Migrate,
		reconciliation.Migrate,
	} {
		if err := migrate(db); err != nil {
			return err
		}
	}
	return nil
}
