// Package traveldate normalizes the calendar dates seats and bookings are keyed by.
package traveldate

import (
	"strings"
	"time"

	"busline/internal/shared/apperrors"
)

// Layout is the only accepted and stored form of a travel date.
const Layout = "2006-01-02"

// Parse validates s and returns it in canonical form.
func Parse(s string) (string, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return "", apperrors.ValidationError{Field: "travel_date", Msg: "must be formatted as YYYY-MM-DD", Err: err}
	}
	return t.Format(Layout), nil
}

// Format renders t as a travel date in UTC.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}
