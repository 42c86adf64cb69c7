// Package money compares and rounds amounts in whole cents.
package money

import "math"

// Max is the largest amount a decimal(12,2) column holds.
const Max = 9999999999.99

// Valid reports whether amount is a finite, non-negative value that fits the
// amount columns. Cents is only exact for valid amounts.
func Valid(amount float64) bool {
	return !math.IsNaN(amount) && amount >= 0 && amount <= Max
}

// Cents converts an amount to integer cents, rounding half away from zero.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Round drops anything below a cent.
func Round(amount float64) float64 {
	return float64(Cents(amount)) / 100
}

// Equal reports whether two amounts are the same number of cents.
func Equal(a, b float64) bool {
	return Cents(a) == Cents(b)
}
