package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Class groups errors by how callers are expected to react to them.
type Class string

const (
	ClassContention Class = "contention"
	ClassState      Class = "state"
	ClassIntegrity  Class = "integrity"
	ClassNotFound   Class = "not_found"
	ClassValidation Class = "validation"
	ClassInternal   Class = "internal"
)

type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	}
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// SeatUnavailableError reports the first requested seat that could not be reserved.
type SeatUnavailableError struct {
	ScheduleID uint
	TravelDate string
	Seat       string
}

func (e SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat %s is not available on schedule %d for %s", e.Seat, e.ScheduleID, e.TravelDate)
}

// CapacityExceededError means there is no seat inventory for the schedule on that date.
type CapacityExceededError struct {
	ScheduleID uint
	TravelDate string
	Reason     string
}

func (e CapacityExceededError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("no capacity on schedule %d for %s: %s", e.ScheduleID, e.TravelDate, e.Reason)
	}
	return fmt.Sprintf("no capacity on schedule %d for %s", e.ScheduleID, e.TravelDate)
}

// OwnershipMismatchError is an integrity error: the seats are not held by the booking that
// tried to change them.
type OwnershipMismatchError struct {
	ScheduleID uint
	TravelDate string
	BookingID  string
	Seats      []string
	Expected   int
	Affected   int
}

func (e OwnershipMismatchError) Error() string {
	return fmt.Sprintf("booking %s owns %d of %d seats %v on schedule %d for %s",
		e.BookingID, e.Affected, e.Expected, e.Seats, e.ScheduleID, e.TravelDate)
}

type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
}

type InvalidBookingStateError struct {
	BookingID string
	Status    string
}

func (e InvalidBookingStateError) Error() string {
	return fmt.Sprintf("booking %s is %s, payments are only accepted for pending bookings", e.BookingID, e.Status)
}

type AmountMismatchError struct {
	Expected float64
	Got      float64
}

func (e AmountMismatchError) Error() string {
	return fmt.Sprintf("payment amount %.2f does not match booking total %.2f", e.Got, e.Expected)
}

type DuplicatePaymentError struct {
	BookingID         string
	ExistingPaymentID string
	Err               error
}

func (e DuplicatePaymentError) Error() string {
	if e.ExistingPaymentID != "" {
		return fmt.Sprintf("booking %s already has an open payment %s", e.BookingID, e.ExistingPaymentID)
	}
	return fmt.Sprintf("booking %s already has an open payment", e.BookingID)
}

func (e DuplicatePaymentError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsSeatUnavailable(err error) bool {
	var target SeatUnavailableError
	return errors.As(err, &target)
}

func IsCapacityExceeded(err error) bool {
	var target CapacityExceededError
	return errors.As(err, &target)
}

func IsOwnershipMismatch(err error) bool {
	var target OwnershipMismatchError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target InvalidTransitionError
	return errors.As(err, &target)
}

func IsInvalidBookingState(err error) bool {
	var target InvalidBookingStateError
	return errors.As(err, &target)
}

func IsAmountMismatch(err error) bool {
	var target AmountMismatchError
	return errors.As(err, &target)
}

func IsDuplicatePayment(err error) bool {
	var target DuplicatePaymentError
	return errors.As(err, &target)
}

// ClassOf reports the class of err. Unknown errors are internal.
func ClassOf(err error) Class {
	switch {
	case err == nil:
		return ""
	case IsSeatUnavailable(err), IsDuplicatePayment(err):
		return ClassContention
	case IsInvalidTransition(err), IsInvalidBookingState(err), IsAmountMismatch(err), IsCapacityExceeded(err):
		return ClassState
	case IsOwnershipMismatch(err):
		return ClassIntegrity
	case IsNotFound(err):
		return ClassNotFound
	case IsValidation(err):
		return ClassValidation
	}
	return ClassInternal
}

// Code is the machine readable name rendered in API error bodies.
func Code(err error) string {
	switch {
	case IsSeatUnavailable(err):
		return "SEAT_UNAVAILABLE"
	case IsCapacityExceeded(err):
		return "CAPACITY_EXCEEDED"
	case IsOwnershipMismatch(err):
		return "OWNERSHIP_MISMATCH"
	case IsInvalidTransition(err):
		return "INVALID_TRANSITION"
	case IsInvalidBookingState(err):
		return "INVALID_BOOKING_STATE"
	case IsAmountMismatch(err):
		return "AMOUNT_MISMATCH"
	case IsDuplicatePayment(err):
		return "DUPLICATE_PAYMENT"
	case IsNotFound(err):
		return "NOT_FOUND"
	case IsValidation(err):
		return "VALIDATION_FAILED"
	}
	return "INTERNAL"
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case IsAmountMismatch(err), IsCapacityExceeded(err):
		return http.StatusUnprocessableEntity
	}
	switch ClassOf(err) {
	case ClassContention, ClassState:
		return http.StatusConflict
	case ClassNotFound:
		return http.StatusNotFound
	case ClassValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
