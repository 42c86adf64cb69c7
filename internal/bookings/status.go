package bookings

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// allowedSources lists, per target status, the statuses a booking may move from.
// Nothing leads back to pending.
var allowedSources = map[Status][]Status{
	StatusConfirmed: {StatusPending},
	StatusCancelled: {StatusPending, StatusConfirmed},
	StatusCompleted: {StatusConfirmed},
}

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether the state machine has an edge from s to target
func (s Status) CanTransitionTo(target Status) bool {
	for _, source := range allowedSources[target] {
		if source == s {
			return true
		}
	}
	return false
}

// IsTerminal is true for cancelled and completed bookings
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// IsActive is true while the booking can still change seat state
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// SourcesFor returns the statuses that may transition into target
func SourcesFor(target Status) []Status {
	return allowedSources[target]
}
