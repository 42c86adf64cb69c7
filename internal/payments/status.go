package payments

// Status represents the lifecycle state of a payment attempt
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
	StatusRefunded Status = "refunded"
)

var allowedSources = map[Status][]Status{
	StatusVerified: {StatusPending},
	StatusRejected: {StatusPending},
	StatusRefunded: {StatusVerified},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected, StatusRefunded:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, source := range allowedSources[target] {
		if source == s {
			return true
		}
	}
	return false
}

// IsOpen is true for payments that block another submission for the same booking
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusVerified
}

func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusRefunded
}

func SourcesFor(target Status) []Status {
	return allowedSources[target]
}

// Method is how the customer paid
type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodCard         Method = "card"
	MethodEWallet      Method = "e_wallet"
	MethodCash         Method = "cash"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodBankTransfer, MethodCard, MethodEWallet, MethodCash:
		return true
	}
	return false
}

// Outcome is an administrator's decision on a pending payment
type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	OutcomeRejected Outcome = "rejected"
)

func (o Outcome) IsValid() bool {
	return o == OutcomeVerified || o == OutcomeRejected
}

// Target is the payment status the outcome leads to
func (o Outcome) Target() Status {
	if o == OutcomeVerified {
		return StatusVerified
	}
	return StatusRejected
}
