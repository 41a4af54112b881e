package rwa

import "errors"

// Kind classifies a hard abort.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotInitialized
	KindAlreadyInitialized
	KindNotFound
	KindInvalidArgument
	KindInvalidState
	KindComplianceViolation
	KindNotRegistered
	KindCapacityExceeded
	KindInsufficientBalance
	KindLocked
	KindAlreadyClaimed
	KindNotEligible
	KindNothingToClaim
)

var (
	ErrUnauthorized        = errors.New("rwa: unauthorized")
	ErrNotInitialized      = errors.New("rwa: not initialized")
	ErrAlreadyInitialized  = errors.New("rwa: already initialized")
	ErrNotFound            = errors.New("rwa: not found")
	ErrInvalidArgument     = errors.New("rwa: invalid argument")
	ErrInvalidState        = errors.New("rwa: invalid state")
	ErrComplianceViolation = errors.New("rwa: compliance violation")
	ErrNotRegistered       = errors.New("rwa: investor not registered")
	ErrCapacityExceeded    = errors.New("rwa: capacity exceeded")
	ErrInsufficientBalance = errors.New("rwa: insufficient balance")
	ErrLocked              = errors.New("rwa: holding locked")
	ErrAlreadyClaimed      = errors.New("rwa: already claimed")
	ErrNotEligible         = errors.New("rwa: not eligible")
	ErrNothingToClaim      = errors.New("rwa: nothing to claim")

	errNilState = errors.New("rwa engine: state not configured")
)

var kindSentinels = []struct {
	kind Kind
	err  error
}{
	{KindUnauthorized, ErrUnauthorized},
	{KindNotInitialized, ErrNotInitialized},
	{KindAlreadyInitialized, ErrAlreadyInitialized},
	{KindNotFound, ErrNotFound},
	{KindInvalidArgument, ErrInvalidArgument},
	{KindInvalidState, ErrInvalidState},
	{KindComplianceViolation, ErrComplianceViolation},
	{KindNotRegistered, ErrNotRegistered},
	{KindCapacityExceeded, ErrCapacityExceeded},
	{KindInsufficientBalance, ErrInsufficientBalance},
	{KindLocked, ErrLocked},
	{KindAlreadyClaimed, ErrAlreadyClaimed},
	{KindNotEligible, ErrNotEligible},
	{KindNothingToClaim, ErrNothingToClaim},
}

// KindOf returns the abort kind carried by err, or KindUnknown when err does
// not wrap one of the package sentinels.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, entry := range kindSentinels {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotInitialized:
		return "not_initialized"
	case KindAlreadyInitialized:
		return "already_initialized"
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidState:
		return "invalid_state"
	case KindComplianceViolation:
		return "compliance_violation"
	case KindNotRegistered:
		return "not_registered"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindLocked:
		return "locked"
	case KindAlreadyClaimed:
		return "already_claimed"
	case KindNotEligible:
		return "not_eligible"
	case KindNothingToClaim:
		return "nothing_to_claim"
	default:
		return "unknown"
	}
}
