// Package types holds the shared value types of the lock manager: lock
// modes, job descriptions, and the error kinds a request can fail with.
package types

import "fmt"

// LockMode is the two-valued access tag a row can be granted under. It is
// a sum type rather than a bool so a mode can never be mis-stringified.
type LockMode uint8

const (
	Shared LockMode = iota
	Exclusive
)

func (m LockMode) String() string {
	switch m {
	case Shared:
		return "S"
	case Exclusive:
		return "X"
	default:
		return "?"
	}
}

// Phase is the two-phase-locking phase of a transaction.
type Phase uint8

const (
	Growing Phase = iota
	Shrinking
)

func (p Phase) String() string {
	switch p {
	case Growing:
		return "growing"
	case Shrinking:
		return "shrinking"
	default:
		return "?"
	}
}

// JobKind tags the unit of work carried on a worker's queue.
type JobKind uint8

const (
	JobRegister JobKind = iota
	JobShared
	JobExclusive
	JobUnlock
	JobQuit
)

func (k JobKind) String() string {
	switch k {
	case JobRegister:
		return "register"
	case JobShared:
		return "shared"
	case JobExclusive:
		return "exclusive"
	case JobUnlock:
		return "unlock"
	case JobQuit:
		return "quit"
	default:
		return "?"
	}
}

// ErrorKind classifies a request failure the way §7 of the design does.
// The RPC surface collapses all of these to Cancelled; the in-process API
// keeps them distinct so tests and logs can tell them apart.
type ErrorKind uint8

const (
	ErrNone ErrorKind = iota
	ErrNotRegistered
	ErrAlreadyRegistered
	ErrInvalidID
	ErrPhaseViolation
	ErrBudgetExhausted
	ErrLockConflict
	ErrDuplicateGrant
	ErrIntegrityViolation
	ErrKeyMaterialError
	ErrSignatureInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrNotRegistered:
		return "not_registered"
	case ErrAlreadyRegistered:
		return "already_registered"
	case ErrInvalidID:
		return "invalid_id"
	case ErrPhaseViolation:
		return "phase_violation"
	case ErrBudgetExhausted:
		return "budget_exhausted"
	case ErrLockConflict:
		return "lock_conflict"
	case ErrDuplicateGrant:
		return "duplicate_grant"
	case ErrIntegrityViolation:
		return "integrity_violation"
	case ErrKeyMaterialError:
		return "key_material_error"
	case ErrSignatureInvalid:
		return "signature_invalid"
	default:
		return "unknown"
	}
}

// RequestError is the (error, error_info) pair of §7: a classified kind
// plus a human-readable detail. Callers compare against Kind, not the
// formatted string.
type RequestError struct {
	Kind   ErrorKind
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// NewError builds a RequestError, formatting Detail like fmt.Errorf.
func NewError(kind ErrorKind, format string, args ...interface{}) *RequestError {
	return &RequestError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or ErrNone if err is nil or not
// a *RequestError.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrNone
	}
	if re, ok := err.(*RequestError); ok {
		return re.Kind
	}
	return ErrNone
}
