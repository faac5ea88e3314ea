// Package chanerr defines the error taxonomy shared by the channel state
// machine and the UTXO subsystems. Every rejection a caller can observe is
// one of these kinds; nothing inside channel, merkle, utxo, store, or cache
// ever panics on a validation or storage failure.
package chanerr

import "fmt"

// Kind is the taxonomy of rejections a caller can observe. It intentionally
// mirrors the precedence order validation checks run in, not an arbitrary
// grouping, so callers that switch on Kind get reproducible behavior.
type Kind int

const (
	// KindUnknown is the zero value and never returned by this module.
	KindUnknown Kind = iota

	// Structural
	KindInvalidSequence
	KindUnknownParticipant
	KindNonZeroBalanceChange
	KindInvalidSignatureCount
	KindMalformed // structural preconditions outside the validator (channel open, config); see DESIGN.md

	// Economic
	KindInsufficientFunds

	// Cryptographic
	KindInvalidSignature

	// Storage / serialization
	KindUtxoNotFound
	KindStorageError
	KindSerializationError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidSequence:
		return "invalid_sequence"
	case KindUnknownParticipant:
		return "unknown_participant"
	case KindNonZeroBalanceChange:
		return "non_zero_balance_change"
	case KindInvalidSignatureCount:
		return "invalid_signature_count"
	case KindMalformed:
		return "malformed"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindUtxoNotFound:
		return "utxo_not_found"
	case KindStorageError:
		return "storage_error"
	case KindSerializationError:
		return "serialization_error"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by the channel validator, the
// channel state machine, the UTXO store, and the UTXO cache. It carries the
// taxonomy Kind plus, for storage-layer failures, the backend cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*Error)
	return ok && ce.Kind == kind
}
