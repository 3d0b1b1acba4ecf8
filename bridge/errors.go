package bridge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBusy is returned when an attach or submit is already in flight
	// for the same half of the binding.
	ErrBusy = errors.New("operation already in progress")

	// ErrNoAccounts is returned when a destination wallet returns an
	// empty account list.
	ErrNoAccounts = errors.New("wallet returned no accounts")

	// ErrNotRestorable is returned when there is no persisted session.
	ErrNotRestorable = errors.New("no persisted session")
)

// Kind classifies a failure for presentation.
type Kind uint8

const (
	// KindUserInputInvalid covers address format and amount issues. It is
	// shown as inline guidance.
	KindUserInputInvalid Kind = iota + 1

	// KindPreconditionUnmet covers a missing session or a closed window.
	KindPreconditionUnmet

	// KindExternalProviderFailure covers wallet and query failures.
	KindExternalProviderFailure

	// KindSubmissionFailure covers chain-side rejection of an action.
	KindSubmissionFailure
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUserInputInvalid:
		return "UserInputInvalid"
	case KindPreconditionUnmet:
		return "PreconditionUnmet"
	case KindExternalProviderFailure:
		return "ExternalProviderFailure"
	case KindSubmissionFailure:
		return "SubmissionFailure"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Reason is a single cause for rejecting a transfer before submission.
type Reason uint8

const (
	ReasonNoSource Reason = iota + 1
	ReasonInvalidDestination
	ReasonBelowMinimum
	ReasonWindowClosed
)

// String returns the user facing text of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNoSource:
		return "no source session"
	case ReasonInvalidDestination:
		return "no/invalid destination address"
	case ReasonBelowMinimum:
		return "below minimum"
	case ReasonWindowClosed:
		return "window closed"
	default:
		return fmt.Sprintf("Reason(%d)", uint8(r))
	}
}

// Kind returns the taxonomy class of the reason.
func (r Reason) Kind() Kind {
	switch r {
	case ReasonInvalidDestination, ReasonBelowMinimum:
		return KindUserInputInvalid
	default:
		return KindPreconditionUnmet
	}
}

// RejectionError lists every reason a transfer is currently invalid.
type RejectionError struct {
	Reasons []Reason
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	msgs := make([]string, 0, len(e.Reasons))
	for _, r := range e.Reasons {
		msgs = append(msgs, r.String())
	}
	return "transfer rejected: " + strings.Join(msgs, "; ")
}

// Has reports whether the rejection contains the reason.
func (e *RejectionError) Has(r Reason) bool {
	for _, have := range e.Reasons {
		if have == r {
			return true
		}
	}
	return false
}

// ProviderError wraps a failure of an external wallet or query provider.
type ProviderError struct {
	// Provider names the failing collaborator, e.g. "source wallet".
	Provider string

	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// SubmissionError wraps a chain rejection of a submitted action. The
// message of the underlying error is kept verbatim.
type SubmissionError struct {
	Err error
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// KindOf classifies err. It returns zero for errors outside the taxonomy.
func KindOf(err error) Kind {
	var (
		rejErr  *RejectionError
		provErr *ProviderError
		subErr  *SubmissionError
	)
	switch {
	case errors.As(err, &rejErr):
		// Any unmet precondition blocks, otherwise the rejection is
		// shown as guidance.
		for _, r := range rejErr.Reasons {
			if r.Kind() == KindPreconditionUnmet {
				return KindPreconditionUnmet
			}
		}
		return KindUserInputInvalid
	case errors.As(err, &provErr):
		return KindExternalProviderFailure
	case errors.As(err, &subErr):
		return KindSubmissionFailure
	}
	return 0
}
