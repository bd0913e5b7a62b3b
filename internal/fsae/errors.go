package fsae

import "fmt"

// CallErrorKind mirrors internal/engine's taxonomy (spec §7) for the two
// call-error conditions specific to C7.
type CallErrorKind int

const (
	ErrUnknownAccountType CallErrorKind = iota
	ErrUnknownFilingStatus
)

// CallError is C7's fatal call-time error: an unknown account-type-id or
// filing-status-id.
type CallError struct {
	Kind    CallErrorKind
	Message string
}

func (e *CallError) Error() string { return e.Message }

func callError(kind CallErrorKind, format string, args ...interface{}) *CallError {
	return &CallError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
