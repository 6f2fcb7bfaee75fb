package usecase

import "errors"

// DomainError is a rule violation the operator can act on.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var target *DomainError
	return errors.As(err, &target)
}

// TechnicalError covers transport failures, non-2xx statuses and malformed bodies.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var target *TechnicalError
	return errors.As(err, &target)
}

// UpstreamError carries a structured error returned by the store or the
// inference provider. Message is passed through verbatim.
type UpstreamError struct {
	Service string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func IsUpstreamError(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

var (
	ErrClassificationInFlight = &DomainError{Code: "CLASSIFICATION_IN_FLIGHT", Message: "an analysis is already running"}
	ErrNotAuthenticated       = &DomainError{Code: "NOT_AUTHENTICATED", Message: "sign in to continue"}
	ErrWorkspaceClosed        = &DomainError{Code: "WORKSPACE_CLOSED", Message: "the session changed before the operation finished"}
)
