package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid           ErrorCode = "invalid"
	ErrorForbidden         ErrorCode = "forbidden"
	ErrorNotFound          ErrorCode = "not_found"
	ErrorConflict          ErrorCode = "conflict"
	ErrorUnauthorized      ErrorCode = "unauthorized"
	ErrorExpired           ErrorCode = "expired"
	ErrorQuotaExceeded     ErrorCode = "quota_exceeded"
	ErrorInactive          ErrorCode = "inactive"
	ErrorIllegalTransition ErrorCode = "illegal_transition"
	ErrorValidation        ErrorCode = "validation"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
	// QuestionIDs is set for validation errors only.
	QuestionIDs []string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewExpiredError(msg string) error { return &ServiceError{Code: ErrorExpired, Message: msg} }
func NewQuotaExceededError(msg string) error {
	return &ServiceError{Code: ErrorQuotaExceeded, Message: msg}
}
func NewInactiveError(msg string) error { return &ServiceError{Code: ErrorInactive, Message: msg} }

func NewIllegalTransitionError(msg string) error {
	return &ServiceError{Code: ErrorIllegalTransition, Message: msg}
}

func NewValidationError(msg string, questionIDs []string) error {
	return &ServiceError{Code: ErrorValidation, Message: msg, QuestionIDs: questionIDs}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasCode reports whether err is a ServiceError carrying code.
func HasCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}
