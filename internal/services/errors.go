package services

import (
	"errors"
	"fmt"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/validator"
)

// Kind classifies service errors for callers that map them to transport statuses.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// DomainError is a sentinel error carrying its kind
type DomainError struct {
	Kind    Kind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func newDomainError(kind Kind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// ===== SENTINEL ERRORS =====

var (
	// Session errors
	ErrSessionNotFound        = newDomainError(KindNotFound, "session not found")
	ErrActiveSessionExists    = newDomainError(KindConflict, "student already has an active session")
	ErrSessionCompleted       = newDomainError(KindConflict, "session is already completed")
	ErrSessionExpired         = newDomainError(KindConflict, "session time limit has passed")
	ErrAttemptsLimitReached   = newDomainError(KindForbidden, "attempts limit reached")
	ErrTestNotFound           = newDomainError(KindNotFound, "test not found")
	ErrQuestionNotFound       = newDomainError(KindNotFound, "question not found")
	ErrQuestionNotInSession   = newDomainError(KindValidation, "question does not belong to the session's test")
	ErrUnsupportedAnswerShape = newDomainError(KindValidation, "answer does not match the question type")
)

// ValidationError describes one invalid field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed on field '%s': %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// PermissionError reports a caller acting on a resource they do not own
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ErrorKind classifies err. Unrecognized errors are internal.
func ErrorKind(err error) Kind {
	if err == nil {
		return KindInternal
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}

	var requestErrs validator.ValidationErrors
	if errors.As(err, &requestErrs) {
		return KindValidation
	}

	var permissionErr *PermissionError
	if errors.As(err, &permissionErr) {
		return KindForbidden
	}

	return KindInternal
}
