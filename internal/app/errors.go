package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// validationError rejects a request before any side effect.
func validationError(message string) *DomainError {
	return domainError(http.StatusBadRequest, "VALIDATION", message, nil)
}

// duplicateError rejects a uniqueness violation before any side effect.
func duplicateError(message string, details any) *DomainError {
	return domainError(http.StatusConflict, "DUPLICATE", message, details)
}

func notFoundError(message string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message, nil)
}

// externalServiceError wraps a failed folder or board call. No automatic
// retry happens anywhere; the caller re-invokes the idempotent operation.
func externalServiceError(message string, details any) *DomainError {
	return domainError(http.StatusBadGateway, "EXTERNAL_SERVICE", message, details)
}
