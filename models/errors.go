// ABOUTME: Coded planner errors separating request failures from per-offering skips
// ABOUTME: Supports errors.Is against ErrInvalidInput and ErrInvalidCatalogEntry

package models

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeInvalidCatalogEntry  = "INVALID_CATALOG_ENTRY"
	ErrCodeInsufficientCapacity = "INSUFFICIENT_CAPACITY"
	ErrCodeInsufficientMemory   = "INSUFFICIENT_MEMORY"
)

// Sentinels for errors.Is checks
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCatalogEntry = errors.New("invalid catalog entry")
)

// PlannerError is a structured error carrying a machine-readable code.
// Recoverable errors affect a single offering; the ranking call continues.
type PlannerError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Field       string `json:"field,omitempty"`
	OfferingID  string `json:"offering_id,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

func (e *PlannerError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	case e.OfferingID != "":
		return fmt.Sprintf("%s: %s (offering: %s)", e.Code, e.Message, e.OfferingID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Is matches the package sentinels by code
func (e *PlannerError) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Code == ErrCodeInvalidInput
	case ErrInvalidCatalogEntry:
		return e.Code == ErrCodeInvalidCatalogEntry
	}
	return false
}

// DiagnosticCode maps an exclusion status to its error code. Statuses that
// are not errors (over budget, unknown provider, model unavailable) map to "".
func DiagnosticCode(status string) string {
	switch status {
	case StatusInsufficient:
		return ErrCodeInsufficientMemory
	case StatusInsufficientCapacity:
		return ErrCodeInsufficientCapacity
	case StatusInvalidCatalogEntry:
		return ErrCodeInvalidCatalogEntry
	}
	return ""
}

// NewInvalidInputError reports a malformed request field
func NewInvalidInputError(field, message string) *PlannerError {
	return &PlannerError{
		Code:    ErrCodeInvalidInput,
		Message: message,
		Field:   field,
	}
}

// NewInvalidCatalogEntryError reports an offering with unusable pricing
func NewInvalidCatalogEntryError(offeringID, message string) *PlannerError {
	return &PlannerError{
		Code:        ErrCodeInvalidCatalogEntry,
		Message:     message,
		OfferingID:  offeringID,
		Recoverable: true,
	}
}
