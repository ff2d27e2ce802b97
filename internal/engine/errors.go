package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"autobridge/internal/metadata"
	"autobridge/internal/store"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(entity *metadata.Entity) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s not found", inflect.Capitalize(entity.Name)),
	}
}

func ValidationError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  400,
		Message: "Validation failed",
		Details: details,
	}
}

// TranslateStoreError is the only place that inspects persistence-layer
// errors. Handlers pass every store failure through here, so no raw driver
// error text ever reaches a response body.
func TranslateStoreError(entity *metadata.Entity, err error) *AppError {
	var ue *store.UniqueError
	if errors.As(err, &ue) {
		return conflictError(entity, ue)
	}

	if errors.Is(err, store.ErrNotFound) {
		return NotFoundError(entity)
	}

	// Integrity failures and anything unclassified get the same
	// deliberately generic message.
	return &AppError{
		Code:    "STORAGE_ERROR",
		Status:  400,
		Message: "Unable to process request. Please check your input.",
	}
}

func conflictError(entity *metadata.Entity, ue *store.UniqueError) *AppError {
	if ue.Field == "" {
		return &AppError{
			Code:    "CONFLICT",
			Status:  409,
			Message: fmt.Sprintf("A %s with this information already exists. Please check your input.", entity.Name),
		}
	}
	words := humanizeField(ue.Field)
	return &AppError{
		Code:    "CONFLICT",
		Status:  409,
		Message: fmt.Sprintf("%s already exists. Please use a different %s.", inflect.Capitalize(words), words),
	}
}

// humanizeField turns "employee_id" into "employee id".
func humanizeField(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
