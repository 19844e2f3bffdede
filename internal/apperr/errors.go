// Package apperr defines the application error envelope returned by
// every handler, mapped to JSON by the central fiber error handler.
package apperr

import "fmt"

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

func New(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

// Unauthorized: no or invalid credential.
func Unauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

// Forbidden: coarse role-level denial, evaluated before any
// field-level checks.
func Forbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: 403, Message: msg}
}

// FieldForbidden: a mutation touched fields the actor lacks a grant
// for. The whole mutation is rejected; only fields that were present
// in the payload are named, so the response does not enumerate the
// rest of the schema.
func FieldForbidden(fields []string) *AppError {
	details := make([]ErrorDetail, 0, len(fields))
	for _, f := range fields {
		details = append(details, ErrorDetail{
			Field:   f,
			Rule:    "permission",
			Message: "Not permitted on this field",
		})
	}
	return &AppError{
		Code:    "FIELD_FORBIDDEN",
		Status:  403,
		Message: "Mutation touches fields you are not permitted to change",
		Details: details,
	}
}

// InvalidEnum: a field or action value outside the closed
// enumerations, rejected at the transport boundary.
func InvalidEnum(msg string) *AppError {
	return &AppError{Code: "INVALID_ENUM_VALUE", Status: 422, Message: msg}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
	}
}

func Validation(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: "Validation failed",
		Details: details,
	}
}

func Conflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Status: 409, Message: msg}
}

func Internal(msg string) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Status: 500, Message: msg}
}
