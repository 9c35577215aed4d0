package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies failures surfaced by booking, tools and collaborators.
type ErrorKind string

const (
	KindValidation      ErrorKind = "ValidationError"
	KindNotFound        ErrorKind = "NotFound"
	KindSlotUnavailable ErrorKind = "SlotUnavailable"
	KindExpired         ErrorKind = "Expired"
	KindInvalidToken    ErrorKind = "InvalidToken"
	KindUnknownTool     ErrorKind = "UnknownTool"
	KindTransport       ErrorKind = "TransportError"
	KindInternal        ErrorKind = "InternalError"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	// Details carries every violation for validation failures.
	Details []string
	Err     error
}

func (e *AppError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(kind ErrorKind, msg string) error {
	return &AppError{Kind: kind, Message: msg}
}

func NewValidationError(msg string, details []string) error {
	return &AppError{Kind: KindValidation, Message: msg, Details: details}
}

// NewTransportError wraps a failed collaborator call.
func NewTransportError(msg string, err error) error {
	return &AppError{Kind: KindTransport, Message: msg, Err: err}
}

// KindOf reports the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound, KindInvalidToken, KindUnknownTool:
		return http.StatusNotFound
	case KindSlotUnavailable:
		return http.StatusConflict
	case KindExpired:
		return http.StatusGone
	case KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
