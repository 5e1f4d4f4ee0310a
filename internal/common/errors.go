// Package common provides shared utilities used across all features
package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hxuan190/block-etf/internal/domain"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorForbidden(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    messageOrDefault(msg, "Forbidden"),
	}
}

func HTTPErrorResourceConflict(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusConflict,
		Code:       "RESOURCE_CONFLICT",
		Message:    messageOrDefault(msg, "Resource conflict"),
	}
}

func HTTPErrorUnprocessable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "UNPROCESSABLE_ENTITY",
		Message:    messageOrDefault(msg, "Unprocessable entity"),
	}
}

// HTTPErrorFromDomain maps a fund or router failure onto the HTTP error it is reported as.
// Codes are refined per sentinel so clients can branch without parsing messages.
func HTTPErrorFromDomain(err error) *HttpError {
	var httpErr *HttpError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, domain.ErrUnauthorized):
		return withCode(HTTPErrorForbidden(err.Error()), "UNAUTHORIZED_CALLER")
	case errors.Is(err, domain.ErrPaused):
		return withCode(HTTPErrorResourceConflict(err.Error()), "PAUSED")
	case errors.Is(err, domain.ErrReentrantCall):
		return withCode(HTTPErrorResourceConflict(err.Error()), "REENTRANT_CALL")
	case errors.Is(err, domain.ErrSlippageExceeded):
		return withCode(HTTPErrorResourceConflict(err.Error()), "SLIPPAGE_EXCEEDED")
	case errors.Is(err, domain.ErrDeadlineExceeded):
		return withCode(HTTPErrorUnprocessable(err.Error()), "DEADLINE_EXCEEDED")
	case errors.Is(err, domain.ErrSwapFailed):
		return withCode(HTTPErrorUnprocessable(err.Error()), "SWAP_FAILED")
	case errors.Is(err, domain.ErrTransferFailed):
		return withCode(HTTPErrorUnprocessable(err.Error()), "TRANSFER_FAILED")
	case errors.Is(err, domain.ErrInsufficientBalance):
		return withCode(HTTPErrorUnprocessable(err.Error()), "INSUFFICIENT_BALANCE")
	case errors.Is(err, domain.ErrNAVUnavailable):
		return withCode(HTTPErrorUnprocessable(err.Error()), "NAV_UNAVAILABLE")
	case errors.Is(err, domain.ErrInvalidParameter):
		return withCode(HTTPErrorBadRequest(err.Error()), "INVALID_PARAMETER")
	default:
		return HTTPErrorInternalError(err.Error())
	}
}

func withCode(e *HttpError, code string) *HttpError {
	e.Code = code
	return e
}
