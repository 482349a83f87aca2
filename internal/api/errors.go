package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/npezzotti/go-classroom/internal/command"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func newApiError(statusCode int, err error) *ApiError {
	return &ApiError{
		StatusCode: statusCode,
		Message:    strings.ToLower(http.StatusText(statusCode)),
		Err:        err,
	}
}

func NewBadRequestError() *ApiError {
	return newApiError(http.StatusBadRequest, nil)
}

func NewNotFoundError() *ApiError {
	return newApiError(http.StatusNotFound, nil)
}

func NewInternalServerError(err error) *ApiError {
	return newApiError(http.StatusInternalServerError, err)
}

func NewUnauthorizedError() *ApiError {
	return newApiError(http.StatusUnauthorized, nil)
}

func NewForbiddenError() *ApiError {
	return newApiError(http.StatusForbidden, nil)
}

func NewConflictError() *ApiError {
	return newApiError(http.StatusConflict, nil)
}

// ErrorFor maps a command error onto the response sent to the caller.
func ErrorFor(err error) *ApiError {
	switch {
	case errors.Is(err, command.ErrNotFound):
		return NewNotFoundError()
	case errors.Is(err, command.ErrForbidden):
		return NewForbiddenError()
	case errors.Is(err, command.ErrConflict):
		return NewConflictError()
	case errors.Is(err, command.ErrValidation):
		apiErr := NewBadRequestError()
		apiErr.Message = err.Error()
		return apiErr
	default:
		return NewInternalServerError(err)
	}
}
