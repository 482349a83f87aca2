package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/npezzotti/go-classroom/internal/command"
	"github.com/stretchr/testify/assert"
)

func TestErrorFor(t *testing.T) {
	tcases := []struct {
		err          error
		expectedCode int
	}{
		{err: fmt.Errorf("comment %q: %w", "c1", command.ErrNotFound), expectedCode: http.StatusNotFound},
		{err: fmt.Errorf("patch comment: %w", command.ErrForbidden), expectedCode: http.StatusForbidden},
		{err: fmt.Errorf("no changes: %w", command.ErrValidation), expectedCode: http.StatusBadRequest},
		{err: fmt.Errorf("settings %q: %w", "R", command.ErrConflict), expectedCode: http.StatusConflict},
		{err: errors.New("db down"), expectedCode: http.StatusInternalServerError},
	}

	for _, tc := range tcases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			apiErr := ErrorFor(tc.err)
			assert.Equal(t, tc.expectedCode, apiErr.StatusCode)
		})
	}
}

func TestApiError(t *testing.T) {
	inner := errors.New("boom")
	apiErr := NewInternalServerError(inner)

	assert.Equal(t, "internal server error: boom", apiErr.Error())
	assert.ErrorIs(t, apiErr, inner)
	assert.Equal(t, "not found", NewNotFoundError().Error())
}
