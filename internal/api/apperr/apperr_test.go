package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusBadRequest},
		{CodeCredentialsRequired, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{Code("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("No list item was found with the id of %s", "abc")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))

	wrapped := fmt.Errorf("loading item: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))

	var target *Error
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "No list item was found with the id of abc", target.Message)
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Conflict("username taken").WithCause(cause)

	assert.Equal(t, "username taken: disk on fire", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCredentialsRequired(t *testing.T) {
	err := CredentialsRequired()

	assert.Equal(t, CodeCredentialsRequired, err.Code)
	assert.Equal(t, "No authorization token was found", err.Message)
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus())
}
