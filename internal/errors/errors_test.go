package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate email", ErrDuplicateEmail, http.StatusConflict, "DUPLICATE_EMAIL"},
		{"duplicate username", ErrDuplicateUsername, http.StatusConflict, "DUPLICATE_USERNAME"},
		{"invalid credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"expired token", ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"not found", ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{"invalid date", ErrInvalidDate, http.StatusBadRequest, "INVALID_DATE"},
		{"invalid role", ErrInvalidRole, http.StatusBadRequest, "INVALID_ROLE"},
		{"invalid range", ErrInvalidAgeRange, http.StatusBadRequest, "INVALID_AGE_RANGE"},
		{"password too long", fmt.Errorf("hash password: %w", ErrInvalidPassword), http.StatusBadRequest, "INVALID_PASSWORD"},
		{"username with at sign", ErrInvalidUsername, http.StatusBadRequest, "INVALID_USERNAME"},
		{"wrapped", fmt.Errorf("update user 7: %w", ErrUserNotFound), http.StatusNotFound, "USER_NOT_FOUND"},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_HidesInternalDetails(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("dial tcp 10.0.0.3:3306: refused"))

	resp := httpErr.ToErrorResponse()
	assert.Equal(t, "internal server error", resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
	assert.Empty(t, resp.Fields)
}
