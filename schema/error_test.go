package schema

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHTTPError(t *testing.T) {
	var testCases = []struct {
		description   string
		status        int
		body          string
		expectKind    ErrorKind
		expectMessage string
	}{
		{
			description:   "string detail",
			status:        http.StatusBadRequest,
			body:          `{"detail":"The user with this email already exists in the system."}`,
			expectKind:    KindRequest,
			expectMessage: "The user with this email already exists in the system.",
		},
		{
			description:   "structured validation detail",
			status:        http.StatusUnprocessableEntity,
			body:          `{"detail":[{"loc":["body","password"],"msg":"ensure this value has at least 8 characters","type":"value_error"},{"loc":["body","email"],"msg":"value is not a valid email address"}]}`,
			expectKind:    KindValidation,
			expectMessage: "password: ensure this value has at least 8 characters; email: value is not a valid email address",
		},
		{
			description:   "nested location",
			status:        http.StatusUnprocessableEntity,
			body:          `{"detail":[{"loc":["query","filters","start_date"],"msg":"invalid datetime format"}]}`,
			expectKind:    KindValidation,
			expectMessage: "filters.start_date: invalid datetime format",
		},
		{
			description:   "structured detail on 400",
			status:        http.StatusBadRequest,
			body:          `{"detail":{"msg":"bad input"}}`,
			expectKind:    KindValidation,
			expectMessage: "bad input",
		},
		{
			description:   "unrecognised structure falls back to raw",
			status:        http.StatusUnprocessableEntity,
			body:          `{"detail":[{"code":1}]}`,
			expectKind:    KindValidation,
			expectMessage: `[{"code":1}]`,
		},
		{
			description:   "unauthorized",
			status:        http.StatusUnauthorized,
			body:          `{"detail":"Could not validate credentials"}`,
			expectKind:    KindUnauthorized,
			expectMessage: "Could not validate credentials",
		},
		{
			description:   "server error without body",
			status:        http.StatusBadGateway,
			expectKind:    KindServer,
			expectMessage: "Bad Gateway",
		},
		{
			description:   "non JSON body",
			status:        http.StatusNotFound,
			body:          `<html>not found</html>`,
			expectKind:    KindRequest,
			expectMessage: "Not Found",
		},
	}

	for _, testCase := range testCases {
		actual := NewHTTPError(testCase.status, []byte(testCase.body))
		assert.EqualValues(t, testCase.expectKind, actual.Kind, testCase.description)
		assert.EqualValues(t, testCase.expectMessage, actual.Error(), testCase.description)
		assert.EqualValues(t, testCase.status, actual.Status, testCase.description)
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("refresh: %w", NewSessionExpired(http.StatusUnauthorized, nil))
	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.False(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, MessageSessionExpired, err.(interface{ Unwrap() error }).Unwrap().Error())

	cause := errors.New("connection refused")
	network := NewNetworkError(cause)
	assert.True(t, errors.Is(network, ErrNetwork))
	assert.True(t, errors.Is(network, cause))
}

func TestError_WithDefault(t *testing.T) {
	withDetail := NewHTTPError(http.StatusUnauthorized, []byte(`{"detail":"Incorrect email or password"}`))
	assert.Equal(t, "Incorrect email or password", withDetail.WithDefault("Login failed").Error())

	bare := NewHTTPError(http.StatusInternalServerError, nil)
	assert.Equal(t, "Login failed", bare.WithDefault("Login failed").Error())
	assert.Equal(t, KindInvalidCredentials, withDetail.WithKind(KindInvalidCredentials).Kind)
	assert.Equal(t, KindUnauthorized, withDetail.Kind, "copies must not alter the original")
}
