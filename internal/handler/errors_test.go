package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iftf/duoverkoop/internal/service"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/verification"
)

func render(t *testing.T, log *zap.Logger, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	ErrorHandler(log)(err, c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorHandlerStatus(t *testing.T) {
	invalid := (&service.ValidationResult{Errors: []service.FieldError{{Field: "email", Code: "invalid", Message: "bad email"}}}).Err()

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", invalid, http.StatusBadRequest},
		{"empty code", service.ErrEmptyCode, http.StatusBadRequest},
		{"invalid code format", service.ErrInvalidCodeFormat, http.StatusBadRequest},
		{"catalog entry", service.ErrInvalidCatalogEntry, http.StatusBadRequest},
		{"unknown group", service.ErrUnknownGroup, http.StatusBadRequest},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"not found", fmt.Errorf("get purchase: %w", store.ErrNotFound), http.StatusNotFound},
		{"conflict", store.ErrConflict, http.StatusConflict},
		{"codes exhausted", verification.ErrGenerationExhausted, http.StatusInternalServerError},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
		{"echo error", echo.NewHTTPError(http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := render(t, nil, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestErrorHandlerValidationFields(t *testing.T) {
	invalid := (&service.ValidationResult{Errors: []service.FieldError{{Field: "performance1", Code: "sold_out", Message: "sold out"}}}).Err()

	rec, body := render(t, nil, invalid)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrValidation.Error(), body["error"])
	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "performance1", fields[0].(map[string]any)["field"])
}

func TestErrorHandlerLogsServerErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	rec, body := render(t, zap.New(core), verification.ErrGenerationExhausted)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "could not issue a verification code", body["error"])
	assert.Equal(t, 1, logs.FilterMessage("verification code space exhausted").Len())

	_, _ = render(t, zap.New(core), store.ErrConflict)
	assert.Equal(t, 1, logs.Len())
}
