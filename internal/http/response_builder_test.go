package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/auth"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/loan"
	"finanzas/internal/log"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/x/1").
		Body(map[string]string{"id": "1"}).
		Write(rec)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/x/1", rec.Header().Get("Location"))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Type"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"bad request", fmt.Errorf("%w: empty body", errBadRequest), http.StatusBadRequest, "bad_request"},
		{"core validation", fmt.Errorf("create: %w", core.ErrInvalidAmount), http.StatusUnprocessableEntity, "validation_failed"},
		{"loan validation", &loan.ValidationError{Field: "term_months", Value: "0", Reason: "must be at least 1"}, http.StatusUnprocessableEntity, "validation_failed"},
		{"not found", fmt.Errorf("get transaction x: %w", ledger.ErrNotFound), http.StatusNotFound, "not_found"},
		{"auth", auth.ErrMissingToken, http.StatusUnauthorized, "unauthorized"},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(log.IntoContext(context.Background(), log.Discard()))
	rec := httptest.NewRecorder()

	writeError(rec, req, errors.New("pq: connection refused"), log.OpList)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body.Error)
	assert.Equal(t, "internal", body.Code)
}

func TestWriteError_ValidationMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	writeError(rec, req, core.ErrEmptyDescription, log.OpCreate)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty description")
}
