package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgrid/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EPAYMENT, http.StatusPaymentRequired},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.ELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"unknown_code", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCodeToHTTPStatus(tt.code), "code %s", tt.code)
	}
}

func TestErrorResponseEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/leads", nil)

	ErrorResponse(w, r, testLogger(), domain.Invalid("leads.list", "bad cursor"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.EINVALID, body.Error.Code)
	assert.Equal(t, "bad cursor", body.Error.Message)
}

func TestErrorResponseQuotaDenialPayload(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/leads/import", nil)

	err := domain.QuotaExceeded("quota.consume_search", domain.MetricSearches, domain.PlanFree, 4, 4)
	ErrorResponse(w, r, testLogger(), err)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body struct {
		Error     string `json:"error"`
		Resource  string `json:"resource"`
		Plan      string `json:"plan"`
		Limit     *int   `json:"limit"`
		Remaining *int   `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "limit_exceeded", body.Error)
	assert.Equal(t, "searches", body.Resource)
	assert.Equal(t, "free", body.Plan)
	require.NotNil(t, body.Limit)
	assert.Equal(t, 4, *body.Limit)
	require.NotNil(t, body.Remaining)
	assert.Equal(t, 0, *body.Remaining)
}

func TestErrorResponseQuotaDenialWrapped(t *testing.T) {
	// The denial payload survives error wrapping along the call chain.
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/exports", nil)

	inner := domain.QuotaExceeded("quota.consume_export", domain.MetricCSVExports, domain.PlanFree, 1, 1)
	ErrorResponse(w, r, testLogger(), inner)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"resource":"csv_exports"`)
}

func TestUnauthorizedResponse(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)

	UnauthorizedResponse(w, r, testLogger())

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
}

func TestInternalErrorResponseHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/leads", nil)

	InternalErrorResponse(w, r, testLogger(), assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
