package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name     string
		query    url.Values
		wantFrom string
		wantTo   string
		wantErr  bool
	}{
		{name: "open", query: url.Values{}},
		{name: "both", query: url.Values{"from": {"2025-01-01"}, "to": {"2025-03-31"}}, wantFrom: "2025-01-01", wantTo: "2025-03-31"},
		{name: "same day", query: url.Values{"from": {"2025-01-01"}, "to": {"2025-01-01"}}, wantFrom: "2025-01-01", wantTo: "2025-01-01"},
		{name: "trimmed", query: url.Values{"to": {" 2025-02-28 "}}, wantTo: "2025-02-28"},
		{name: "bad from", query: url.Values{"from": {"01/01/2025"}}, wantErr: true},
		{name: "impossible date", query: url.Values{"to": {"2025-02-30"}}, wantErr: true},
		{name: "inverted", query: url.Values{"from": {"2025-02-01"}, "to": {"2025-01-01"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePeriod(tt.query)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, core.ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, p.From.String())
			assert.Equal(t, tt.wantTo, p.To.String())
		})
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(url.Values{"kind": {"Expense"}, "from": {"2025-01-01"}})
	require.NoError(t, err)
	assert.Equal(t, core.Expense, f.Kind)
	assert.Equal(t, core.NewDate(2025, 1, 1), f.From)
	assert.True(t, f.To.IsZero())

	_, err = ParseFilter(url.Values{"kind": {"refund"}})
	assert.ErrorIs(t, err, core.ErrInvalidKind)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantBad bool
	}{
		{name: "valid", body: `{"name":"ok"}`, want: "ok"},
		{name: "unknown fields ignored", body: `{"name":"ok","extra":1}`, want: "ok"},
		{name: "empty", body: "", wantBad: true},
		{name: "malformed", body: `{"name":`, wantBad: true},
		{name: "wrong type", body: `{"name":1}`, wantBad: true},
		{name: "trailing", body: `{"name":"a"}{"name":"b"}`, wantBad: true},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, wantBad: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantBad {
				assert.ErrorIs(t, err, errBadRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name)
		})
	}
}

func TestDecodeJSON_KeepsValidationErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"date":"2025-13-01"}`))
	var tx core.Transaction
	err := DecodeJSON(httptest.NewRecorder(), req, &tx)
	assert.ErrorIs(t, err, core.ErrInvalidDate)
	assert.NotErrorIs(t, err, errBadRequest)
}
