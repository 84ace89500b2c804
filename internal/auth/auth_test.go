package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v, err := NewVerifier("secret", "authenticated")
	require.NoError(t, err)

	tok, err := v.Sign("user-1", time.Minute)
	require.NoError(t, err)

	sub, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestVerifier_Rejects(t *testing.T) {
	v, err := NewVerifier("secret", "authenticated")
	require.NoError(t, err)
	other, err := NewVerifier("other-secret", "authenticated")
	require.NoError(t, err)
	wrongAud, err := NewVerifier("secret", "service_role")
	require.NoError(t, err)

	expired, err := v.Sign("user-1", -time.Hour)
	require.NoError(t, err)
	foreign, err := other.Sign("user-1", time.Minute)
	require.NoError(t, err)
	aud, err := wrongAud.Sign("user-1", time.Minute)
	require.NoError(t, err)
	noSubject, err := v.Sign("", time.Minute)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1", Audience: jwt.ClaimStrings{"authenticated"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":        expired,
		"wrong secret":   foreign,
		"wrong audience": aud,
		"no subject":     noSubject,
		"no expiry":      noExpiry,
		"alg none":       unsigned,
		"garbage":        "not.a.token",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewVerifier_EmptySecret(t *testing.T) {
	_, err := NewVerifier("  ", "")
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier("secret", "")
	require.NoError(t, err)
	tok, err := v.Sign("user-7", time.Minute)
	require.NoError(t, err)

	var gotErr error
	h := Middleware(v, nil, func(w http.ResponseWriter, _ *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := OwnerFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(owner))
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantErr    error
	}{
		{"valid", "Bearer " + tok, http.StatusOK, nil},
		{"lowercase scheme", "bearer " + tok, http.StatusOK, nil},
		{"missing", "", http.StatusUnauthorized, ErrMissingToken},
		{"basic", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ErrMissingToken},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotErr = nil
			req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(gotErr, tt.wantErr))
				assert.True(t, IsAuthError(gotErr))
			} else {
				assert.Equal(t, "user-7", rec.Body.String())
			}
		})
	}
}
