package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopValidatorAllowsAll(t *testing.T) {
	v := NewNoopValidator()

	identity, err := v.Validate(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, identity)

	identity, err = v.Validate(context.Background(), "any-token")
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestHTTPValidatorValidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "good-token", req.Token)
		assert.Equal(t, "secret", r.Header.Get("X-Admin-Secret"))

		_ = json.NewEncoder(w).Encode(validateResponse{
			Valid:       true,
			UserID:      "user-1",
			DisplayName: "Alice",
		})
	}))
	defer srv.Close()

	v := NewHTTPValidator(srv.URL, "secret")
	identity, err := v.Validate(context.Background(), "good-token")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "Alice", identity.DisplayName)
}

func TestHTTPValidatorEmptyToken(t *testing.T) {
	v := NewHTTPValidator("http://unused.invalid", "")
	_, err := v.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHTTPValidatorRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: false})
	}))
	defer srv.Close()

	v := NewHTTPValidator(srv.URL, "")
	_, err := v.Validate(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHTTPValidatorStatusCodes(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusUnauthorized, ErrInvalidToken},
		{http.StatusForbidden, ErrInvalidToken},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusServiceUnavailable, ErrUnavailable},
		{http.StatusTeapot, ErrUnavailable},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		v := NewHTTPValidator(srv.URL, "")
		_, err := v.Validate(context.Background(), "token")
		assert.ErrorIs(t, err, tt.wantErr, "status %d", tt.status)
		srv.Close()
	}
}

func TestHTTPValidatorUnreachable(t *testing.T) {
	v := NewHTTPValidator("http://127.0.0.1:1/validate", "")
	_, err := v.Validate(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPValidatorMissingUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: true})
	}))
	defer srv.Close()

	v := NewHTTPValidator(srv.URL, "")
	_, err := v.Validate(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnavailable)
}
