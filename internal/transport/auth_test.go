package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

var errUnknownToken = errors.New("unknown token")

type testResolver struct {
	tokenToIdentity map[string]string
	err             error
}

func (r *testResolver) ResolveIdentity(_ context.Context, token string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	identity, ok := r.tokenToIdentity[token]
	if !ok {
		return "", errUnknownToken
	}
	return identity, nil
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &testResolver{tokenToIdentity: map[string]string{"token": "100"}}

	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "100", identity)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	tests := map[string]struct {
		resolver *testResolver
		header   string
	}{
		"resolver error": {resolver: &testResolver{err: errors.New("invalid")}, header: "Bearer token"},
		"unknown token":  {resolver: &testResolver{}, header: "Bearer nope"},
		"missing header": {resolver: &testResolver{}, header: ""},
		"empty bearer":   {resolver: &testResolver{}, header: "Bearer   "},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			handler := AuthMiddleware(tt.resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
