// internal/common/auth/keycloak_test.go
package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"competitor-intel/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeycloak(t *testing.T, handler http.HandlerFunc) *KeycloakClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewKeycloakClient(srv.URL+"/", "intel", "intel-api", "s3cret")
}

func TestValidateToken_Active(t *testing.T) {
	kc := newKeycloak(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realms/intel/protocol/openid-connect/token/introspect", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tok-1", r.PostForm.Get("token"))
		assert.Equal(t, "intel-api", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"active":true,"sub":"user-42","username":"ana"}`))
	})

	info, err := kc.ValidateToken(context.Background(), "tok-1")

	require.NoError(t, err)
	assert.Equal(t, "user-42", info.Sub)
	assert.Equal(t, "ana", info.Username)
}

func TestValidateToken_Failures(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		status   int
		body     string
		wantCode errors.ErrorCode
	}{
		{name: "empty token", token: "", wantCode: errors.ErrCodeAuthRequired},
		{name: "inactive", token: "t", status: 200, body: `{"active":false}`, wantCode: errors.ErrCodeTokenInvalid},
		{name: "no subject", token: "t", status: 200, body: `{"active":true}`, wantCode: errors.ErrCodeTokenInvalid},
		{name: "server error", token: "t", status: 503, body: `down`, wantCode: errors.ErrCodeUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kc := newKeycloak(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := kc.ValidateToken(context.Background(), tt.token)

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.AsStandardError(err).Code)
		})
	}
}
