package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, "test-api-key", "test-admin-key", 2*time.Second)
}

func TestClient_CreateAccount(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       any
		wantUID    string
		wantErr    error
		wantAnyErr bool
	}{
		{
			name:    "successful signup",
			status:  http.StatusOK,
			body:    map[string]string{"id": "u1"},
			wantUID: "u1",
		},
		{
			name:    "already registered",
			status:  http.StatusUnprocessableEntity,
			body:    map[string]string{"error_code": "user_already_exists", "msg": "User already registered"},
			wantErr: ErrAlreadyRegistered,
		},
		{
			name:    "email exists variant",
			status:  http.StatusConflict,
			body:    map[string]string{"error_code": "email_exists"},
			wantErr: ErrAlreadyRegistered,
		},
		{
			name:       "weak password rejection is not a conflict",
			status:     http.StatusBadRequest,
			body:       map[string]string{"error_code": "weak_password", "msg": "password too short"},
			wantAnyErr: true,
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			body:       map[string]string{},
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/signup", r.URL.Path)
				assert.Equal(t, "test-api-key", r.Header.Get("apikey"))

				var req signUpRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "ana@test.com", req.Email)

				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			})

			uid, err := client.CreateAccount(context.Background(), "ana@test.com", "secret123", map[string]any{"name": "Ana"})

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAnyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, uid)
			}
		})
	}
}

func TestClient_SignIn(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/token", r.URL.Path)
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-1",
				"user":         map[string]string{"id": "u1"},
			})
		})

		uid, token, err := client.SignIn(context.Background(), "ana@test.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "u1", uid)
		assert.Equal(t, "tok-1", token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error_code": "invalid_grant"})
		})

		_, _, err := client.SignIn(context.Background(), "ana@test.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestClient_SignOut(t *testing.T) {
	var gotAuth string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/logout", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.SignOut(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestClient_LookupByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/users", r.URL.Path)
			assert.Equal(t, "Bearer test-admin-key", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"users": []map[string]string{{"id": "u7", "email": "ana@test.com"}},
			})
		})

		uid, ok, err := client.LookupByEmail(context.Background(), "ana@test.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "u7", uid)
	})

	t.Run("unsupported by provider", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, ok, err := client.LookupByEmail(context.Background(), "ana@test.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no admin key configured", func(t *testing.T) {
		client := NewClient("http://unused", "key", "", time.Second)

		_, ok, err := client.LookupByEmail(context.Background(), "ana@test.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
