package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-portal/internal/dto"
	"chat-portal/internal/repository/memory"
	"chat-portal/pkg/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestService(backendURL string) (IAuthService, ISessionService) {
	sessions := NewSessionService(memory.NewSessionRepository(time.Hour), "test-secret", time.Hour)
	gateway := backend.NewClient(backendURL, svcTestLogger{})
	return NewAuthService(gateway, sessions, svcTestLogger{}), sessions
}

func TestLoginRejectsInvalidInput(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	svc, _ := newAuthTestService(srv.URL)

	cases := []struct {
		name string
		req  dto.LoginRequest
	}{
		{"short username", dto.LoginRequest{Username: "al", Password: "secret-pw"}},
		{"short password", dto.LoginRequest{Username: "alice", Password: "pw"}},
		{"empty", dto.LoginRequest{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, status := svc.Login(context.Background(), &tc.req)
			assert.Nil(t, res)
			assert.Equal(t, dto.StatusInvalidData, status)
		})
	}
	assert.Equal(t, 0, calls, "invalid input must not reach the backend")
}

func TestLoginMapsBackendRejectionToFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	}))
	defer srv.Close()

	svc, _ := newAuthTestService(srv.URL)

	res, status := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "wrong-pw"})
	assert.Nil(t, res)
	assert.Equal(t, dto.StatusFailed, status)
}

func TestLoginIssuesResolvableSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"backend-token","token_type":"bearer","user":{"username":"alice"}}`))
	}))
	defer srv.Close()

	svc, sessions := newAuthTestService(srv.URL)

	res, status := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "secret-pw"})
	require.Equal(t, dto.StatusSuccess, status)
	require.NotNil(t, res)
	assert.Equal(t, "alice", res.Username)

	sess, err := sessions.Resolve(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, "backend-token", sess.AccessToken)
}

func TestRegisterForwardsToBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/register", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["username"] == "taken" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"Username already registered"}`))
			return
		}
		w.Write([]byte(`{"id":"u1","username":"alice"}`))
	}))
	defer srv.Close()

	svc, _ := newAuthTestService(srv.URL)

	assert.Equal(t, dto.StatusInvalidData, svc.Register(context.Background(), &dto.RegisterRequest{Username: "al", Password: "pw"}))
	assert.Equal(t, dto.StatusSuccess, svc.Register(context.Background(), &dto.RegisterRequest{Username: "alice", Password: "secret-pw"}))
	assert.Equal(t, dto.StatusFailed, svc.Register(context.Background(), &dto.RegisterRequest{Username: "taken", Password: "secret-pw"}))
}

func TestLogoutDropsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"backend-token","token_type":"bearer","user":{}}`))
	}))
	defer srv.Close()

	svc, sessions := newAuthTestService(srv.URL)

	res, status := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "secret-pw"})
	require.Equal(t, dto.StatusSuccess, status)

	svc.Logout(context.Background(), res.Token)

	_, err := sessions.Resolve(context.Background(), res.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	// logging out twice is harmless
	svc.Logout(context.Background(), res.Token)
}
