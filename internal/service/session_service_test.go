package service

import (
	"context"
	"testing"
	"time"

	"chat-portal/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionService() ISessionService {
	repo := memory.NewSessionRepository(time.Hour)
	return NewSessionService(repo, "test-secret", time.Hour)
}

func TestExchangeRequiresUsernameAndToken(t *testing.T) {
	svc := newTestSessionService()

	_, _, err := svc.Exchange(context.Background(), "", "backend-token", "{}")
	assert.ErrorIs(t, err, ErrNoSession)

	_, _, err = svc.Exchange(context.Background(), "alice", "", "{}")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestExchangeResolveRoundTrip(t *testing.T) {
	svc := newTestSessionService()

	sess, token, err := svc.Exchange(context.Background(), "alice", "backend-token", `{"username":"alice"}`)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, "Bearer backend-token", sess.BearerToken())

	resolved, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, resolved.ID)
	assert.Equal(t, "backend-token", resolved.AccessToken)
}

func TestResolveRejectsForgedToken(t *testing.T) {
	svc := newTestSessionService()
	other := NewSessionService(memory.NewSessionRepository(time.Hour), "other-secret", time.Hour)

	_, forged, err := other.Exchange(context.Background(), "mallory", "stolen", "{}")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), forged)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestResolveRejectsGarbageToken(t *testing.T) {
	svc := newTestSessionService()

	_, err := svc.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = svc.Resolve(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDestroyInvalidatesSession(t *testing.T) {
	svc := newTestSessionService()

	_, token, err := svc.Exchange(context.Background(), "alice", "backend-token", "{}")
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(context.Background(), token))

	_, err = svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrNoSession)
}
