package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-portal/internal/entity"
	"chat-portal/pkg/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type svcTestLogger struct{}

func (svcTestLogger) Debug(string, string, map[string]interface{}) {}
func (svcTestLogger) Info(string, string, map[string]interface{})  {}
func (svcTestLogger) Warn(string, string, map[string]interface{})  {}
func (svcTestLogger) Error(string, string, map[string]interface{}) {}
func (svcTestLogger) Sync() error                                  { return nil }

func svcTestSession() *entity.Session {
	return &entity.Session{
		ID:          "sess-1",
		UserID:      "alice",
		Username:    "alice",
		AccessToken: "token-123",
		TokenType:   "Bearer",
		CreatedAt:   time.Now(),
	}
}

func TestListChatsPopulatesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Chat{
			{ID: "c1", Title: "First"},
			{ID: "c2", Title: "Second"},
		})
	}))
	defer srv.Close()

	svc := NewChatService(backend.NewClient(srv.URL, svcTestLogger{}), svcTestLogger{})
	sess := svcTestSession()

	_, ok := svc.CachedChats(sess)
	assert.False(t, ok)

	chats, err := svc.ListChats(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, chats, 2)

	cached, ok := svc.CachedChats(sess)
	require.True(t, ok)
	assert.Equal(t, chats, cached)
}

func TestDeleteChatDropsCacheEntryOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.Write([]byte(`{"ok":true}`))
			return
		}
		json.NewEncoder(w).Encode([]entity.Chat{
			{ID: "c1", Title: "First"},
			{ID: "c2", Title: "Second"},
		})
	}))
	defer srv.Close()

	svc := NewChatService(backend.NewClient(srv.URL, svcTestLogger{}), svcTestLogger{})
	sess := svcTestSession()

	_, err := svc.ListChats(context.Background(), sess)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteChat(context.Background(), sess, "c1"))

	cached, ok := svc.CachedChats(sess)
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, "c2", cached[0].ID)
}

func TestDeleteChatKeepsCacheOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"boom"}`))
			return
		}
		json.NewEncoder(w).Encode([]entity.Chat{{ID: "c1", Title: "First"}})
	}))
	defer srv.Close()

	svc := NewChatService(backend.NewClient(srv.URL, svcTestLogger{}), svcTestLogger{})
	sess := svcTestSession()

	_, err := svc.ListChats(context.Background(), sess)
	require.NoError(t, err)

	err = svc.DeleteChat(context.Background(), sess, "c1")
	var upstream *backend.UpstreamError
	require.ErrorAs(t, err, &upstream)

	cached, ok := svc.CachedChats(sess)
	require.True(t, ok)
	assert.Len(t, cached, 1)
}

func TestControllerIsSharedPerSessionAndChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	svc := NewChatService(backend.NewClient(srv.URL, svcTestLogger{}), svcTestLogger{})
	sess := svcTestSession()

	first := svc.Controller(context.Background(), sess, "c1")
	second := svc.Controller(context.Background(), sess, "c1")
	other := svc.Controller(context.Background(), sess, "c2")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)

	svc.Release(sess, "c1")
	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("controller was not closed on release")
	}

	recreated := svc.Controller(context.Background(), sess, "c1")
	assert.NotSame(t, first, recreated)
	svc.Release(sess, "c1")
	svc.Release(sess, "c2")
}
