package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-portal/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func testSession() *entity.Session {
	return &entity.Session{
		ID:          "sess-1",
		UserID:      "alice",
		Username:    "alice",
		AccessToken: "token-123",
		TokenType:   "Bearer",
		CreatedAt:   time.Now(),
	}
}

func TestListChatsAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/chats", r.URL.Path)
		json.NewEncoder(w).Encode([]entity.Chat{{ID: "c1", Title: "First"}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	chats, err := client.ListChats(context.Background(), testSession())

	require.NoError(t, err)
	assert.Equal(t, "Bearer token-123", gotAuth)
	require.Len(t, chats, 1)
	assert.Equal(t, "c1", chats[0].ID)
}

func TestMissingSessionShortCircuits(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})

	_, err := client.ListChats(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = client.ListChats(context.Background(), &entity.Session{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.Equal(t, 0, calls, "no network call should be made without a token")
}

func TestUpstreamErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"Not authorized"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	err := client.DeleteChat(context.Background(), testSession(), "c1")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.Status)
	assert.Contains(t, upstream.Body, "Not authorized")
}

func TestTransportErrorOnUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // server gone before the call

	client := NewClient(srv.URL, nopLogger{})
	_, err := client.ListOptions(context.Background(), testSession())

	var transport *TransportError
	assert.ErrorAs(t, err, &transport)
}

func TestSendMessageBodyShape(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages/chat/c1/send", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		json.NewEncoder(w).Encode(entity.Message{ID: "m2", ChatID: "c1", Role: entity.RoleAssistant, Content: "hi"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	fileID := "f1"
	reply, err := client.SendMessage(context.Background(), testSession(), "c1", "hello", &fileID)

	require.NoError(t, err)
	assert.Equal(t, "hi", reply.Content)
	assert.JSONEq(t, `"hello"`, string(got["content"]))
	assert.JSONEq(t, `"f1"`, string(got["source_file_id"]))
	// metadata must be an explicit null to match the backend schema
	assert.Equal(t, "null", string(got["metadata"]))
}

func TestSendMessageOmitsFileIDWhenAbsent(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		json.NewEncoder(w).Encode(entity.Message{ID: "m2"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	_, err := client.SendMessage(context.Background(), testSession(), "c1", "hello", nil)

	require.NoError(t, err)
	_, present := got["source_file_id"]
	assert.False(t, present)
}

func TestSendAPIChatUsesOptionURL(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages/c1/api-chat", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(entity.Message{ID: "m3", Content: "external"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	_, err := client.SendAPIChat(context.Background(), testSession(), "c1", "ask", "https://source.example/api")

	require.NoError(t, err)
	assert.Equal(t, "ask", got["content"])
	assert.Equal(t, "https://source.example/api", got["api_url"])
}

func TestNewConversationSendsMessageAsQueryParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chats/new-conversation", r.URL.Path)
		assert.Equal(t, "hello there", r.URL.Query().Get("message"))
		w.Write([]byte(`{"chat":{"id":"c9"},"message":{"id":"m1"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	raw, err := client.NewConversation(context.Background(), testSession(), "hello there")

	require.NoError(t, err)
	assert.JSONEq(t, `{"chat":{"id":"c9"},"message":{"id":"m1"}}`, string(raw))
}

func TestUploadFilesMultipartAndArrayContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		require.Len(t, r.MultipartForm.File["files"], 2)
		json.NewEncoder(w).Encode([]entity.UploadedFileInfo{
			{ID: "f1", Filename: "a.pdf"},
			{ID: "f2", Filename: "b.csv"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	infos, err := client.UploadFiles(context.Background(), testSession(), []UploadFile{
		{Filename: "a.pdf", Data: []byte("pdf")},
		{Filename: "b.csv", Data: []byte("csv")},
	})

	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "f1", infos[0].ID)
}

func TestUploadFilesRejectsNonArrayResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail":"not an array"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	_, err := client.UploadFiles(context.Background(), testSession(), []UploadFile{{Filename: "a.pdf"}})

	var format *UnexpectedFormatError
	assert.ErrorAs(t, err, &format)
}

func TestLoginIsFormEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "secret-pw", r.PostForm.Get("password"))
		w.Write([]byte(`{"access_token":"token-xyz","token_type":"bearer","user":{"username":"alice"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	result, err := client.Login(context.Background(), "alice", "secret-pw")

	require.NoError(t, err)
	assert.Equal(t, "token-xyz", result.AccessToken)
	assert.JSONEq(t, `{"username":"alice"}`, string(result.User))
}
