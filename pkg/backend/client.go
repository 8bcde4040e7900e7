package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chat-portal/internal/entity"
	"chat-portal/internal/pkg/logger"
)

// Client talks to the external backend API. Every authenticated operation
// takes the caller's session explicitly; there is no ambient token. Each
// operation maps to exactly one backend endpoint and performs a single
// attempt, no retries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.ILogger
}

func NewClient(baseURL string, log logger.ILogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  log,
	}
}

// LoginResult is the raw payload of POST /api/auth/login. User is kept as raw
// JSON; the portal never inspects the profile beyond storing it on the session.
type LoginResult struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        json.RawMessage `json:"user"`
}

// UploadFile is one file in a multipart upload request.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Login exchanges username+password for a backend access token. This is the
// only unauthenticated operation; the backend expects a form-encoded body.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.execute(req, "login")
	if err != nil {
		return nil, err
	}

	var result LoginResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &UnexpectedFormatError{Operation: "login", Detail: err.Error()}
	}
	return &result, nil
}

type registerRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

// Register creates a backend account. Unauthenticated, JSON body; a username
// collision comes back as a 400 UpstreamError.
func (c *Client) Register(ctx context.Context, username, password string) error {
	data, err := json.Marshal(registerRequest{Username: username, Password: password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/register", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.execute(req, "register")
	return err
}

func (c *Client) ListChats(ctx context.Context, sess *entity.Session) ([]entity.Chat, error) {
	var chats []entity.Chat
	if err := c.doJSON(ctx, sess, http.MethodGet, "/api/chats", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (c *Client) GetChatMessages(ctx context.Context, sess *entity.Session, chatID string) ([]entity.Message, error) {
	var messages []entity.Message
	if err := c.doJSON(ctx, sess, http.MethodGet, "/api/messages/chat/"+chatID, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) DeleteChat(ctx context.Context, sess *entity.Session, chatID string) error {
	return c.doJSON(ctx, sess, http.MethodDelete, "/api/chats/"+chatID, nil, nil)
}

type createChatRequest struct {
	Title      string `json:"title"`
	Visibility string `json:"visibility"`
	UserID     string `json:"userId"`
}

func (c *Client) CreateChat(ctx context.Context, sess *entity.Session, title, visibility, userID string) (*entity.Chat, error) {
	var chat entity.Chat
	req := createChatRequest{Title: title, Visibility: visibility, UserID: userID}
	if err := c.doJSON(ctx, sess, http.MethodPost, "/api/chats", req, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

type sendMessageRequest struct {
	Content      string      `json:"content"`
	SourceFileID *string     `json:"source_file_id,omitempty"`
	Metadata     interface{} `json:"metadata"`
}

// SendMessage posts a user message on the plain chat pipeline and returns the
// assistant's reply. Metadata is always null to match the backend schema.
func (c *Client) SendMessage(ctx context.Context, sess *entity.Session, chatID, content string, sourceFileID *string) (*entity.Message, error) {
	var reply entity.Message
	req := sendMessageRequest{Content: content, SourceFileID: sourceFileID}
	if err := c.doJSON(ctx, sess, http.MethodPost, "/api/messages/chat/"+chatID+"/send", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

type apiChatRequest struct {
	Content string `json:"content"`
	APIURL  string `json:"api_url"`
}

// SendAPIChat posts a user message routed through an external data-source API
// instead of the default chat pipeline.
func (c *Client) SendAPIChat(ctx context.Context, sess *entity.Session, chatID, content, apiURL string) (*entity.Message, error) {
	var reply entity.Message
	req := apiChatRequest{Content: content, APIURL: apiURL}
	if err := c.doJSON(ctx, sess, http.MethodPost, "/api/messages/"+chatID+"/api-chat", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// NewConversation creates a chat and its first message in one backend call.
// The message rides in the query string, not the body. The combined response
// shape is relayed verbatim.
func (c *Client) NewConversation(ctx context.Context, sess *entity.Session, message string) (json.RawMessage, error) {
	if sess == nil || sess.AccessToken == "" {
		return nil, ErrUnauthorized
	}

	endpoint := c.baseURL + "/api/chats/new-conversation?message=" + url.QueryEscape(message)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", sess.BearerToken())

	body, err := c.execute(req, "new-conversation")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// UploadFiles posts all files in a single multipart request under the "files"
// field. The backend must answer with an array of file descriptors; anything
// else is an UnexpectedFormatError.
func (c *Client) UploadFiles(ctx context.Context, sess *entity.Session, files []UploadFile) ([]entity.UploadedFileInfo, error) {
	if sess == nil || sess.AccessToken == "" {
		return nil, ErrUnauthorized
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := writer.CreateFormFile("files", f.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", sess.BearerToken())

	body, err := c.execute(req, "upload-files")
	if err != nil {
		return nil, err
	}

	var infos []entity.UploadedFileInfo
	if err := json.Unmarshal(body, &infos); err != nil {
		return nil, &UnexpectedFormatError{Operation: "upload-files", Detail: "expected an array of file descriptors"}
	}
	return infos, nil
}

func (c *Client) DeleteFile(ctx context.Context, sess *entity.Session, fileID string) error {
	return c.doJSON(ctx, sess, http.MethodDelete, "/api/files/"+fileID, nil, nil)
}

func (c *Client) ListOptions(ctx context.Context, sess *entity.Session) ([]entity.OptionItem, error) {
	var options []entity.OptionItem
	if err := c.doJSON(ctx, sess, http.MethodGet, "/api/options", nil, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// doJSON performs one authenticated JSON round trip. A nil or tokenless
// session short-circuits to ErrUnauthorized without touching the network.
func (c *Client) doJSON(ctx context.Context, sess *entity.Session, method, path string, payload, out interface{}) error {
	if sess == nil || sess.AccessToken == "" {
		return ErrUnauthorized
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", sess.BearerToken())

	respBody, err := c.execute(req, method+" "+path)
	if err != nil {
		return err
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &UnexpectedFormatError{Operation: path, Detail: err.Error()}
	}
	return nil
}

func (c *Client) execute(req *http.Request, operation string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Backend", "Request failed", map[string]interface{}{
			"operation": operation,
			"error":     err.Error(),
		})
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Backend", "Non-success status", map[string]interface{}{
			"operation": operation,
			"status":    resp.StatusCode,
		})
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	if readErr != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading response: %w", readErr)}
	}
	return body, nil
}
