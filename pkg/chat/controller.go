package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chat-portal/internal/entity"
	"chat-portal/internal/pkg/logger"
	"chat-portal/pkg/backend"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultChatTitle   = "New conversation"
	defaultVisibility  = "public"
	defaultRevealDelay = 50 * time.Millisecond
	fileMarkerPrefix   = "🔗: "
)

var ErrUploadInProgress = errors.New("an upload is already in progress")

// Gateway is the slice of the backend client the controller needs. Satisfied
// by *backend.Client; tests substitute a fake.
type Gateway interface {
	CreateChat(ctx context.Context, sess *entity.Session, title, visibility, userID string) (*entity.Chat, error)
	SendMessage(ctx context.Context, sess *entity.Session, chatID, content string, sourceFileID *string) (*entity.Message, error)
	SendAPIChat(ctx context.Context, sess *entity.Session, chatID, content, apiURL string) (*entity.Message, error)
	GetChatMessages(ctx context.Context, sess *entity.Session, chatID string) ([]entity.Message, error)
	ListOptions(ctx context.Context, sess *entity.Session) ([]entity.OptionItem, error)
	UploadFiles(ctx context.Context, sess *entity.Session, files []backend.UploadFile) ([]entity.UploadedFileInfo, error)
	DeleteFile(ctx context.Context, sess *entity.Session, fileID string) error
}

// Controller drives the lifecycle of one chat conversation: message list,
// attached files, option selection and the thinking/streaming presentation
// state. All mutations happen under its own lock; the isLoading/isUploading
// flags refuse overlapping submissions rather than queueing them.
//
// Every backend call failure is absorbed here and surfaced as a notify event;
// the controller always returns to an interactive idle state.
type Controller struct {
	mu     sync.Mutex
	gw     Gateway
	sess   *entity.Session
	logger logger.ILogger

	chatID        string // empty until the backend has created the chat
	messages      []entity.Message
	attachedFiles []entity.UploadedFileInfo
	options       []entity.OptionItem
	selected      *entity.OptionItem

	isLoading   bool
	isThinking  bool
	isUploading bool
	streaming   *entity.Message

	revealDelay time.Duration
	events      chan Event
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewController(gw Gateway, sess *entity.Session, chatID string, log logger.ILogger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		gw:          gw,
		sess:        sess,
		logger:      log,
		chatID:      chatID,
		revealDelay: defaultRevealDelay,
		events:      make(chan Event, 64),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Events is the controller's output stream. The channel is never closed; a
// consumer should stop reading once Close has been called.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Close tears the controller down. A reveal running mid-flight stops at the
// next word boundary.
func (c *Controller) Close() {
	c.cancel()
}

// Done is closed when the controller has been torn down.
func (c *Controller) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Bootstrap loads the option list and, for an existing chat, the message
// history. The two fetches run concurrently; either failing is logged and
// ignored, leaving the corresponding list empty.
func (c *Controller) Bootstrap(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		options, err := c.gw.ListOptions(gctx, c.sess)
		if err != nil {
			c.logger.Warn("Chat", "Fetching options failed", map[string]interface{}{"error": err.Error()})
			return nil
		}
		c.mu.Lock()
		c.options = options
		c.mu.Unlock()
		return nil
	})

	if c.chatID != "" {
		g.Go(func() error {
			history, err := c.gw.GetChatMessages(gctx, c.sess, c.chatID)
			if err != nil {
				c.logger.Warn("Chat", "Fetching message history failed", map[string]interface{}{
					"chat_id": c.chatID,
					"error":   err.Error(),
				})
				return nil
			}
			c.mu.Lock()
			c.messages = history
			c.mu.Unlock()
			return nil
		})
	}

	g.Wait()
}

// Submit runs the full submission state machine for one user input. Empty
// trimmed input with no attached files is a no-op, as is submitting while a
// previous dispatch is still in flight.
func (c *Controller) Submit(ctx context.Context, input string) {
	c.mu.Lock()
	trimmed := strings.TrimSpace(input)
	if (trimmed == "" && len(c.attachedFiles) == 0) || c.isLoading {
		c.mu.Unlock()
		return
	}

	content := trimmed
	if len(c.attachedFiles) > 0 {
		names := make([]string, len(c.attachedFiles))
		for i, f := range c.attachedFiles {
			names[i] = f.Filename
		}
		marker := fileMarkerPrefix + strings.Join(names, ", ")
		if content != "" {
			content += "\n\n" + marker
		} else {
			content = marker
		}
	}

	c.isThinking = true
	c.isLoading = true

	chatID := c.chatID
	selected := c.selected
	var fileID *string
	// Only the first uploaded file is threaded into the message; correlation
	// beyond the first is not preserved.
	if len(c.attachedFiles) > 0 && c.attachedFiles[0].ID != "" {
		id := c.attachedFiles[0].ID
		fileID = &id
	}

	now := time.Now()
	userMsg := entity.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      entity.RoleUser,
		Content:   content,
		Status:    entity.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if chatID == "" {
		userMsg.ChatID = entity.PlaceholderChatID
		c.messages = []entity.Message{userMsg}
	} else {
		c.messages = append(c.messages, userMsg)
	}
	c.mu.Unlock()

	c.emit(Event{Type: EventMessage, Message: &userMsg})
	c.emitStatus()

	c.dispatch(ctx, userMsg.ID, chatID, content, selected, fileID)
}

func (c *Controller) dispatch(ctx context.Context, userMsgID, chatID, content string, selected *entity.OptionItem, fileID *string) {
	newChat := chatID == ""

	var err error
	if newChat {
		var created *entity.Chat
		created, err = c.gw.CreateChat(ctx, c.sess, defaultChatTitle, defaultVisibility, c.sess.UserID)
		if err == nil {
			chatID = created.ID
		}
	}

	var reply *entity.Message
	if err == nil {
		if selected != nil {
			reply, err = c.gw.SendAPIChat(ctx, c.sess, chatID, content, selected.URL)
		} else {
			reply, err = c.gw.SendMessage(ctx, c.sess, chatID, content, fileID)
		}
	}

	if err != nil {
		c.fail(userMsgID, err)
		return
	}

	c.mu.Lock()
	c.chatID = chatID
	c.markMessageLocked(userMsgID, chatID, entity.StatusSent)
	c.mu.Unlock()

	c.reveal(ctx, reply)

	if newChat {
		c.emit(Event{Type: EventNavigate, URL: "/chat/" + chatID})
	}
}

// reveal replays the already-complete assistant reply word by word with a
// fixed delay per word. This is a cosmetic replay, not incremental transport;
// teardown stops it at the next word.
func (c *Controller) reveal(ctx context.Context, reply *entity.Message) {
	shadow := *reply
	shadow.Content = ""

	c.mu.Lock()
	c.isThinking = false
	c.streaming = &shadow
	c.mu.Unlock()
	c.emitStatus()

	words := strings.Split(reply.Content, " ")
	for i, word := range words {
		select {
		case <-ctx.Done():
			return
		case <-c.ctx.Done():
			return
		case <-time.After(c.revealDelay):
		}

		c.mu.Lock()
		if i == 0 {
			shadow.Content = word
		} else {
			shadow.Content += " " + word
		}
		snapshot := shadow
		c.streaming = &shadow
		c.mu.Unlock()

		c.emit(Event{Type: EventDelta, Message: &snapshot})
	}

	final := *reply
	c.mu.Lock()
	c.messages = append(c.messages, final)
	c.streaming = nil
	c.isLoading = false
	c.mu.Unlock()

	c.emit(Event{Type: EventMessage, Message: &final})
	c.emitStatus()
}

func (c *Controller) fail(userMsgID string, err error) {
	c.mu.Lock()
	c.markMessageLocked(userMsgID, "", entity.StatusFailed)
	c.isLoading = false
	c.isThinking = false
	c.streaming = nil
	c.mu.Unlock()

	c.logger.Error("Chat", "Message dispatch failed", map[string]interface{}{
		"chat_id": c.chatID,
		"error":   err.Error(),
	})
	c.emit(Event{Type: EventNotify, Level: "error", Text: "Failed to send message. Please try again."})
	c.emitStatus()
}

// AttachFiles uploads the given files immediately in one multipart request
// and stores the returned descriptors for the next submission. An empty slice
// clears the attachment state.
func (c *Controller) AttachFiles(ctx context.Context, files []backend.UploadFile) ([]entity.UploadedFileInfo, error) {
	if len(files) == 0 {
		c.mu.Lock()
		c.attachedFiles = nil
		c.mu.Unlock()
		c.emit(Event{Type: EventFiles, Files: []entity.UploadedFileInfo{}})
		return nil, nil
	}

	c.mu.Lock()
	if c.isUploading {
		c.mu.Unlock()
		return nil, ErrUploadInProgress
	}
	c.isUploading = true
	c.mu.Unlock()
	c.emitStatus()

	infos, err := c.gw.UploadFiles(ctx, c.sess, files)

	c.mu.Lock()
	c.isUploading = false
	if err != nil {
		c.attachedFiles = nil
	} else {
		c.attachedFiles = infos
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("Chat", "File upload failed", map[string]interface{}{"error": err.Error()})
		text := "An error occurred during file upload"
		var formatErr *backend.UnexpectedFormatError
		if errors.As(err, &formatErr) {
			text = "Unexpected response format from server"
		}
		c.emit(Event{Type: EventNotify, Level: "error", Text: text})
		c.emitStatus()
		return nil, err
	}

	c.emit(Event{Type: EventNotify, Level: "success", Text: fmtFilesUploaded(len(files))})
	c.emit(Event{Type: EventFiles, Files: infos})
	c.emitStatus()
	return infos, nil
}

// RemoveFile deletes the attached file at index from the backend (when it has
// a backend id) and always drops it from local state, notifying either way.
func (c *Controller) RemoveFile(ctx context.Context, index int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.attachedFiles) {
		c.mu.Unlock()
		return
	}
	info := c.attachedFiles[index]
	c.mu.Unlock()

	if info.ID != "" {
		if err := c.gw.DeleteFile(ctx, c.sess, info.ID); err != nil {
			c.logger.Warn("Chat", "File delete failed", map[string]interface{}{
				"file_id": info.ID,
				"error":   err.Error(),
			})
			c.emit(Event{Type: EventNotify, Level: "error", Text: "An error occurred while deleting the file"})
		} else {
			c.emit(Event{Type: EventNotify, Level: "success", Text: "File deleted successfully"})
		}
	}

	c.mu.Lock()
	remaining := make([]entity.UploadedFileInfo, 0, len(c.attachedFiles))
	for i, f := range c.attachedFiles {
		if i != index {
			remaining = append(remaining, f)
		}
	}
	c.attachedFiles = remaining
	snapshot := append([]entity.UploadedFileInfo{}, remaining...)
	c.mu.Unlock()

	c.emit(Event{Type: EventFiles, Files: snapshot})
}

// SelectOption switches the send path to the external-API variant for the
// option with the given id. An empty id clears the selection.
func (c *Controller) SelectOption(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		c.selected = nil
		return true
	}
	for i := range c.options {
		if c.options[i].ID == id {
			option := c.options[i]
			c.selected = &option
			return true
		}
	}
	return false
}

func (c *Controller) ChatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatID
}

func (c *Controller) Messages() []entity.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.Message{}, c.messages...)
}

func (c *Controller) AttachedFiles() []entity.UploadedFileInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.UploadedFileInfo{}, c.attachedFiles...)
}

func (c *Controller) Options() []entity.OptionItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.OptionItem{}, c.options...)
}

func (c *Controller) SelectedOption() *entity.OptionItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return nil
	}
	option := *c.selected
	return &option
}

func (c *Controller) Streaming() *entity.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.streaming == nil {
		return nil
	}
	snapshot := *c.streaming
	return &snapshot
}

func (c *Controller) Flags() StatusSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return StatusSnapshot{
		IsLoading:   c.isLoading,
		IsThinking:  c.isThinking,
		IsUploading: c.isUploading,
	}
}

func (c *Controller) markMessageLocked(id, chatID string, status entity.MessageStatus) {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Status = status
			if chatID != "" {
				c.messages[i].ChatID = chatID
			}
			return
		}
	}
}

func (c *Controller) emitStatus() {
	c.emit(Event{Type: EventStatus, Status: &StatusSnapshot{
		IsLoading:   c.isLoading,
		IsThinking:  c.isThinking,
		IsUploading: c.isUploading,
	}})
}

// emit never blocks the state machine: events to a full or abandoned channel
// are dropped.
func (c *Controller) emit(ev Event) {
	select {
	case <-c.ctx.Done():
	case c.events <- ev:
	default:
	}
}

func fmtFilesUploaded(n int) string {
	if n == 1 {
		return "1 file uploaded successfully"
	}
	return fmt.Sprintf("%d files uploaded successfully", n)
}
