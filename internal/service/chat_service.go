package service

import (
	"context"
	"encoding/json"
	"sync"

	"chat-portal/internal/entity"
	"chat-portal/internal/pkg/logger"
	"chat-portal/pkg/backend"
	"chat-portal/pkg/chat"
)

// IChatService owns the per-conversation controllers and the session-scoped
// sidebar cache, and fronts the backend gateway for the proxy routes.
type IChatService interface {
	Controller(ctx context.Context, sess *entity.Session, chatID string) *chat.Controller
	Release(sess *entity.Session, chatID string)

	ListChats(ctx context.Context, sess *entity.Session) ([]entity.Chat, error)
	CachedChats(sess *entity.Session) ([]entity.Chat, bool)
	GetChatMessages(ctx context.Context, sess *entity.Session, chatID string) ([]entity.Message, error)
	DeleteChat(ctx context.Context, sess *entity.Session, chatID string) error
	NewConversation(ctx context.Context, sess *entity.Session, message string) (json.RawMessage, error)
	SendMessage(ctx context.Context, sess *entity.Session, chatID, content string, sourceFileID *string) (*entity.Message, error)
	ListOptions(ctx context.Context, sess *entity.Session) ([]entity.OptionItem, error)
	UploadFiles(ctx context.Context, sess *entity.Session, chatID string, files []backend.UploadFile) ([]entity.UploadedFileInfo, error)
	DeleteFile(ctx context.Context, sess *entity.Session, fileID string) error
}

type chatService struct {
	gateway *backend.Client
	logger  logger.ILogger

	mu          sync.Mutex
	controllers map[string]*chat.Controller

	chatsMu sync.RWMutex
	chats   map[string][]entity.Chat // sessionID -> sidebar cache
}

func NewChatService(gateway *backend.Client, log logger.ILogger) IChatService {
	return &chatService{
		gateway:     gateway,
		logger:      log,
		controllers: make(map[string]*chat.Controller),
		chats:       make(map[string][]entity.Chat),
	}
}

func controllerKey(sess *entity.Session, chatID string) string {
	return sess.ID + "/" + chatID
}

// Controller returns the live controller for this session+chat, creating and
// bootstrapping one on first use. The same instance is shared between the
// stream connection and the upload route so attachment state stays in one
// place.
func (s *chatService) Controller(ctx context.Context, sess *entity.Session, chatID string) *chat.Controller {
	key := controllerKey(sess, chatID)

	s.mu.Lock()
	ctrl, ok := s.controllers[key]
	if !ok {
		ctrl = chat.NewController(s.gateway, sess, chatID, s.logger)
		s.controllers[key] = ctrl
	}
	s.mu.Unlock()

	if !ok {
		ctrl.Bootstrap(ctx)
	}
	return ctrl
}

func (s *chatService) Release(sess *entity.Session, chatID string) {
	key := controllerKey(sess, chatID)

	s.mu.Lock()
	ctrl, ok := s.controllers[key]
	if ok {
		delete(s.controllers, key)
	}
	s.mu.Unlock()

	if ok {
		ctrl.Close()
	}
}

func (s *chatService) ListChats(ctx context.Context, sess *entity.Session) ([]entity.Chat, error) {
	chats, err := s.gateway.ListChats(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.chatsMu.Lock()
	s.chats[sess.ID] = chats
	s.chatsMu.Unlock()
	return chats, nil
}

func (s *chatService) CachedChats(sess *entity.Session) ([]entity.Chat, bool) {
	s.chatsMu.RLock()
	defer s.chatsMu.RUnlock()
	chats, ok := s.chats[sess.ID]
	if !ok {
		return nil, false
	}
	return append([]entity.Chat{}, chats...), true
}

func (s *chatService) GetChatMessages(ctx context.Context, sess *entity.Session, chatID string) ([]entity.Message, error) {
	return s.gateway.GetChatMessages(ctx, sess, chatID)
}

// DeleteChat removes the chat upstream first; the cached sidebar entry is
// dropped only after the backend confirms, so a failed delete leaves the
// local list untouched.
func (s *chatService) DeleteChat(ctx context.Context, sess *entity.Session, chatID string) error {
	if err := s.gateway.DeleteChat(ctx, sess, chatID); err != nil {
		return err
	}

	s.chatsMu.Lock()
	cached := s.chats[sess.ID]
	remaining := make([]entity.Chat, 0, len(cached))
	for _, c := range cached {
		if c.ID != chatID {
			remaining = append(remaining, c)
		}
	}
	s.chats[sess.ID] = remaining
	s.chatsMu.Unlock()
	return nil
}

func (s *chatService) NewConversation(ctx context.Context, sess *entity.Session, message string) (json.RawMessage, error) {
	return s.gateway.NewConversation(ctx, sess, message)
}

func (s *chatService) SendMessage(ctx context.Context, sess *entity.Session, chatID, content string, sourceFileID *string) (*entity.Message, error) {
	return s.gateway.SendMessage(ctx, sess, chatID, content, sourceFileID)
}

func (s *chatService) ListOptions(ctx context.Context, sess *entity.Session) ([]entity.OptionItem, error) {
	return s.gateway.ListOptions(ctx, sess)
}

// UploadFiles routes through the live controller when one exists, so stream
// subscribers see the upload events and the attachment snapshot stays
// authoritative. Without a controller it is a plain gateway relay.
func (s *chatService) UploadFiles(ctx context.Context, sess *entity.Session, chatID string, files []backend.UploadFile) ([]entity.UploadedFileInfo, error) {
	s.mu.Lock()
	ctrl, ok := s.controllers[controllerKey(sess, chatID)]
	s.mu.Unlock()

	if ok {
		return ctrl.AttachFiles(ctx, files)
	}
	return s.gateway.UploadFiles(ctx, sess, files)
}

func (s *chatService) DeleteFile(ctx context.Context, sess *entity.Session, fileID string) error {
	return s.gateway.DeleteFile(ctx, sess, fileID)
}
