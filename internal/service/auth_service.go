package service

import (
	"context"
	"errors"

	"chat-portal/internal/dto"
	"chat-portal/internal/pkg/logger"
	"chat-portal/pkg/backend"

	"github.com/go-playground/validator/v10"
)

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, dto.AuthStatus)
	Register(ctx context.Context, req *dto.RegisterRequest) dto.AuthStatus
	Logout(ctx context.Context, token string)
}

type authService struct {
	gateway  *backend.Client
	sessions ISessionService
	validate *validator.Validate
	logger   logger.ILogger
}

func NewAuthService(gateway *backend.Client, sessions ISessionService, log logger.ILogger) IAuthService {
	return &authService{
		gateway:  gateway,
		sessions: sessions,
		validate: validator.New(),
		logger:   log,
	}
}

// Login validates the form input, exchanges the credentials with the backend
// and wraps the issued token into a local session. Every failure maps to a
// status value; nothing propagates as an error.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, dto.AuthStatus) {
	if err := s.validate.Struct(req); err != nil {
		return nil, dto.StatusInvalidData
	}

	result, err := s.gateway.Login(ctx, req.Username, req.Password)
	if err != nil {
		var upstream *backend.UpstreamError
		if errors.As(err, &upstream) {
			s.logger.Warn("Auth", "Login rejected by backend", map[string]interface{}{
				"username": req.Username,
				"status":   upstream.Status,
			})
		} else {
			s.logger.Error("Auth", "Login call failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, dto.StatusFailed
	}

	_, token, err := s.sessions.Exchange(ctx, req.Username, result.AccessToken, string(result.User))
	if err != nil {
		s.logger.Error("Auth", "Session exchange failed", map[string]interface{}{"error": err.Error()})
		return nil, dto.StatusFailed
	}

	return &dto.LoginResponse{Token: token, Username: req.Username}, dto.StatusSuccess
}

// Register validates the input and forwards account creation to the backend.
// A username collision or any other backend rejection reports failed.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) dto.AuthStatus {
	if err := s.validate.Struct(req); err != nil {
		return dto.StatusInvalidData
	}

	if err := s.gateway.Register(ctx, req.Username, req.Password); err != nil {
		var upstream *backend.UpstreamError
		if errors.As(err, &upstream) {
			s.logger.Warn("Auth", "Registration rejected by backend", map[string]interface{}{
				"username": req.Username,
				"status":   upstream.Status,
			})
		} else {
			s.logger.Error("Auth", "Registration call failed", map[string]interface{}{"error": err.Error()})
		}
		return dto.StatusFailed
	}
	return dto.StatusSuccess
}

func (s *authService) Logout(ctx context.Context, token string) {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		// Stateless logout still succeeds from the caller's point of view
		s.logger.Debug("Auth", "Logout without resolvable session", nil)
	}
}
