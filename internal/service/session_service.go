package service

import (
	"context"
	"errors"
	"time"

	"chat-portal/internal/entity"
	"chat-portal/internal/repository/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoSession = errors.New("no active session")

// ISessionService is the credential pass-through adapter. It never validates
// the backend token itself; it only wraps whatever the login call produced
// into a locally signed session token.
type ISessionService interface {
	Exchange(ctx context.Context, username, accessToken, rawUser string) (*entity.Session, string, error)
	Resolve(ctx context.Context, token string) (*entity.Session, error)
	Destroy(ctx context.Context, token string) error
}

type sessionService struct {
	repo   *memory.SessionRepository
	secret []byte
	ttl    time.Duration
}

func NewSessionService(repo *memory.SessionRepository, secret string, ttl time.Duration) ISessionService {
	return &sessionService{
		repo:   repo,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Exchange wraps a backend-issued token into a session and returns the signed
// local token for the cookie. Returns ErrNoSession when username or token is
// missing; the token's authenticity is the backend's problem.
func (s *sessionService) Exchange(ctx context.Context, username, accessToken, rawUser string) (*entity.Session, string, error) {
	if username == "" || accessToken == "" {
		return nil, "", ErrNoSession
	}

	sess := &entity.Session{
		ID:          uuid.NewString(),
		UserID:      username,
		Username:    username,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		RawUser:     rawUser,
		CreatedAt:   time.Now(),
	}

	claims := jwt.MapClaims{
		"sid": sess.ID,
		"sub": username,
		"exp": time.Now().Add(s.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, "", err
	}

	s.repo.Save(sess)
	return sess, signed, nil
}

func (s *sessionService) Resolve(ctx context.Context, token string) (*entity.Session, error) {
	sid, err := s.sessionID(token)
	if err != nil {
		return nil, err
	}
	sess, found := s.repo.Get(sid)
	if !found {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (s *sessionService) Destroy(ctx context.Context, token string) error {
	sid, err := s.sessionID(token)
	if err != nil {
		return err
	}
	s.repo.Delete(sid)
	return nil
}

func (s *sessionService) sessionID(token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrNoSession
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrNoSession
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", ErrNoSession
	}
	return sid, nil
}
