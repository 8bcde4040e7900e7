package entity

import "time"

// Session is the local credential wrapper created at login. It carries the
// backend-issued bearer token for the lifetime of the browser session and is
// never refreshed; sign-out destroys it.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	AccessToken string    `json:"-"`
	TokenType   string    `json:"token_type"`
	RawUser     string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// BearerToken is the Authorization header value for backend calls.
func (s *Session) BearerToken() string {
	return "Bearer " + s.AccessToken
}
