package dto

// Input bounds mirror the login form schema: username min 4, password min 6.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=4"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=4"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// AuthStatus is the structured outcome of an auth action; auth failures are
// reported as a status value, never as a thrown error.
type AuthStatus string

const (
	StatusSuccess     AuthStatus = "success"
	StatusFailed      AuthStatus = "failed"
	StatusInvalidData AuthStatus = "invalid_data"
)
