package dto

import "time"

// CredentialsRequest is the body of POST /users and POST /login. Passwords are
// bounded in bytes because bcrypt rejects inputs over 72 bytes.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// TokenResponse is returned by POST /login.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterResponse is returned by POST /users.
type RegisterResponse struct {
	User UserResponse `json:"user"`
	TokenResponse
}
