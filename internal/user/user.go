package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid sign-up details")
	ErrRateLimited        = errors.New("too many login attempts")
)

// User is an account. PasswordHash is empty for users that only sign in
// with Google.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	AvatarURL    string
	PasswordHash string
	GoogleID     string
	CreatedAt    time.Time
}

// GoogleProfile is the identity returned by a completed Google sign-in.
type GoogleProfile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}
