package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrRoleMismatch       = errors.New("auth: selected role does not match")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrRevokedToken       = errors.New("auth: token revoked")
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrEmailTaken         = errors.New("auth: email already registered")
)

// AuthError is a rejected sign-in or session. Message is safe to show to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }
