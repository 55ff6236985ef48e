package dto

import "time"

// LoginRequest carries the shared admin passcode.
type LoginRequest struct {
	Passcode string `json:"passcode" validate:"required,max=1024"`
}

// LoginResponse returns the bearer token for the new session.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	FirstRun  bool      `json:"first_run"`
}

// AuthStatusResponse tells clients whether a passcode must be chosen first.
type AuthStatusResponse struct {
	PasscodeSet   bool `json:"passcode_set"`
	MinimumLength int  `json:"minimum_length"`
}
