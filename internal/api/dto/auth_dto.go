package dto

import "time"

// RegisterRequest payload for POST /register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is the self-service success payload: the full token pair.
type RegisterResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RegisterAckResponse is the service-gated success payload. No credentials
// are issued to the end user in that mode.
type RegisterAckResponse struct {
	Message string `json:"message"`
}

// RefreshRequest payload for POST /token/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse carries the newly minted access token.
type RefreshResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ServiceTokenResponse payload for POST /generate-token.
type ServiceTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SecureDataResponse returns the decoded claim set to the caller.
type SecureDataResponse struct {
	Message string         `json:"message"`
	Claims  map[string]any `json:"claims"`
}
