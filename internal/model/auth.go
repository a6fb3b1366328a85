package model

// StatusOK is the status reported by successful authentication responses.
const StatusOK = "ok"

// AuthenticationResponse is returned by registration and login.
type AuthenticationResponse struct {
	Status string `json:"status"`
	JWT    string `json:"jwt"`
}

// NewAuthenticationResponse wraps a freshly issued token.
func NewAuthenticationResponse(token string) *AuthenticationResponse {
	return &AuthenticationResponse{Status: StatusOK, JWT: token}
}
