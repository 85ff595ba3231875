package types

// TokenType represents the type of authentication token.
type TokenType string

const (
	TokenTypeAdmin   TokenType = "admin"
	TokenTypeSession TokenType = "session"
)

// AuthInfo contains identity information for authenticated requests.
type AuthInfo struct {
	TokenType TokenType
	Email     string
	SessionId string
}

func (a *AuthInfo) IsAdmin() bool {
	return a != nil && a.TokenType == TokenTypeAdmin
}

func (a *AuthInfo) IsUser() bool {
	return a != nil && a.TokenType == TokenTypeSession && a.Email != ""
}
