package auth

import (
	"net/url"
	"strings"
	"time"
)

// AuthorizationRequest carries the /oauth/authorize query parameters plus the
// authenticated user, if any.
type AuthorizationRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	State        string
	UserID       string
}

// AuthorizationResponse is the approved outcome of an authorization request.
type AuthorizationResponse struct {
	Code        string
	State       string
	RedirectURI string
	ExpiresAt   time.Time
}

// RedirectURL appends code and state to the client's redirect URI, keeping
// any query the client registered.
func (r *AuthorizationResponse) RedirectURL() (string, error) {
	u, err := url.Parse(r.RedirectURI)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("code", r.Code)
	if r.State != "" {
		q.Set("state", r.State)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TokenRequest is the form body of POST /oauth/token.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
	Username     string
	Password     string
	RefreshToken string
	Scope        string
}

// TokenResponse is the RFC 6749 section 5.1 success body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// TokenResult is what a grant handler produces before it is put on the wire.
type TokenResult struct {
	AccessToken   string
	AccessTokenID string
	ExpiresAt     time.Time
	RefreshToken  string
	UserID        string
	Scopes        []string
}

func (r *TokenResult) response(now time.Time) *TokenResponse {
	expiresIn := int64(r.ExpiresAt.Sub(now).Round(time.Second) / time.Second)
	if expiresIn < 0 {
		expiresIn = 0
	}
	return &TokenResponse{
		AccessToken:  r.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    expiresIn,
		RefreshToken: r.RefreshToken,
		Scope:        strings.Join(r.Scopes, " "),
	}
}

// UserInfo is the identity returned to relying applications.
type UserInfo struct {
	Sub       string  `json:"sub"`
	Nickname  string  `json:"nickname"`
	GivenName string  `json:"given_name"`
	Email     string  `json:"email"`
	Avatar    *string `json:"avatar"`
}

// ParseScopes splits a space-delimited scope parameter.
func ParseScopes(scope string) []string {
	return strings.Fields(scope)
}
