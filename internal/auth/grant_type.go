package auth

import (
	"github.com/go-oauth2/oauth2/v4"
)

// GrantType is the closed set of grants this server can issue tokens for.
type GrantType int

const (
	GrantAuthorizationCode GrantType = iota + 1
	GrantPassword
	GrantRefreshToken
)

// AllGrantTypes lists every supported grant in dispatch order.
var AllGrantTypes = []GrantType{GrantAuthorizationCode, GrantPassword, GrantRefreshToken}

// ParseGrantType maps the grant_type form value onto the enum.
func ParseGrantType(value string) (GrantType, error) {
	switch oauth2.GrantType(value) {
	case oauth2.AuthorizationCode:
		return GrantAuthorizationCode, nil
	case oauth2.PasswordCredentials:
		return GrantPassword, nil
	case oauth2.Refreshing:
		return GrantRefreshToken, nil
	case "":
		return 0, newError(ErrInvalidRequest, "grant_type is required")
	default:
		return 0, newError(ErrUnsupportedGrantType, "grant type "+value+" is not supported")
	}
}

// String returns the wire name of the grant, as stored in a client's
// allowed_grant_types.
func (g GrantType) String() string {
	switch g {
	case GrantAuthorizationCode:
		return string(oauth2.AuthorizationCode)
	case GrantPassword:
		return string(oauth2.PasswordCredentials)
	case GrantRefreshToken:
		return string(oauth2.Refreshing)
	default:
		return "unknown"
	}
}
