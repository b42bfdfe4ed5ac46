package auth

import (
	"errors"
	"fmt"
	"net/http"

	oauth2errors "github.com/go-oauth2/oauth2/v4/errors"
)

// OAuth error kinds. The standard RFC 6749 kinds are shared with go-oauth2 so
// their string values are the wire error codes.
var (
	ErrInvalidRequest          = oauth2errors.ErrInvalidRequest
	ErrInvalidClient           = oauth2errors.ErrInvalidClient
	ErrInvalidGrant            = oauth2errors.ErrInvalidGrant
	ErrUnauthorizedClient      = oauth2errors.ErrUnauthorizedClient
	ErrUnsupportedGrantType    = oauth2errors.ErrUnsupportedGrantType
	ErrUnsupportedResponseType = oauth2errors.ErrUnsupportedResponseType
	ErrInvalidScope            = oauth2errors.ErrInvalidScope
	ErrAccessDenied            = oauth2errors.ErrAccessDenied

	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUnauthorizedToken  = errors.New("unauthorized_token")
	ErrInternal           = errors.New("internal_error")
)

// Credential store errors
var (
	ErrNotFound       = errors.New("record not found")
	ErrAlreadyClaimed = errors.New("record already claimed or no longer active")
)

var statusCodes = map[error]int{
	ErrInvalidClient:     http.StatusUnauthorized,
	ErrUnauthorizedToken: http.StatusUnauthorized,
	ErrAccessDenied:      http.StatusForbidden,
	ErrInternal:          http.StatusInternalServerError,
}

var descriptions = map[error]string{
	ErrInvalidClient:      "Client authentication failed",
	ErrInvalidCredentials: "The user credentials were incorrect",
	ErrUnauthorizedToken:  "invalid access token",
	ErrInternal:           "The server encountered an unexpected condition",
}

// OAuthError is the single error type returned by the authorization and
// resource servers. Kind is one of the Err* kinds above and decides the wire
// code and HTTP status; Cause is for server-side logs only.
type OAuthError struct {
	Kind        error
	Description string
	Cause       error
}

func newError(kind error, description string) *OAuthError {
	return &OAuthError{Kind: kind, Description: description}
}

func internalError(cause error) *OAuthError {
	return &OAuthError{Kind: ErrInternal, Cause: cause}
}

func (e *OAuthError) Error() string {
	msg := e.Code()
	if d := e.Message(); d != "" {
		msg += ": " + d
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes the kind so errors.Is(err, ErrInvalidGrant) works.
func (e *OAuthError) Unwrap() error {
	return e.Kind
}

// Code is the RFC 6749 "error" value.
func (e *OAuthError) Code() string {
	return e.Kind.Error()
}

// Message is the client-facing error_description. Internal errors never
// carry a custom description.
func (e *OAuthError) Message() string {
	if e.Kind == ErrInternal {
		return descriptions[ErrInternal]
	}
	if e.Description != "" {
		return e.Description
	}
	if d, ok := descriptions[e.Kind]; ok {
		return d
	}
	return oauth2errors.Descriptions[e.Kind]
}

func (e *OAuthError) StatusCode() int {
	if code, ok := statusCodes[e.Kind]; ok {
		return code
	}
	return http.StatusBadRequest
}

// AsOAuthError normalizes any error into an *OAuthError. Anything that is not
// already one becomes internal_error.
func AsOAuthError(err error) *OAuthError {
	if err == nil {
		return nil
	}
	var oerr *OAuthError
	if errors.As(err, &oerr) {
		return oerr
	}
	return internalError(err)
}
