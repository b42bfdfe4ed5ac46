package models

// APIError is the error body of the admin API. OAuth endpoints answer with
// OAuth2Error instead.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// APIError codes
const (
	ErrUnauthorized     = "UNAUTHORIZED"
	ErrForbidden        = "FORBIDDEN"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrValidationFailed = "VALIDATION_FAILED"
	ErrTooManyRequests  = "TOO_MANY_REQUESTS"

	ErrClientNotFound    = "CLIENT_NOT_FOUND"
	ErrClientInvalidData = "CLIENT_INVALID_DATA"
	ErrUserExists        = "USER_ALREADY_EXISTS"
)

func NewAPIError(code, message string, details ...map[string]interface{}) APIError {
	err := APIError{Code: code, Message: message}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// OAuth2Error is the RFC 6749 section 5.2 error body, also used for RFC 6750
// bearer token errors.
type OAuth2Error struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorURI         string `json:"error_uri,omitempty"`
}

func NewOAuth2Error(code, description string) OAuth2Error {
	return OAuth2Error{Error: code, ErrorDescription: description}
}
