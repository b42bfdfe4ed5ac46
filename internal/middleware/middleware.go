package middleware

import (
	"net/http"

	"github.com/franciscosanchezn/gin-hr-identity/internal/auth"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/gin-gonic/gin"
)

// Context keys set by BearerAuth
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextClientID = "clientID"
	ContextScopes   = "scopes"
	ContextUser     = "user"
)

// BearerAuth validates the RFC 6750 bearer token of the request against the
// resource server and exposes the token's user, client and scopes in the Gin
// context. Revocation is checked on every request.
func BearerAuth(resourceServer *auth.ResourceServer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Header("WWW-Authenticate", `Bearer realm="hr-identity"`)
			respondWithOAuth2Error(c, http.StatusUnauthorized, "authorization_required",
				"Missing Authorization header. A valid Bearer token is required.")
			return
		}

		claims, user, err := resourceServer.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			oerr := auth.AsOAuthError(err)
			if oerr.StatusCode() == http.StatusUnauthorized {
				c.Header("WWW-Authenticate", `Bearer realm="hr-identity", error="invalid_token"`)
			}
			respondWithOAuth2Error(c, oerr.StatusCode(), oerr.Code(), oerr.Message())
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRole, user.Role)
		c.Set(ContextClientID, claims.ClientID())
		c.Set(ContextScopes, claims.Scopes)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireScope rejects tokens that were not granted scope.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scopes := c.GetStringSlice(ContextScopes)
		for _, s := range scopes {
			if s == scope {
				c.Next()
				return
			}
		}
		c.Header("WWW-Authenticate", `Bearer realm="hr-identity", error="insufficient_scope", scope="`+scope+`"`)
		respondWithOAuth2Error(c, http.StatusForbidden, "insufficient_scope", "The access token is missing the "+scope+" scope")
	}
}

// respondWithOAuth2Error responds with RFC 6750 compliant error format
func respondWithOAuth2Error(c *gin.Context, status int, errorCode, description string) {
	c.AbortWithStatusJSON(status, models.NewOAuth2Error(errorCode, description))
}
