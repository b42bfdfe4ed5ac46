package controllers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/franciscosanchezn/gin-hr-identity/internal/auth"
	"github.com/franciscosanchezn/gin-hr-identity/internal/middleware"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/franciscosanchezn/gin-hr-identity/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type OAuthController struct {
	server      *auth.AuthorizationServer
	resource    *auth.ResourceServer
	userService services.UserService
	sessions    *middleware.SessionManager
	log         logrus.FieldLogger
}

func NewOAuthController(server *auth.AuthorizationServer, resource *auth.ResourceServer, userService services.UserService, sessions *middleware.SessionManager, log logrus.FieldLogger) *OAuthController {
	return &OAuthController{
		server:      server,
		resource:    resource,
		userService: userService,
		sessions:    sessions,
		log:         log,
	}
}

// Authorize godoc
// @Summary Authorization endpoint
// @Description Starts the authorization code flow. Anonymous users get the login and consent page; users with a session are redirected back to the client with a code.
// @Tags OAuth2
// @Produce html
// @Param response_type query string false "Must be code"
// @Param client_id query string true "Client ID"
// @Param redirect_uri query string true "Registered redirect URI"
// @Param scope query string false "Space-separated scopes"
// @Param state query string false "Opaque value echoed back to the client"
// @Success 200 {string} string "Login and consent page"
// @Success 302 "Redirect to the client with code and state"
// @Failure 400 {string} string "Error page"
// @Router /oauth/authorize [get]
func (oc *OAuthController) Authorize(c *gin.Context) {
	req := &auth.AuthorizationRequest{
		ResponseType: c.Query("response_type"),
		ClientID:     c.Query("client_id"),
		RedirectURI:  c.Query("redirect_uri"),
		Scope:        c.Query("scope"),
		State:        c.Query("state"),
		UserID:       c.GetString(middleware.ContextSessionUserID),
	}

	client, scopes, err := oc.server.ValidateAuthorizationRequest(c.Request.Context(), req)
	if err != nil {
		oc.authorizationFailed(c, req, err)
		return
	}
	if req.UserID != "" {
		oc.approve(c, req)
		return
	}

	renderPage(c, http.StatusOK, "authorize.html", consentPage{
		ClientName: client.Name,
		Scopes:     scopes,
		Request:    req,
	})
}

// Allow godoc
// @Summary Approve an authorization request
// @Description Submitted by the login and consent page. Authenticates the user, starts a login session and redirects back to the client with a code.
// @Tags OAuth2
// @Accept x-www-form-urlencoded
// @Produce html
// @Param client_id formData string true "Client ID"
// @Param redirect_uri formData string true "Registered redirect URI"
// @Param scope formData string false "Space-separated scopes"
// @Param state formData string false "Opaque value echoed back to the client"
// @Param username formData string false "User email"
// @Param password formData string false "User password"
// @Param action formData string false "allow or deny"
// @Success 302 "Redirect to the client"
// @Failure 401 {string} string "Could not authenticate"
// @Router /oauth/allow [post]
func (oc *OAuthController) Allow(c *gin.Context) {
	ctx := c.Request.Context()
	req := &auth.AuthorizationRequest{
		ResponseType: c.PostForm("response_type"),
		ClientID:     c.PostForm("client_id"),
		RedirectURI:  c.PostForm("redirect_uri"),
		Scope:        c.PostForm("scope"),
		State:        c.PostForm("state"),
		UserID:       c.GetString(middleware.ContextSessionUserID),
	}

	client, scopes, err := oc.server.ValidateAuthorizationRequest(ctx, req)
	if err != nil {
		oc.authorizationFailed(c, req, err)
		return
	}

	if c.PostForm("action") == "deny" {
		oc.redirectWithError(c, req, &auth.OAuthError{Kind: auth.ErrAccessDenied, Description: "The user denied the request"})
		return
	}

	if req.UserID == "" {
		username := c.PostForm("username")
		user, err := oc.userService.Authenticate(ctx, username, c.PostForm("password"))
		if errors.Is(err, services.ErrInvalidCredentials) {
			oc.log.WithField("client_id", client.ID).Info("Login failed on the authorization page")
			renderPage(c, http.StatusUnauthorized, "authorize.html", consentPage{
				ClientName: client.Name,
				Scopes:     scopes,
				Request:    req,
				Username:   username,
				Error:      "Could not authenticate with the given email and password.",
			})
			return
		}
		if err != nil {
			oc.authorizationFailed(c, req, err)
			return
		}
		if err := oc.sessions.Start(c, user.ID); err != nil {
			oc.authorizationFailed(c, req, err)
			return
		}
		req.UserID = user.Identifier()
	}

	oc.approve(c, req)
}

func (oc *OAuthController) approve(c *gin.Context, req *auth.AuthorizationRequest) {
	resp, err := oc.server.HandleAuthorizationRequest(c.Request.Context(), req)
	if err != nil {
		oc.authorizationFailed(c, req, err)
		return
	}
	location, err := resp.RedirectURL()
	if err != nil {
		oc.authorizationFailed(c, req, err)
		return
	}
	c.Redirect(http.StatusFound, location)
}

// authorizationFailed sends the error back to the client when its redirect
// URI was verified, and renders an error page otherwise.
func (oc *OAuthController) authorizationFailed(c *gin.Context, req *auth.AuthorizationRequest, err error) {
	oerr := auth.AsOAuthError(err)
	if errors.Is(oerr, auth.ErrInternal) {
		oc.log.WithError(oerr.Cause).Error("Authorization request failed")
	}

	if errors.Is(oerr, auth.ErrInvalidClient) || errors.Is(oerr, auth.ErrInvalidRequest) || errors.Is(oerr, auth.ErrInternal) {
		renderPage(c, oerr.StatusCode(), "error.html", errorPage{Code: oerr.Code(), Description: oerr.Message()})
		return
	}
	oc.redirectWithError(c, req, oerr)
}

func (oc *OAuthController) redirectWithError(c *gin.Context, req *auth.AuthorizationRequest, oerr *auth.OAuthError) {
	u, err := url.Parse(req.RedirectURI)
	if err != nil {
		renderPage(c, http.StatusBadRequest, "error.html", errorPage{Code: oerr.Code(), Description: oerr.Message()})
		return
	}
	q := u.Query()
	q.Set("error", oerr.Code())
	q.Set("error_description", oerr.Message())
	if req.State != "" {
		q.Set("state", req.State)
	}
	u.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, u.String())
}

// Token godoc
// @Summary Token endpoint
// @Description Exchanges an authorization code, user credentials or a refresh token for an access token. Client credentials may be sent with HTTP Basic or in the form.
// @Tags OAuth2
// @Accept x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "authorization_code, password or refresh_token"
// @Param client_id formData string false "Client ID, when not using HTTP Basic"
// @Param client_secret formData string false "Client secret, when not using HTTP Basic"
// @Param code formData string false "Authorization code"
// @Param redirect_uri formData string false "Redirect URI used to obtain the code"
// @Param username formData string false "User email"
// @Param password formData string false "User password"
// @Param refresh_token formData string false "Refresh token"
// @Param scope formData string false "Space-separated scopes"
// @Success 200 {object} auth.TokenResponse
// @Failure 400 {object} models.OAuth2Error
// @Failure 401 {object} models.OAuth2Error
// @Failure 500 {object} models.OAuth2Error
// @Router /oauth/token [post]
func (oc *OAuthController) Token(c *gin.Context) {
	clientID, clientSecret, basic := clientCredentials(c)
	c.Set(middleware.ContextClientID, clientID)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	resp, err := oc.server.HandleTokenRequest(c.Request.Context(), &auth.TokenRequest{
		GrantType:    c.PostForm("grant_type"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Code:         c.PostForm("code"),
		RedirectURI:  c.PostForm("redirect_uri"),
		Username:     c.PostForm("username"),
		Password:     c.PostForm("password"),
		RefreshToken: c.PostForm("refresh_token"),
		Scope:        c.PostForm("scope"),
	})
	if err != nil {
		respondWithOAuthError(c, err, basic)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Revoke godoc
// @Summary Revoke a token
// @Description Revokes an access or refresh token held by the calling client. Unknown tokens are ignored.
// @Tags OAuth2
// @Accept x-www-form-urlencoded
// @Produce json
// @Param token formData string true "Token to revoke"
// @Param token_type_hint formData string false "access_token or refresh_token"
// @Success 200 "Token revoked or ignored"
// @Failure 400 {object} models.OAuth2Error
// @Failure 401 {object} models.OAuth2Error
// @Router /oauth/revoke [post]
func (oc *OAuthController) Revoke(c *gin.Context) {
	clientID, clientSecret, basic := clientCredentials(c)
	c.Set(middleware.ContextClientID, clientID)

	err := oc.server.RevokeToken(c.Request.Context(), clientID, clientSecret, c.PostForm("token"), c.PostForm("token_type_hint"))
	if err != nil {
		respondWithOAuthError(c, err, basic)
		return
	}
	c.Status(http.StatusOK)
}

// UserInfo godoc
// @Summary Current user
// @Description Returns the identity of the user the bearer token was issued to
// @Tags OAuth2
// @Produce json
// @Success 200 {object} auth.UserInfo
// @Failure 401 {object} models.OAuth2Error
// @Security BearerAuth
// @Router /userinfo [get]
func (oc *OAuthController) UserInfo(c *gin.Context) {
	info, err := oc.resource.UserInfo(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		oerr := auth.AsOAuthError(err)
		if oerr.StatusCode() == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", `Bearer realm="hr-identity", error="invalid_token"`)
		}
		c.JSON(oerr.StatusCode(), models.NewOAuth2Error(oerr.Code(), oerr.Message()))
		return
	}
	c.JSON(http.StatusOK, info)
}

// clientCredentials reads HTTP Basic credentials, falling back to the form.
// Basic credentials are form-encoded as RFC 6749 section 2.3.1 requires.
func clientCredentials(c *gin.Context) (id, secret string, basic bool) {
	if user, pass, ok := c.Request.BasicAuth(); ok {
		return formDecode(user), formDecode(pass), true
	}
	return c.PostForm("client_id"), c.PostForm("client_secret"), false
}

func formDecode(s string) string {
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return s
}

func respondWithOAuthError(c *gin.Context, err error, basic bool) {
	oerr := auth.AsOAuthError(err)
	if basic && oerr.StatusCode() == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Basic realm="hr-identity"`)
	}
	c.JSON(oerr.StatusCode(), models.NewOAuth2Error(oerr.Code(), oerr.Message()))
}
