package controllers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/franciscosanchezn/gin-hr-identity/internal/auth"
	"github.com/franciscosanchezn/gin-hr-identity/internal/middleware"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeRendersLoginPage(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/oauth/authorize?"+app.authorizeQuery("profile email", "xyz").Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, "Payroll wants to access your account")
	assert.Contains(t, body, `name="state" value="xyz"`)
	assert.Contains(t, body, "<li>email</li>")
	assert.Contains(t, body, `action="/oauth/allow"`)
}

func TestAuthorizeErrors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name       string
		query      func(url.Values)
		wantStatus int
		wantError  string
	}{
		{"unknown client", func(q url.Values) { q.Set("client_id", "nope") }, http.StatusUnauthorized, "invalid_client"},
		{"missing redirect", func(q url.Values) { q.Del("redirect_uri") }, http.StatusBadRequest, "invalid_request"},
		{"foreign redirect", func(q url.Values) { q.Set("redirect_uri", "https://evil.example.com/cb") }, http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := app.authorizeQuery("profile", "s1")
			tt.query(q)
			w := app.get("/oauth/authorize?"+q.Encode(), nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Empty(t, w.Header().Get("Location"), "never redirect to an unverified URI")
			assert.Contains(t, w.Body.String(), tt.wantError)
		})
	}

	redirected := []struct {
		name      string
		query     func(url.Values)
		wantError string
	}{
		{"unsupported response type", func(q url.Values) { q.Set("response_type", "token") }, "unsupported_response_type"},
		{"unknown scope", func(q url.Values) { q.Set("scope", "salary") }, "invalid_scope"},
	}

	for _, tt := range redirected {
		t.Run(tt.name, func(t *testing.T) {
			q := app.authorizeQuery("profile", "s1")
			tt.query(q)
			location, params := redirectQuery(t, app.get("/oauth/authorize?"+q.Encode(), nil))
			assert.Equal(t, "payroll.example.com", location.Host)
			assert.Equal(t, tt.wantError, params.Get("error"))
			assert.Equal(t, "s1", params.Get("state"))
			assert.Empty(t, params.Get("code"))
		})
	}
}

func allowForm(q url.Values, username, password string) url.Values {
	form := url.Values{}
	for k, v := range q {
		form[k] = v
	}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("action", "allow")
	return form
}

func TestAllowIssuesCodeAndStartsSession(t *testing.T) {
	app := newTestApp(t)
	q := app.authorizeQuery("profile email", "state-1")

	w := app.postForm("/oauth/allow", allowForm(q, employeeEmail, employeePass), nil)
	location, params := redirectQuery(t, w)
	assert.True(t, strings.HasPrefix(location.String(), payrollRedirect+"?"))
	assert.NotEmpty(t, params.Get("code"))
	assert.Equal(t, "state-1", params.Get("state"))

	session := findCookie(w, middleware.SessionCookieName)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	// With a session the authorize endpoint redirects straight away
	_, again := redirectQuery(t, app.get("/oauth/authorize?"+app.authorizeQuery("profile", "state-2").Encode(), nil, session))
	assert.NotEmpty(t, again.Get("code"))
	assert.NotEqual(t, params.Get("code"), again.Get("code"))
	assert.Equal(t, "state-2", again.Get("state"))
}

func TestAllowRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm("/oauth/allow", allowForm(app.authorizeQuery("profile", "s"), employeeEmail, "wrong"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Could not authenticate")
	assert.Contains(t, w.Body.String(), `value="`+employeeEmail+`"`)
	assert.Nil(t, findCookie(w, middleware.SessionCookieName))
	assert.Empty(t, w.Header().Get("Location"))
}

func TestAllowDeny(t *testing.T) {
	app := newTestApp(t)
	form := app.authorizeQuery("profile", "s")
	form.Set("action", "deny")

	_, params := redirectQuery(t, app.postForm("/oauth/allow", form, nil))
	assert.Equal(t, "access_denied", params.Get("error"))
	assert.Equal(t, "s", params.Get("state"))
	assert.Empty(t, params.Get("code"))
}

func (a *testApp) obtainCode(t *testing.T, scope string) string {
	t.Helper()
	_, params := redirectQuery(t, a.postForm("/oauth/allow", allowForm(a.authorizeQuery(scope, "s"), employeeEmail, employeePass), nil))
	return params.Get("code")
}

func basicAuth(id, secret string) http.Header {
	req, _ := http.NewRequest(http.MethodPost, "/", nil)
	req.SetBasicAuth(url.QueryEscape(id), url.QueryEscape(secret))
	return req.Header
}

func decodeToken(t *testing.T, body []byte) auth.TokenResponse {
	t.Helper()
	var token auth.TokenResponse
	require.NoError(t, json.Unmarshal(body, &token))
	return token
}

func decodeOAuthError(t *testing.T, body []byte) models.OAuth2Error {
	t.Helper()
	var oerr models.OAuth2Error
	require.NoError(t, json.Unmarshal(body, &oerr))
	return oerr
}

func TestTokenEndpointAuthorizationCode(t *testing.T) {
	app := newTestApp(t)
	code := app.obtainCode(t, "profile email")

	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {payrollRedirect},
	}
	w := app.postForm("/oauth/token", form, basicAuth(app.payrollID, app.payrollSecret))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))

	token := decodeToken(t, w.Body.Bytes())
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, "profile email", token.Scope)
	assert.Equal(t, int64(3600), token.ExpiresIn)
	assert.NotEmpty(t, token.RefreshToken)

	info := app.get("/userinfo", bearer(token.AccessToken))
	require.Equal(t, http.StatusOK, info.Code)
	var user map[string]any
	require.NoError(t, json.Unmarshal(info.Body.Bytes(), &user))
	assert.Equal(t, "emp-0001", user["sub"])
	assert.Equal(t, "ali", user["nickname"])
	assert.Equal(t, "Alice", user["given_name"])
	assert.Equal(t, employeeEmail, user["email"])
	assert.Contains(t, user, "avatar")
	assert.Nil(t, user["avatar"])

	t.Run("code is single use", func(t *testing.T) {
		w := app.postForm("/oauth/token", form, basicAuth(app.payrollID, app.payrollSecret))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_grant", decodeOAuthError(t, w.Body.Bytes()).Error)
	})
}

func TestTokenEndpointClientAuthentication(t *testing.T) {
	app := newTestApp(t)

	t.Run("wrong secret over basic auth", func(t *testing.T) {
		form := url.Values{"grant_type": {"authorization_code"}, "code": {app.obtainCode(t, "profile")}}
		w := app.postForm("/oauth/token", form, basicAuth(app.payrollID, "wrong"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
		oerr := decodeOAuthError(t, w.Body.Bytes())
		assert.Equal(t, "invalid_client", oerr.Error)
		assert.Equal(t, "Client authentication failed", oerr.ErrorDescription)
	})

	t.Run("credentials in the form", func(t *testing.T) {
		form := url.Values{
			"grant_type":    {"authorization_code"},
			"code":          {app.obtainCode(t, "profile")},
			"client_id":     {app.payrollID},
			"client_secret": {app.payrollSecret},
		}
		w := app.postForm("/oauth/token", form, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Empty(t, w.Header().Get("WWW-Authenticate"))
	})

	t.Run("unsupported grant type", func(t *testing.T) {
		form := url.Values{"grant_type": {"client_credentials"}, "client_id": {app.payrollID}}
		w := app.postForm("/oauth/token", form, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "unsupported_grant_type", decodeOAuthError(t, w.Body.Bytes()).Error)
	})
}

func TestTokenEndpointPasswordGrant(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {app.mobileID},
		"username":   {employeeEmail},
		"password":   {employeePass},
	}
	w := app.postForm("/oauth/token", form, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "profile", decodeToken(t, w.Body.Bytes()).Scope)

	form.Set("password", "wrong")
	w = app.postForm("/oauth/token", form, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_credentials", decodeOAuthError(t, w.Body.Bytes()).Error)
}

func TestRevokeEndpoint(t *testing.T) {
	app := newTestApp(t)
	token := app.passwordToken(t, employeeEmail, employeePass)

	w := app.postForm("/oauth/revoke", url.Values{
		"client_id":       {app.mobileID},
		"token":           {token.RefreshToken},
		"token_type_hint": {"refresh_token"},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Revoking the refresh token also revokes its access token
	assert.Equal(t, http.StatusUnauthorized, app.get("/userinfo", bearer(token.AccessToken)).Code)

	w = app.postForm("/oauth/token", url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {app.mobileID},
		"refresh_token": {token.RefreshToken},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_grant", decodeOAuthError(t, w.Body.Bytes()).Error)

	t.Run("unknown tokens are ignored", func(t *testing.T) {
		w := app.postForm("/oauth/revoke", url.Values{"client_id": {app.mobileID}, "token": {"unknown"}}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("token is required", func(t *testing.T) {
		w := app.postForm("/oauth/revoke", url.Values{"client_id": {app.mobileID}}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", decodeOAuthError(t, w.Body.Bytes()).Error)
	})
}

func TestUserInfoRejections(t *testing.T) {
	app := newTestApp(t)

	for name, header := range map[string]http.Header{
		"missing header": nil,
		"basic scheme":   {"Authorization": {"Basic Zm9vOmJhcg=="}},
		"garbage token":  bearer("not-a-jwt"),
	} {
		t.Run(name, func(t *testing.T) {
			w := app.get("/userinfo", header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
			oerr := decodeOAuthError(t, w.Body.Bytes())
			assert.Equal(t, "unauthorized_token", oerr.Error)
			assert.Equal(t, "invalid access token", oerr.ErrorDescription)
		})
	}
}

func TestLogoutRevokesTokensAndClearsSession(t *testing.T) {
	app := newTestApp(t)

	allowed := app.postForm("/oauth/allow", allowForm(app.authorizeQuery("profile", "s"), employeeEmail, employeePass), nil)
	session := findCookie(allowed, middleware.SessionCookieName)
	require.NotNil(t, session)
	token := app.passwordToken(t, employeeEmail, employeePass)
	require.Equal(t, http.StatusOK, app.get("/userinfo", bearer(token.AccessToken)).Code)

	w := app.postForm("/oauth/logout", url.Values{}, nil, session)
	assert.Equal(t, http.StatusNoContent, w.Code)
	cleared := findCookie(w, middleware.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	assert.Equal(t, http.StatusUnauthorized, app.get("/userinfo", bearer(token.AccessToken)).Code)

	// Without the session the login page is shown again
	assert.Equal(t, http.StatusOK, app.get("/oauth/authorize?"+app.authorizeQuery("profile", "s").Encode(), nil).Code)
}
