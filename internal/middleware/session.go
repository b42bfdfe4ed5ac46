package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	SessionCookieName = "hr_identity_session"
	// ContextSessionUserID holds the logged-in user id as a string
	ContextSessionUserID = "sessionUserID"
)

type sessionPayload struct {
	UserID    uint  `json:"uid"`
	ExpiresAt int64 `json:"exp"`
}

// SessionManager keeps the login session of the authorization endpoint in a
// sealed cookie. The cookie content cannot be read or forged without the
// server's encryption key.
type SessionManager struct {
	encrypter *security.Encrypter
	ttl       time.Duration
	secure    bool
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewSessionManager(encrypter *security.Encrypter, ttl time.Duration, secure bool, log logrus.FieldLogger) *SessionManager {
	return &SessionManager{
		encrypter: encrypter,
		ttl:       ttl,
		secure:    secure,
		log:       log,
		now:       time.Now,
	}
}

// Middleware sets ContextSessionUserID when the request carries a valid
// session cookie. Invalid or expired cookies are cleared.
func (m *SessionManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sealed, err := c.Cookie(SessionCookieName)
		if err != nil || sealed == "" {
			c.Next()
			return
		}

		var payload sessionPayload
		if err := m.encrypter.DecryptJSON(sealed, &payload); err != nil {
			m.log.WithError(err).Debug("Discarding unreadable session cookie")
			m.Clear(c)
			c.Next()
			return
		}
		if payload.UserID == 0 || m.now().Unix() >= payload.ExpiresAt {
			m.Clear(c)
			c.Next()
			return
		}

		c.Set(ContextSessionUserID, strconv.FormatUint(uint64(payload.UserID), 10))
		c.Next()
	}
}

// Start issues a session cookie for userID.
func (m *SessionManager) Start(c *gin.Context, userID uint) error {
	sealed, err := m.encrypter.EncryptJSON(sessionPayload{
		UserID:    userID,
		ExpiresAt: m.now().Add(m.ttl).Unix(),
	})
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, sealed, int(m.ttl.Seconds()), "/", "", m.secure, true)
	return nil
}

// Clear removes the session cookie.
func (m *SessionManager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", m.secure, true)
}
