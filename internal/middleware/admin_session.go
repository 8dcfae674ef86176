package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/formula-ihu/quiz-api/pkg/auth"
)

// AdminSessionKey holds the verified session claims in the gin context.
const AdminSessionKey = "adminSession"

// SessionVerifier checks an admin session token.
type SessionVerifier interface {
	Verify(token string) (*auth.SessionClaims, error)
}

// AdminSession guards the export area with the admin session cookie.
type AdminSession struct {
	sessions   SessionVerifier
	cookieName string
}

// NewAdminSession creates the guard.
func NewAdminSession(sessions SessionVerifier, cookieName string) *AdminSession {
	return &AdminSession{sessions: sessions, cookieName: cookieName}
}

// RequireAdmin aborts with 401 unless the request carries a valid session cookie.
func (m *AdminSession) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(m.cookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "session_missing"})
			return
		}

		claims, err := m.sessions.Verify(token)
		if err != nil {
			log.Printf("[AdminSession] Rejected session from IP=%s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "session_invalid"})
			return
		}

		c.Set(AdminSessionKey, claims)
		c.Next()
	}
}
