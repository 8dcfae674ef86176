package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/formula-ihu/quiz-api/internal/handler/dto"
	"github.com/formula-ihu/quiz-api/pkg/auth"
)

type sessionIssuer interface {
	Login(password string) (string, error)
}

// AdminHandler opens and closes admin sessions for the export area.
type AdminHandler struct {
	sessions   sessionIssuer
	cookieName string
	maxAge     int
	secure     bool
}

// NewAdminHandler creates the handler. secure should be false only for local http development.
func NewAdminHandler(sessions *auth.SessionService, cookieName string, secure bool) *AdminHandler {
	return &AdminHandler{
		sessions:   sessions,
		cookieName: cookieName,
		maxAge:     int(sessions.TTL().Seconds()),
		secure:     secure,
	}
}

// Login checks the shared password and sets the session cookie.
// POST /admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	token, err := h.sessions.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			log.Printf("[AdminHandler] Failed login from IP=%s", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
			return
		}
		log.Printf("[AdminHandler] Login error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.setCookie(c, token, h.maxAge)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout clears the session cookie.
// POST /admin/logout
func (h *AdminHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) setCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}
