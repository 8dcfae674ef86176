package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/formula-ihu/quiz-api/pkg/auth"
)

func newTestAdminHandler(t *testing.T) (*AdminHandler, *auth.SessionService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pit-lane-2025"), bcrypt.MinCost)
	require.NoError(t, err)
	sessions, err := auth.NewSessionService(string(hash), "0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	return NewAdminHandler(sessions, "fihu_admin", true), sessions
}

func TestAdminLogin(t *testing.T) {
	h, sessions := newTestAdminHandler(t)

	c, w := newTestGinContext(http.MethodPost, "/admin/login", map[string]string{"password": "pit-lane-2025"})
	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "fihu_admin", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)

	_, err := sessions.Verify(cookie.Value)
	assert.NoError(t, err)
}

func TestAdminLogin_Rejected(t *testing.T) {
	h, _ := newTestAdminHandler(t)

	c, w := newTestGinContext(http.MethodPost, "/admin/login", map[string]string{"password": "wrong"})
	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())

	c, w = newTestGinContext(http.MethodPost, "/admin/login", map[string]string{})
	h.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminLogout(t *testing.T) {
	h, _ := newTestAdminHandler(t)

	c, w := newTestGinContext(http.MethodPost, "/admin/logout", nil)
	h.Logout(c)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
