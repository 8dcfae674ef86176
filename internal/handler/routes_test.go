package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formula-ihu/quiz-api/internal/middleware"
)

func newTestRouter(t *testing.T, healthErr error) (*gin.Engine, *AdminHandler) {
	t.Helper()
	admin, sessions := newTestAdminHandler(t)
	quiz, _, _ := newTestQuizHandler(&stubQuizzes{quiz: testQuiz()})
	pass := func(c *gin.Context) { c.Next() }

	routes := &Routes{
		Quiz:   quiz,
		Export: NewExportHandler(&stubExporter{}),
		Admin:  admin,
		Health: NewHealthHandler(map[string]HealthCheck{
			"postgres": func(ctx context.Context) error { return healthErr },
			"redis":    func(ctx context.Context) error { return nil },
		}),
		RequireAdmin:  middleware.NewAdminSession(sessions, "fihu_admin").RequireAdmin(),
		ProgressLimit: pass,
		SubmitLimit:   pass,
		LoginLimit:    pass,
	}
	r := gin.New()
	routes.Register(r)
	return r, admin
}

func TestRoutes_ExportNeedsSession(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quiz/export/csv", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	login := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"pit-lane-2025"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(login, req)
	require.Equal(t, http.StatusOK, login.Code)

	req = httptest.NewRequest(http.MethodGet, "/quiz/export/csv", nil)
	for _, cookie := range login.Result().Cookies() {
		req.AddCookie(cookie)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
}

func TestRoutes_PublicConfig(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quiz/config", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	r, _ = newTestRouter(t, errors.New("connection refused"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks := parseJSONResponse(t, w)["checks"].(map[string]interface{})
	assert.Equal(t, "down", checks["postgres"])
	assert.Equal(t, "ok", checks["redis"])
}
