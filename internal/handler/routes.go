package handler

import (
	"github.com/gin-gonic/gin"
)

// Routes groups everything the router needs.
type Routes struct {
	Quiz   *QuizHandler
	Export *ExportHandler
	Admin  *AdminHandler
	Health *HealthHandler

	// RequireAdmin guards the export downloads
	RequireAdmin gin.HandlerFunc
	// ProgressLimit, SubmitLimit and LoginLimit throttle the write endpoints
	ProgressLimit gin.HandlerFunc
	SubmitLimit   gin.HandlerFunc
	LoginLimit    gin.HandlerFunc
}

// Register mounts the public, export and admin routes.
func (r *Routes) Register(router gin.IRouter) {
	router.GET("/healthz", r.Health.Health)

	quiz := router.Group("/quiz")
	{
		quiz.GET("/config", r.Quiz.GetConfig)
		quiz.GET("/progress", r.Quiz.GetProgress)
		quiz.POST("/progress", r.ProgressLimit, r.Quiz.SaveProgress)
		quiz.GET("/submit", r.Quiz.GetSubmissionStatus)
		quiz.POST("/submit", r.SubmitLimit, r.Quiz.Submit)

		quiz.GET("/export/:format", r.RequireAdmin, r.Export.Export)
	}

	admin := router.Group("/admin")
	{
		admin.POST("/login", r.LoginLimit, r.Admin.Login)
		admin.POST("/logout", r.Admin.Logout)
	}
}
