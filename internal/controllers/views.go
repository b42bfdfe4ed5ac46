package controllers

import (
	"embed"
	"html/template"

	"github.com/franciscosanchezn/gin-hr-identity/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type consentPage struct {
	ClientName string
	Scopes     []string
	Request    *auth.AuthorizationRequest
	Username   string
	Error      string
}

type errorPage struct {
	Code        string
	Description string
}

func renderPage(c *gin.Context, status int, name string, data any) {
	c.Header("Cache-Control", "no-store")
	c.Header("X-Frame-Options", "DENY")
	c.Render(status, render.HTML{Template: pages, Name: name, Data: data})
}
