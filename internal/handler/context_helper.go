package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egresados-intake/internal/middleware"
	"github.com/noah-isme/egresados-intake/pkg/session"
)

type flashStore interface {
	AddFlash(c *gin.Context, category, message string) error
	Flashes(c *gin.Context) []session.Flash
}

func adminFromContext(c *gin.Context) *session.Principal {
	principal, ok := middleware.AdminFromContext(c)
	if !ok {
		return nil
	}
	return principal
}

// page renders a template with the pending flashes and the signed-in admin.
func page(c *gin.Context, flashes flashStore, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if flashes != nil {
		data["Flashes"] = flashes.Flashes(c)
	}
	if _, ok := data["Admin"]; !ok {
		if admin := adminFromContext(c); admin != nil {
			data["Admin"] = admin
		}
	}
	c.HTML(status, name, data)
}

// flash queues a message for the next rendered page.
func flash(c *gin.Context, flashes flashStore, category, message string) {
	if flashes != nil {
		_ = flashes.AddFlash(c, category, message)
	}
}
