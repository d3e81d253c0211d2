package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egresados-intake/internal/models"
)

type progressReader interface {
	Progress(c *gin.Context) int
}

type stepGate interface {
	Reachable(progress int, step models.WizardStep) (models.WizardStep, bool)
}

// RequireStep keeps applicants from skipping ahead in the intake wizard.
// A request for a step not yet unlocked is redirected to the furthest step
// the applicant may see.
func RequireStep(progress progressReader, gate stepGate, step models.WizardStep) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, ok := gate.Reachable(progress.Progress(c), step)
		if ok {
			c.Next()
			return
		}
		status := http.StatusFound
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			status = http.StatusSeeOther
		}
		c.Redirect(status, target.Path())
		c.Abort()
	}
}
