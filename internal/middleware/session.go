package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egresados-intake/pkg/session"
)

// ContextAdminKey is the gin context key storing the session principal.
const ContextAdminKey = "currentAdmin"

// LoginPath is where unauthenticated reviewers are sent.
const LoginPath = "/login"

type adminSessions interface {
	Admin(c *gin.Context) (*session.Principal, error)
}

// RequireAdmin protects routes by requiring a valid admin session cookie.
// Browsers without one are redirected to the login page.
func RequireAdmin(sessions adminSessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := sessions.Admin(c)
		if err != nil {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, principal)
		c.Next()
	}
}

// AdminFromContext returns the principal attached by RequireAdmin.
func AdminFromContext(c *gin.Context) (*session.Principal, bool) {
	value, ok := c.Get(ContextAdminKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*session.Principal)
	return principal, ok && principal != nil
}
