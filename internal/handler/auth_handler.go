package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egresados-intake/internal/dto"
	"github.com/noah-isme/egresados-intake/internal/service"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
	"github.com/noah-isme/egresados-intake/pkg/response"
	"github.com/noah-isme/egresados-intake/pkg/session"
)

type authSessions interface {
	flashStore
	IssueAdmin(c *gin.Context, p session.Principal) error
	Admin(c *gin.Context) (*session.Principal, error)
	Clear(c *gin.Context)
}

type authenticator interface {
	Login(ctx context.Context, req dto.LoginRequest) (*session.Principal, error)
}

// AuthHandler wires the login form to the auth service.
type AuthHandler struct {
	sessions authSessions
	service  authenticator
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(sessions authSessions, svc authenticator) *AuthHandler {
	return &AuthHandler{sessions: sessions, service: svc}
}

// LoginPage renders the login form, or skips it when already signed in.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if _, err := h.sessions.Admin(c); err == nil {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	page(c, h.sessions, http.StatusOK, "login.html", gin.H{"Title": "Acceso"})
}

// Login godoc
// @Summary Authenticate an administrator
// @Description Verifies usuario/password and sets the session cookie
// @Tags Authentication
// @Accept x-www-form-urlencoded
// @Produce html
// @Param usuario formData string true "Usuario"
// @Param password formData string true "Contraseña"
// @Success 303
// @Failure 200 "Login form with the generic error"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	_ = c.ShouldBind(&req)

	principal, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status >= http.StatusInternalServerError {
			response.HTMLError(c, err)
			return
		}
		page(c, h.sessions, http.StatusOK, "login.html", gin.H{
			"Title":   "Acceso",
			"Warning": service.MsgInvalidCredentials,
		})
		return
	}

	if err := h.sessions.IssueAdmin(c, *principal); err != nil {
		response.HTMLError(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message))
		return
	}
	response.Redirect(c, "/admin")
}

// Logout clears every session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Clear(c)
	c.Redirect(http.StatusFound, "/login")
}
