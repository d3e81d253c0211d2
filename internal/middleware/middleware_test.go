package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/egresados-intake/internal/models"
	"github.com/noah-isme/egresados-intake/internal/service"
	"github.com/noah-isme/egresados-intake/pkg/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSessions() *session.Manager {
	return session.NewManager(session.Config{Secret: "test-secret", SessionTTL: time.Hour, ProgressTTL: time.Hour})
}

func TestRequireAdminRedirectsWithoutSession(t *testing.T) {
	r := gin.New()
	r.GET("/admin", RequireAdmin(newSessions()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestRequireAdminAttachesPrincipal(t *testing.T) {
	sessions := newSessions()

	// Mint a cookie through the manager.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/login", nil)
	require.NoError(t, sessions.IssueAdmin(c, session.Principal{AdminID: 4, Username: "director"}))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	var seen *session.Principal
	r := gin.New()
	r.GET("/admin", RequireAdmin(sessions), func(c *gin.Context) {
		seen, _ = AdminFromContext(c)
		c.Status(http.StatusOK)
	})

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(4), seen.AdminID)
}

func TestRequireStepRedirectsToUnlockedStep(t *testing.T) {
	sessions := newSessions()
	r := gin.New()
	r.GET("/formulario", RequireStep(sessions, service.NewWizardService(true), models.StepForm), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/registrar", RequireStep(sessions, service.NewWizardService(true), models.StepForm), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/formulario", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/verificacion", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/registrar", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestRequireStepOpenWhenNotEnforced(t *testing.T) {
	sessions := newSessions()
	r := gin.New()
	r.GET("/formulario", RequireStep(sessions, service.NewWizardService(false), models.StepForm), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/formulario", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(DefaultSecurityHeadersConfig(false)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	r = gin.New()
	r.Use(SecurityHeaders(DefaultSecurityHeadersConfig(true)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, strings.HasPrefix(w.Header().Get("Strict-Transport-Security"), "max-age=31536000"))
}

func TestMetricsMiddlewareLabelsByRouteTemplate(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/uploads/:filename", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/uploads/ABCD010101HDFXXX01_PAGO.pdf", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/admin",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="/uploads/:filename",status="404"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	assert.NotContains(t, body, "ABCD010101HDFXXX01")
	assert.NotContains(t, body, "wp-login")
	assert.NotContains(t, body, `path="/metrics"`)
}
