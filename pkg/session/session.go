// Package session keeps per-browser state in HMAC-signed cookies: the admin
// principal, the furthest intake wizard step reached and pending flash
// messages. Each cookie kind carries its own audience so a token minted for
// one purpose is rejected by the others.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AdminCookie    = "intake_admin"
	ProgressCookie = "intake_progress"
	FlashCookie    = "intake_flash"

	issuer           = "egresados-intake"
	audienceAdmin    = "intake-admin"
	audienceProgress = "intake-progress"
	audienceFlash    = "intake-flash"

	pendingFlashKey = "session.pendingFlashes"
	flashTTL        = 5 * time.Minute
)

// ErrNoSession is returned when the request carries no valid admin cookie.
var ErrNoSession = errors.New("no admin session")

// Principal identifies the authenticated administrator of a request.
type Principal struct {
	AdminID  int64
	Username string
}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// Flash categories understood by the templates.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Config configures cookie signing and lifetimes.
type Config struct {
	Secret      string
	SessionTTL  time.Duration
	ProgressTTL time.Duration
	Secure      bool
	Now         func() time.Time
}

// Manager issues and verifies the signed cookies.
type Manager struct {
	secret      []byte
	sessionTTL  time.Duration
	progressTTL time.Duration
	secure      bool
	now         func() time.Time
}

type adminClaims struct {
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

type progressClaims struct {
	Step int `json:"step"`
	jwt.RegisteredClaims
}

type flashClaims struct {
	Flashes []Flash `json:"fl"`
	jwt.RegisteredClaims
}

// NewManager constructs a cookie manager.
func NewManager(cfg Config) *Manager {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 8 * time.Hour
	}
	if cfg.ProgressTTL <= 0 {
		cfg.ProgressTTL = 2 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		secret:      []byte(cfg.Secret),
		sessionTTL:  cfg.SessionTTL,
		progressTTL: cfg.ProgressTTL,
		secure:      cfg.Secure,
		now:         cfg.Now,
	}
}

// IssueAdmin stores the principal in the admin cookie.
func (m *Manager) IssueAdmin(c *gin.Context, p Principal) error {
	claims := &adminClaims{
		Username:         p.Username,
		RegisteredClaims: m.registered(strconv.FormatInt(p.AdminID, 10), audienceAdmin, m.sessionTTL),
	}
	token, err := m.sign(claims)
	if err != nil {
		return fmt.Errorf("sign admin session: %w", err)
	}
	m.setCookie(c, AdminCookie, token, m.sessionTTL)
	return nil
}

// Admin returns the principal carried by the request, or ErrNoSession.
func (m *Manager) Admin(c *gin.Context) (*Principal, error) {
	raw, err := c.Cookie(AdminCookie)
	if err != nil || raw == "" {
		return nil, ErrNoSession
	}
	claims := &adminClaims{}
	if err := m.parse(raw, claims, audienceAdmin); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrNoSession
	}
	return &Principal{AdminID: id, Username: claims.Username}, nil
}

// SetProgress records the furthest wizard step reached.
func (m *Manager) SetProgress(c *gin.Context, step int) error {
	claims := &progressClaims{
		Step:             step,
		RegisteredClaims: m.registered("", audienceProgress, m.progressTTL),
	}
	token, err := m.sign(claims)
	if err != nil {
		return fmt.Errorf("sign wizard progress: %w", err)
	}
	m.setCookie(c, ProgressCookie, token, m.progressTTL)
	return nil
}

// Progress returns the furthest wizard step recorded, or 0 when the cookie is
// absent, expired or tampered with.
func (m *Manager) Progress(c *gin.Context) int {
	raw, err := c.Cookie(ProgressCookie)
	if err != nil || raw == "" {
		return 0
	}
	claims := &progressClaims{}
	if err := m.parse(raw, claims, audienceProgress); err != nil {
		return 0
	}
	return claims.Step
}

// AddFlash queues a message for the next page render.
func (m *Manager) AddFlash(c *gin.Context, category, message string) error {
	pending := append(m.pending(c), Flash{Category: category, Message: message})
	c.Set(pendingFlashKey, pending)

	claims := &flashClaims{
		Flashes:          pending,
		RegisteredClaims: m.registered("", audienceFlash, flashTTL),
	}
	token, err := m.sign(claims)
	if err != nil {
		return fmt.Errorf("sign flash: %w", err)
	}
	m.setCookie(c, FlashCookie, token, flashTTL)
	return nil
}

// Flashes pops the messages carried by the request plus any queued during it.
func (m *Manager) Flashes(c *gin.Context) []Flash {
	var flashes []Flash
	if raw, err := c.Cookie(FlashCookie); err == nil && raw != "" {
		claims := &flashClaims{}
		if err := m.parse(raw, claims, audienceFlash); err == nil {
			flashes = append(flashes, claims.Flashes...)
		}
		m.clearCookie(c, FlashCookie)
	}
	if pending := m.pending(c); len(pending) > 0 {
		flashes = append(flashes, pending...)
		c.Set(pendingFlashKey, []Flash(nil))
		m.clearCookie(c, FlashCookie)
	}
	return flashes
}

// ClearProgress forgets the wizard progress.
func (m *Manager) ClearProgress(c *gin.Context) {
	m.clearCookie(c, ProgressCookie)
}

// Clear removes every session cookie.
func (m *Manager) Clear(c *gin.Context) {
	m.clearCookie(c, AdminCookie)
	m.clearCookie(c, ProgressCookie)
	m.clearCookie(c, FlashCookie)
	c.Set(pendingFlashKey, []Flash(nil))
}

func (m *Manager) pending(c *gin.Context) []Flash {
	if v, ok := c.Get(pendingFlashKey); ok {
		if flashes, ok := v.([]Flash); ok {
			return flashes
		}
	}
	return nil
}

func (m *Manager) registered(subject, audience string, ttl time.Duration) jwt.RegisteredClaims {
	issuedAt := m.now().UTC()
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
	}
}

func (m *Manager) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parse(raw string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

func (m *Manager) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", m.secure, true)
}

func (m *Manager) clearCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", m.secure, true)
}
