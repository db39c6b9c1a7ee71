package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"attendanceio/internal/apperr"
	"attendanceio/internal/auth"
	"attendanceio/internal/student"
)

const (
	stateCookie   = "attendanceio_oauth_state"
	mobileCookie  = "attendanceio_mobile_redirect"
	flowCookieAge = 10 * 60
)

// OAuthProvider is the Google login flow.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Profile(ctx context.Context, code string) (student.GoogleProfile, error)
}

// Logins resolves identities to students.
type Logins interface {
	LoginWithGoogle(ctx context.Context, p student.GoogleProfile) (student.Student, error)
	ByEmail(ctx context.Context, email string) (student.Student, error)
}

// AuthOptions configure redirects and cookies.
type AuthOptions struct {
	FrontendURL   string
	MobileScheme  string
	MobileHost    string
	SecureCookies bool
}

type AuthHandler struct {
	oauth    OAuthProvider
	students Logins
	codes    auth.CodeStore
	tokens   *auth.Tokens
	opts     AuthOptions
}

func NewAuthHandler(oauth OAuthProvider, students Logins, codes auth.CodeStore, tokens *auth.Tokens, opts AuthOptions) *AuthHandler {
	return &AuthHandler{oauth: oauth, students: students, codes: codes, tokens: tokens, opts: opts}
}

func (h *AuthHandler) Register(public, _ gin.IRoutes) {
	public.GET("/auth/google/start", h.WebStart)
	public.GET("/auth/mobile/google/start", h.MobileStart)
	public.GET("/auth/google/callback", h.Callback)
	public.POST("/auth/mobile/exchange", h.Exchange)
	public.POST("/auth/refresh", h.Refresh)
}

// GET /api/auth/google/start
func (h *AuthHandler) WebStart(c *gin.Context) {
	h.setCookie(c, mobileCookie, "", -1)
	h.redirectToProvider(c)
}

// GET /api/auth/mobile/google/start?redirect_uri=
func (h *AuthHandler) MobileStart(c *gin.Context) {
	redirect := c.Query("redirect_uri")
	if !auth.ValidMobileRedirect(redirect, h.opts.MobileScheme, h.opts.MobileHost) {
		badRequest(c, "redirect_uri not allowed")
		return
	}
	h.setCookie(c, mobileCookie, redirect, flowCookieAge)
	h.redirectToProvider(c)
}

func (h *AuthHandler) redirectToProvider(c *gin.Context) {
	state := uuid.NewString()
	h.setCookie(c, stateCookie, state, flowCookieAge)
	c.Redirect(http.StatusFound, h.oauth.AuthCodeURL(state))
}

// GET /api/auth/google/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	mobile, _ := c.Cookie(mobileCookie)
	if mobile != "" && !auth.ValidMobileRedirect(mobile, h.opts.MobileScheme, h.opts.MobileHost) {
		mobile = ""
	}
	h.setCookie(c, mobileCookie, "", -1)

	state, _ := c.Cookie(stateCookie)
	h.setCookie(c, stateCookie, "", -1)
	if state == "" || c.Query("state") != state {
		h.fail(c, mobile, "invalid login state")
		return
	}
	if e := c.Query("error"); e != "" {
		h.fail(c, mobile, e)
		return
	}

	profile, err := h.oauth.Profile(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.fail(c, mobile, "google sign-in failed")
		return
	}
	st, err := h.students.LoginWithGoogle(c.Request.Context(), profile)
	if err != nil {
		h.fail(c, mobile, apperr.PublicMessage(err))
		return
	}

	if mobile != "" {
		code, err := h.codes.Create(c.Request.Context(), st.Email)
		if err != nil {
			h.fail(c, mobile, "could not complete sign-in")
			return
		}
		c.Redirect(http.StatusFound, withQuery(mobile, "code", code))
		return
	}

	pair, err := h.tokens.Issue(st.Email)
	if err != nil {
		h.fail(c, "", "could not complete sign-in")
		return
	}
	h.setSession(c, pair)
	c.Redirect(http.StatusFound, strings.TrimRight(h.opts.FrontendURL, "/")+"/dashboard")
}

func (h *AuthHandler) fail(c *gin.Context, mobile, msg string) {
	if mobile != "" {
		c.Redirect(http.StatusFound, withQuery(mobile, "error", msg))
		return
	}
	c.Redirect(http.StatusFound, withQuery(strings.TrimRight(h.opts.FrontendURL, "/")+"/login", "error", msg))
}

type exchangeRequest struct {
	Code string `json:"code"`
}

// POST /api/auth/mobile/exchange
func (h *AuthHandler) Exchange(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired code"})
		return
	}
	email, ok, err := h.codes.Consume(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired code"})
		return
	}
	h.issue(c, email)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refreshToken is required")
		return
	}
	claims, err := h.tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	h.issue(c, claims.Email)
}

func (h *AuthHandler) issue(c *gin.Context, email string) {
	if _, err := h.students.ByEmail(c.Request.Context(), email); err != nil {
		writeError(c, err)
		return
	}
	pair, err := h.tokens.Issue(email)
	if err != nil {
		writeError(c, err)
		return
	}
	h.setSession(c, pair)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tokens": pair})
}

func (h *AuthHandler) setSession(c *gin.Context, pair auth.TokenPair) {
	h.setCookie(c, auth.SessionCookie, pair.AccessToken, int(time.Until(pair.AccessExp).Seconds()))
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.opts.SecureCookies, true)
}

func withQuery(raw, key, value string) string {
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + key + "=" + url.QueryEscape(value)
}
