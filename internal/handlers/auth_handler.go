package handlers

import (
	"net/http"

	"menuhub/internal/api/middleware"
	"menuhub/internal/auth"
	"menuhub/internal/models"
	"menuhub/internal/services"
	"menuhub/internal/utils/logger"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	sessions *services.SessionService
	cookies  *auth.CookieBinder
	log      *logger.Logger
}

func NewAuthHandler(sessions *services.SessionService, cookies *auth.CookieBinder) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies, log: logger.New("AuthHandler")}
}

// SessionResponse is returned by every endpoint that issues a session. The
// token is also set as an HttpOnly cookie; the body copy serves non-browser
// clients using the bearer header.
type SessionResponse struct {
	Identity *models.Identity `json:"identity"`
	Token    string           `json:"token"`
}

type ResumeResponse struct {
	Status   services.ResumeStatus `json:"status"`
	Identity *models.Identity      `json:"identity"`
	Token    string                `json:"token,omitempty"`
}

type MeResponse struct {
	Identity    *models.Identity        `json:"identity"`
	Permissions models.PermissionRecord `json:"permissions,omitempty"`
}

// Register creates a guest account and signs it in.
// @Summary Register a new account
// @Description Register with email and password, or with a Google ID token (method "federated")
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.Registration true "Registration details"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 401 {object} map[string]interface{} "Provider token rejected"
// @Failure 409 {object} map[string]interface{} "Account already exists"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req services.Registration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	session, err := h.sessions.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	c.SetCookie(session.Cookie.HTTPCookie())
	return c.JSON(http.StatusCreated, SessionResponse{Identity: session.Identity, Token: session.Token})
}

// Login authenticates credentials and starts a session.
// @Summary Login
// @Description Authenticate with email and password, or with a Google ID token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.Credentials true "Login credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 401 {object} map[string]interface{} "Invalid credentials"
// @Failure 403 {object} map[string]interface{} "Account suspended"
// @Failure 429 {object} map[string]interface{} "Too many attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req services.Credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	session, err := h.sessions.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	c.SetCookie(session.Cookie.HTTPCookie())
	return c.JSON(http.StatusOK, SessionResponse{Identity: session.Identity, Token: session.Token})
}

// Session resumes the cookie session and slides it forward. Failures are
// reported in the status field and always clear the cookie.
// @Summary Resume session
// @Description Re-validate the session cookie; status is one of NoToken, InvalidToken, ExpiredToken, UserNotFound, UserSuspended, Success
// @Tags auth
// @Produce json
// @Success 200 {object} ResumeResponse
// @Router /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	result, err := h.sessions.ResumeSession(c.Request().Context(), c.Request())
	if err != nil {
		return err
	}
	c.SetCookie(result.Cookie.HTTPCookie())
	if result.Status != services.ResumeSuccess {
		h.log.Debug("Session resume ended with %s", result.Status)
	}
	return c.JSON(http.StatusOK, ResumeResponse{
		Status:   result.Status,
		Identity: result.Identity,
		Token:    result.Token,
	})
}

// Logout clears the session cookie.
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Logout().HTTPCookie())
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// RefreshToken extends a still-valid token without exceeding the absolute
// session window.
// @Summary Refresh token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Failure 401 {object} map[string]interface{} "Invalid or expired token"
// @Failure 403 {object} map[string]interface{} "Account suspended"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	token, ok := middleware.TokenFromRequest(h.cookies, c.Request())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing session token")
	}
	session, err := h.sessions.RefreshToken(c.Request().Context(), token)
	if err != nil {
		return err
	}
	c.SetCookie(session.Cookie.HTTPCookie())
	return c.JSON(http.StatusOK, SessionResponse{Identity: session.Identity, Token: session.Token})
}

// GetMe returns the caller's identity and, for employees, the permission
// snapshot carried by the token.
// @Summary Current identity
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MeResponse
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c echo.Context) error {
	claims := middleware.GetClaims(c)
	identity, err := h.sessions.Identity(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	resp := MeResponse{Identity: identity}
	if identity.IsEmployee() {
		if resp.Permissions, err = auth.DecodePermissions(claims.Permissions); err != nil {
			return h.log.Error("Failed to decode permissions of identity %d", err, identity.ID)
		}
	}
	return c.JSON(http.StatusOK, resp)
}
