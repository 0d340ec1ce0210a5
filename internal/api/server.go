package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"menuhub/internal/api/validator"
	"menuhub/internal/auth"
	"menuhub/internal/config"
	"menuhub/internal/handlers"
	"menuhub/internal/services"

	console "menuhub/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Codec     *auth.TokenCodec
	Cookies   *auth.CookieBinder
	Store     services.Store
	Sessions  *services.SessionService
	Employees *services.EmployeeService
	Companies *services.CompanyService
	Cleanup   handlers.CleanupEnqueuer
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	db     *gorm.DB
	deps   Deps
}

var log = console.New("API-Server")

// NewServer @title MenuHub API
// @version 1.0
// @description Multi-tenant restaurant backend: sessions, employees and branch menus.
// @host localhost:8080
// @BasePath /api/v1
func NewServer(cfg *config.Config, db *gorm.DB, deps Deps) (*Server, error) {
	if deps.Codec == nil || deps.Cookies == nil || deps.Store == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("%w: api server needs a codec, cookies, a store and sessions", auth.ErrConfiguration)
	}

	e := echo.New()
	e.HideBanner = true

	// Create custom validator
	e.Validator = validator.NewValidator()

	// Configure middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc:  func(origin string) (bool, error) { return allowOrigin(cfg, origin), nil },
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentLength},
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))

	// Custom error handler
	e.HTTPErrorHandler = customHTTPErrorHandler

	// Create server instance
	s := &Server{
		echo:   e,
		config: cfg,
		db:     db,
		deps:   deps,
	}

	// Register routes
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Health check endpoint
func (s *Server) healthCheck(c echo.Context) error {
	status := "healthy"
	code := http.StatusOK
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, map[string]interface{}{
		"status":  status,
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// allowOrigin admits the public frontend in production and anything else in
// development.
func allowOrigin(cfg *config.Config, origin string) bool {
	if !cfg.IsProduction() || cfg.Server.PublicURL == "" {
		return true
	}
	return strings.EqualFold(strings.TrimRight(cfg.Server.PublicURL, "/"), origin)
}

// statusFor maps core errors onto HTTP status codes and client-safe messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidPayload):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), "auth: ")
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "Session expired"
	case errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, auth.ErrAccountSuspended):
		return http.StatusForbidden, "Account suspended"
	case errors.Is(err, auth.ErrPermissionDenied):
		return http.StatusForbidden, "Permission denied"
	case errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, auth.ErrDuplicateAccount):
		return http.StatusConflict, "Account already exists"
	case errors.Is(err, auth.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Too many attempts, try again later"
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

// Custom HTTP error handler
func customHTTPErrorHandler(err error, c echo.Context) {
	var (
		code    = http.StatusInternalServerError
		message interface{}
	)

	var he *echo.HTTPError
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &he):
		code = he.Code
		message = he.Message
		if code >= http.StatusInternalServerError && he.Internal != nil {
			log.Warn("%s %s: %v", c.Request().Method, c.Request().URL.Path, he.Internal)
		}
	case errors.As(err, &ve):
		code = http.StatusBadRequest
		message = formatValidationErrors(ve)
	default:
		code, message = statusFor(err)
		if code == http.StatusInternalServerError {
			log.Warn("%s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
		}
	}

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]interface{}{
				"error": message,
				"code":  code,
				"time":  time.Now().Format(time.RFC3339),
			})
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}

// formatValidationErrors formats validation errors into a map
func formatValidationErrors(errors validator.ValidationErrors) map[string]string {
	errMap := make(map[string]string)
	for _, err := range errors {
		field := err.Field()
		tag := err.Tag()
		param := err.Param()

		switch tag {
		case "required":
			errMap[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errMap[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			errMap[field] = fmt.Sprintf("%s must be at least %s", field, param)
		case "max":
			errMap[field] = fmt.Sprintf("%s must be at most %s", field, param)
		case "url":
			errMap[field] = fmt.Sprintf("%s must be a valid URL", field)
		case "oneof":
			errMap[field] = fmt.Sprintf("%s must be one of [%s]", field, param)
		case "gt":
			errMap[field] = fmt.Sprintf("%s must be greater than %s", field, param)
		case "gte":
			errMap[field] = fmt.Sprintf("%s must be at least %s", field, param)
		case "auth_method":
			errMap[field] = fmt.Sprintf("%s must be either 'local' or 'federated'", field)
		case "identity_role":
			errMap[field] = fmt.Sprintf("%s must be one of: admin, employee, guest, dev", field)
		case "permission_module":
			errMap[field] = fmt.Sprintf("%s must be one of: products, categories, schedules, socials, location, branchInfo", field)
		default:
			errMap[field] = fmt.Sprintf("%s failed validation: %s", field, tag)
		}
	}
	return errMap
}
