package middleware

import (
	"errors"
	"net/http"
	"strings"

	"menuhub/internal/auth"
	"menuhub/internal/utils/logger"

	"github.com/labstack/echo/v4"
)

var log = logger.New("auth_middleware")

const (
	claimsKey   = "claims"
	branchIDKey = "branchID"
)

type AuthMiddleware struct {
	codec   *auth.TokenCodec
	cookies *auth.CookieBinder
}

func NewAuthMiddleware(codec *auth.TokenCodec, cookies *auth.CookieBinder) *AuthMiddleware {
	return &AuthMiddleware{codec: codec, cookies: cookies}
}

// Authenticate verifies the session token and attaches its claims. The
// cookie is read first; the bearer header is only a fallback.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := TokenFromRequest(m.cookies, c.Request())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing session token")
			}

			claims, err := m.codec.Verify(token)
			if err != nil {
				log.Debug("Rejected token: %v", err)
				if errors.Is(err, auth.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(claimsKey, claims)
			c.SetRequest(c.Request().WithContext(auth.ContextWithClaims(c.Request().Context(), claims)))
			return next(c)
		}
	}
}

// GetClaims returns the claims attached by Authenticate, or nil.
func GetClaims(c echo.Context) *auth.Claims {
	if claims, ok := c.Get(claimsKey).(*auth.Claims); ok {
		return claims
	}
	if claims, ok := auth.ClaimsFromContext(c.Request().Context()); ok {
		return claims
	}
	return nil
}

// GetBranchID returns the branch resolved by RequireBranchAccess.
func GetBranchID(c echo.Context) int64 {
	if id, ok := c.Get(branchIDKey).(int64); ok {
		return id
	}
	return 0
}

// TokenFromRequest returns the session token, preferring the cookie over the
// bearer header.
func TokenFromRequest(cookies *auth.CookieBinder, r *http.Request) (string, bool) {
	if token, ok := cookies.Unbind(r); ok {
		return token, true
	}
	return bearerToken(r.Header.Get(echo.HeaderAuthorization))
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
