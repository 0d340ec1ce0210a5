package middleware

import (
	"context"
	"net/http"
	"strconv"

	"menuhub/internal/auth"
	"menuhub/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRole admits only the listed roles.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := GetClaims(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			if !allowed[claims.Role] {
				return echo.NewHTTPError(http.StatusForbidden, "Role not allowed")
			}
			return next(c)
		}
	}
}

// RequirePermission checks module/action against the caller's principal.
// Admins always pass; employees are evaluated against the permission
// snapshot in their token; every other role is refused.
func RequirePermission(module models.Module, action models.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := GetClaims(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			principal, err := auth.PrincipalFromClaims(claims)
			if err != nil {
				log.Warn("Malformed permissions in token of identity %d: %v", claims.SubjectID, err)
				return echo.NewHTTPError(http.StatusInternalServerError, "Malformed permissions")
			}
			if !auth.HasCapability(principal, module, action) {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}

// BranchOwnership reports whether an admin owns a branch.
type BranchOwnership interface {
	BranchOwnedBy(ctx context.Context, branchID, adminID int64) (bool, error)
}

// RequireBranchAccess confines the request to the branch named by the
// :branchId path parameter. Admins must own it; employees must be assigned
// to it.
func RequireBranchAccess(owners BranchOwnership) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := GetClaims(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			branchID, err := strconv.ParseInt(c.Param("branchId"), 10, 64)
			if err != nil || branchID <= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid branch id")
			}

			switch claims.Role {
			case models.RoleAdmin:
				owned, err := owners.BranchOwnedBy(c.Request().Context(), branchID, claims.SubjectID)
				if err != nil {
					return log.Error("Failed to check branch ownership", err)
				}
				if !owned {
					return echo.NewHTTPError(http.StatusForbidden, "Branch is not yours")
				}
			case models.RoleEmployee:
				if claims.BranchID == nil || *claims.BranchID != branchID {
					return echo.NewHTTPError(http.StatusForbidden, "Branch is not yours")
				}
			default:
				return echo.NewHTTPError(http.StatusForbidden, "Role not allowed")
			}

			c.Set(branchIDKey, branchID)
			return next(c)
		}
	}
}
