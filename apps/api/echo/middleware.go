package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ebdapp/ebd/core/user"
)

// secretaryMiddleware restricts an endpoint to secretary sessions.
func secretaryMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsSecretary {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// classAccessMiddleware lets secretaries through to any class and teachers
// only to their assigned ones. The class id is read from the :id param.
func classAccessMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsSecretary {
				return next(ctx)
			}

			usr, err := getContextUser(ctx, svc, claims)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsTeacher() && usr.IsAssigned(ctx.Param("id")) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
