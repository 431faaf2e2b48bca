package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/arcadefolio/arcadefolio/internal/domain"
	"github.com/arcadefolio/arcadefolio/internal/present/rest/presenter"
	"github.com/arcadefolio/arcadefolio/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// RequireAdmin rejects requests without a valid admin bearer token. A
// missing or unverifiable token is 401; a verified token without the
// admin role is 403.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.RequireAdmin")
		defer span.End()

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return presenter.Unauthorized(c, "missing bearer token")
		}

		split := strings.Split(authHeader, " ")
		if len(split) != 2 || split[0] != "Bearer" {
			return presenter.Unauthorized(c, "invalid authorization header")
		}

		claims, err := m.auth.Verify(ctx, split[1])
		if err != nil {
			span.RecordError(errors.Wrap(err, "AuthMiddleware.RequireAdmin: token verification failed"))
			return presenter.Unauthorized(c, "invalid token")
		}

		if claims.Role != "admin" {
			return presenter.Forbidden(c, "admin access required")
		}

		ctx = context.WithValue(ctx, domain.AdminSubjectCtxKey, claims.Subject)
		span.SetAttributes(attribute.String("AdminSubject", claims.Subject))

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
