package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"berth/config"
	"berth/infras/otel"
	"berth/permissions"
	"berth/shared"
	"berth/shared/constant"
	"berth/shared/failure"
	"berth/transport/http/response"
)

// Identity defines the middleware resolving the calling user. Authentication
// happens at the gateway in front of this service; requests arrive with the
// caller already resolved into identity headers.
type Identity interface {
	Identity(http.Handler) http.Handler
}

// Role defines the interface for role-based access control middleware
type Role interface {
	RBAC(http.Handler) http.Handler
}

// IdentityRole combines all middleware interfaces
type IdentityRole interface {
	Identity
	Role
}

type identityRoleImpl struct {
	otel       otel.Otel
	permission *permissions.PermissionData
	cfg        *config.Config
}

func NewIdentityRoleMiddleware(otel otel.Otel, permissions *permissions.PermissionData, cfg *config.Config) IdentityRole {
	return &identityRoleImpl{
		otel:       otel,
		permission: permissions,
		cfg:        cfg,
	}
}

// Identity copies the gateway's identity headers into the request context and
// rejects unauthenticated requests on endpoints that require a caller.
func (m *identityRoleImpl) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "identity.middleware")

		userID := request.Header.Get(constant.RequestHeaderUserID)
		userEmail := shared.NormalizeEmail(request.Header.Get(constant.RequestHeaderUserEmail))
		userRole := request.Header.Get(constant.RequestHeaderUserRole)

		if userID != constant.Empty {
			ctx = context.WithValue(ctx, constant.ContextKeyUserID, userID)
			ctx = context.WithValue(ctx, constant.ContextKeyUserEmail, userEmail)
			ctx = context.WithValue(ctx, constant.ContextKeyUserRole, userRole)

			scope.End()
			next.ServeHTTP(writer, request.WithContext(ctx))

			return
		}

		if m.findPermission(request).Skip {
			scope.End()
			next.ServeHTTP(writer, request)

			return
		}

		err := failure.Unauthorized("Missing identity headers")
		response.WithError(writer, err)

		scope.TraceError(err)
		scope.End()
	})
}

// RBAC checks if user has required role
// Requires prior identity resolution via Identity middleware
func (m *identityRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "rbac.middleware")

		if m.permission == nil {
			scope.End()
			response.WithError(writer, failure.ForbiddenError)

			return
		}

		if m.permission.Skip {
			scope.End()
			next.ServeHTTP(writer, request)

			return
		}

		permission := m.findPermission(request)
		if permission.Skip {
			scope.End()
			next.ServeHTTP(writer, request)

			return
		}

		userRole, _ := ctx.Value(constant.ContextKeyUserRole).(string)

		if len(permission.Permissions) > 0 {
			if !slices.Contains(permission.Permissions, userRole) {
				err := failure.ForbiddenError
				scope.TraceError(err)
				scope.SetAttributes(map[string]any{
					"user_role":     userRole,
					"allowed_roles": permission.Permissions,
					"reason":        "role_not_allowed",
				})
				scope.End()
				response.WithError(writer, err)

				return
			}
		}

		scope.End()
		next.ServeHTTP(writer, request)
	})
}

func (m *identityRoleImpl) findPermission(request *http.Request) permissions.Permission {
	if m.permission == nil {
		return permissions.Permission{}
	}

	rctx := chi.RouteContext(request.Context())
	path := rctx.Routes.Find(chi.NewRouteContext(), request.Method, request.URL.Path)

	return m.permission.FindPermissions(path, request.Method)
}
