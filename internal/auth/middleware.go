package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/curadesk/support-platform/internal/authclient"
	"github.com/curadesk/support-platform/internal/authz"
	"github.com/curadesk/support-platform/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Middleware resolves the X-API-Key header into a principal via the identity
// service. Identity outages fail closed: the caller is rejected, never waved
// through on stale or absent information.
type Middleware struct {
	resolver authclient.Resolver
	logger   *zap.Logger
}

// NewMiddleware constructs middleware.
func NewMiddleware(resolver authclient.Resolver, logger *zap.Logger) *Middleware {
	return &Middleware{resolver: resolver, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	apiKey := c.Get("X-API-Key")
	if apiKey == "" {
		return errorutil.NewUnauthenticated("missing api key")
	}

	verdict, err := m.resolver.Resolve(c.UserContext(), apiKey)
	if err != nil {
		// An unreachable identity service is logged distinctly but presents
		// the same way as a bad key.
		if errorutil.HasCode(err, errorutil.CodeUpstreamUnavailable) {
			m.logger.Error("identity service unavailable, rejecting request", zap.Error(errors.Unwrap(err)))
			return err
		}
		return errorutil.NewInternalError(err)
	}
	if !verdict.Valid {
		return errorutil.NewUnauthenticated("invalid api key")
	}

	c.Locals(principalKey, authz.Principal{
		UserID: verdict.UserID,
		Email:  verdict.Email,
		Role:   verdict.Role,
	})
	return c.Next()
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *fiber.Ctx) (authz.Principal, bool) {
	principal, ok := c.Locals(principalKey).(authz.Principal)
	return principal, ok
}

// RequireStaff ensures the caller holds a staff role. Fine-grained decisions
// stay in the authorization gate; this guard keeps the admin surface from
// reaching handlers at all for customers.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errorutil.NewUnauthenticated("authentication required")
		}
		if !principal.Role.Staff() {
			return errorutil.NewForbidden("staff role required")
		}
		return c.Next()
	}
}
