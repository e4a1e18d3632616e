package auth

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-gate/internal/domain"
	"github.com/spec-kit/auth-gate/internal/observability"
)

// RejectionMessage is the only failure detail a rejected caller ever sees.
const RejectionMessage = "Authorization failed"

const identityLocalsKey = "auth_identity"

type identityCtxKey struct{}

// Middleware enforces the gate on protected routes.
type Middleware struct {
	gate    *Gate
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewMiddleware constructs middleware around gate. metrics may be nil.
func NewMiddleware(gate *Gate, logger *zap.Logger, metrics *observability.Metrics) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{gate: gate, logger: logger, metrics: metrics}
}

// Handle authorizes the request or ends it with a 401. Rejected requests never
// reach the next handler.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	result := m.gate.Authorize(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	m.metrics.RecordDecision(result.Authorized(), string(result.Reason))

	if !result.Authorized() {
		m.logger.Debug("authorization rejected",
			zap.String("request_id", observability.RequestIDFromContext(c)),
			zap.String("path", c.Path()),
			zap.String("reason", string(result.Reason)),
		)
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": RejectionMessage})
	}

	c.Locals(identityLocalsKey, result.Identity)
	c.SetUserContext(WithIdentity(c.UserContext(), result.Identity))
	return c.Next()
}

// IdentityFromContext retrieves the identity stored by Handle.
func IdentityFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(identityLocalsKey).(*domain.User)
	return user, ok && user != nil
}

// WithIdentity returns a copy of ctx carrying user.
func WithIdentity(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, user)
}

// IdentityFromCtx retrieves the identity from a plain context, for code below the HTTP layer.
func IdentityFromCtx(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(identityCtxKey{}).(*domain.User)
	return user, ok && user != nil
}
