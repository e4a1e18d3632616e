package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-gate/internal/domain"
	"github.com/spec-kit/auth-gate/internal/repository"
)

const bearerScheme = "Bearer"

// Reason explains internally why a request was rejected. It never leaves the process.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonMissingHeader   Reason = "missing_header"
	ReasonMalformedHeader Reason = "malformed_header"
	ReasonInvalidToken    Reason = "invalid_token"
	// ReasonLookupFailed means the directory could not answer, as opposed to
	// answering "no such user".
	ReasonLookupFailed Reason = "lookup_failed"
)

// Result is the outcome of one authorization decision: an identity, or a rejection reason.
type Result struct {
	Identity *domain.User
	Reason   Reason
}

// Authorized reports whether the request resolved to an identity.
func (r Result) Authorized() bool {
	return r.Identity != nil && r.Reason == ReasonNone
}

func authorized(user *domain.User) Result { return Result{Identity: user} }

func rejected(reason Reason) Result { return Result{Reason: reason} }

// TokenDecoder verifies a signed token and returns its claims.
type TokenDecoder interface {
	ParseToken(token string) (*Claims, error)
}

// UserDirectory resolves a user identifier to a user record.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Gate turns an Authorization header into a Result. It holds no per-request
// state and is safe for concurrent use.
type Gate struct {
	tokens TokenDecoder
	users  UserDirectory
	logger *zap.Logger
}

// NewGate constructs a gate. The signing secret lives in tokens.
func NewGate(tokens TokenDecoder, users UserDirectory, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{tokens: tokens, users: users, logger: logger}
}

// Authorize validates the raw Authorization header value and resolves its user.
func (g *Gate) Authorize(ctx context.Context, header string) Result {
	if header == "" {
		return rejected(ReasonMissingHeader)
	}

	token, ok := bearerToken(header)
	if !ok {
		return rejected(ReasonMalformedHeader)
	}

	claims, err := g.tokens.ParseToken(token)
	if err != nil {
		g.logger.Debug("token rejected", zap.Error(err))
		return rejected(ReasonInvalidToken)
	}
	if claims.UserID == nil {
		g.logger.Debug("token rejected", zap.String("error", "missing user_id claim"))
		return rejected(ReasonInvalidToken)
	}

	user, err := g.users.GetByID(ctx, *claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			g.logger.Debug("token rejected", zap.Int64("user_id", *claims.UserID), zap.String("error", "unknown user"))
			return rejected(ReasonInvalidToken)
		}
		g.logger.Error("user lookup failed", zap.Int64("user_id", *claims.UserID), zap.Error(err))
		return rejected(ReasonLookupFailed)
	}
	if user == nil {
		g.logger.Debug("token rejected", zap.Int64("user_id", *claims.UserID), zap.String("error", "directory returned no user"))
		return rejected(ReasonInvalidToken)
	}

	return authorized(user)
}

// bearerToken splits "<scheme> <token>" on the first space.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	if !strings.EqualFold(parts[0], bearerScheme) {
		return "", false
	}
	return parts[1], true
}
