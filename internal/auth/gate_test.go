package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/auth-gate/internal/domain"
	"github.com/spec-kit/auth-gate/internal/repository"
)

type directoryFunc func(ctx context.Context, id int64) (*domain.User, error)

func (f directoryFunc) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return f(ctx, id)
}

// newTestGate returns a gate over users 1 through 42.
func newTestGate(t *testing.T) (*Gate, *TokenManager) {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	for i := 1; i <= 42; i++ {
		require.NoError(t, users.Create(context.Background(), &domain.User{Username: fmt.Sprintf("user%d", i)}))
	}
	tm := NewTokenManager(testSecret, 10)
	return NewGate(tm, users, nil), tm
}

func bearer(t *testing.T, tm *TokenManager, userID int64) string {
	t.Helper()
	token, _, err := tm.GenerateToken(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestGateScenarios(t *testing.T) {
	gate, tm := newTestGate(t)
	foreign := NewTokenManager("wrong-secret", 10)

	cases := []struct {
		name   string
		header string
		reason Reason
		userID int64
	}{
		{name: "header absent", header: "", reason: ReasonMissingHeader},
		{name: "empty token", header: "Bearer ", reason: ReasonMalformedHeader},
		{name: "no second segment", header: "Bearer", reason: ReasonMalformedHeader},
		{name: "wrong scheme", header: "Basic " + bearer(t, tm, 42)[len("Bearer "):], reason: ReasonMalformedHeader},
		{name: "token signed with wrong secret", header: bearer(t, foreign, 42), reason: ReasonInvalidToken},
		{name: "garbage token", header: "Bearer abc.def.ghi", reason: ReasonInvalidToken},
		{name: "unknown user", header: bearer(t, tm, 999), reason: ReasonInvalidToken},
		{name: "existing user", header: bearer(t, tm, 42), userID: 42},
		{name: "scheme is case-insensitive", header: "bearer" + bearer(t, tm, 42)[len("Bearer"):], userID: 42},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := gate.Authorize(context.Background(), tc.header)

			assert.Equal(t, tc.reason, result.Reason)
			if tc.reason == ReasonNone {
				require.True(t, result.Authorized())
				assert.Equal(t, tc.userID, result.Identity.ID)
			} else {
				assert.False(t, result.Authorized())
				assert.Nil(t, result.Identity)
			}
		})
	}
}

func TestGateMissingUserIDClaim(t *testing.T) {
	gate, _ := newTestGate(t)
	token := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})

	result := gate.Authorize(context.Background(), "Bearer "+token)
	assert.Equal(t, ReasonInvalidToken, result.Reason)
}

func TestGateExpiredToken(t *testing.T) {
	gate, _ := newTestGate(t)
	stale := NewTokenManager(testSecret, 1)
	stale.now = func() time.Time { return time.Now().Add(-time.Hour) }

	result := gate.Authorize(context.Background(), bearer(t, stale, 42))
	assert.Equal(t, ReasonInvalidToken, result.Reason)
}

func TestGateIsIdempotent(t *testing.T) {
	gate, tm := newTestGate(t)
	header := bearer(t, tm, 42)

	first := gate.Authorize(context.Background(), header)
	second := gate.Authorize(context.Background(), header)

	require.True(t, first.Authorized())
	assert.Equal(t, first.Reason, second.Reason)
	assert.Equal(t, first.Identity, second.Identity)
}

func TestGateLookupFailure(t *testing.T) {
	tm := NewTokenManager(testSecret, 10)
	gate := NewGate(tm, directoryFunc(func(context.Context, int64) (*domain.User, error) {
		return nil, errors.New("connection refused")
	}), nil)

	result := gate.Authorize(context.Background(), bearer(t, tm, 42))
	assert.False(t, result.Authorized())
	assert.Equal(t, ReasonLookupFailed, result.Reason)
}

func TestGatePassesRequestContextToDirectory(t *testing.T) {
	type ctxKey struct{}
	tm := NewTokenManager(testSecret, 10)
	var seen any
	gate := NewGate(tm, directoryFunc(func(ctx context.Context, id int64) (*domain.User, error) {
		seen = ctx.Value(ctxKey{})
		return &domain.User{ID: id}, nil
	}), nil)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	result := gate.Authorize(ctx, bearer(t, tm, 5))

	assert.True(t, result.Authorized())
	assert.Equal(t, "req-1", seen)
}

func TestGateRejectsNilUserFromDirectory(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tm := NewTokenManager(testSecret, 10)
	gate := NewGate(tm, directoryFunc(func(context.Context, int64) (*domain.User, error) {
		return nil, nil
	}), zap.New(core))

	result := gate.Authorize(context.Background(), bearer(t, tm, 7))
	assert.False(t, result.Authorized())
	assert.Equal(t, ReasonInvalidToken, result.Reason)

	entries := logs.FilterMessage("token rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].ContextMap()["user_id"])
}
