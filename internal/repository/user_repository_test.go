package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-gate/internal/domain"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *string:
			*d = v.(string)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

type fakeQuerier struct {
	row      fakeRow
	lastSQL  string
	lastArgs []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL = sql
	q.lastArgs = args
	return q.row
}

func TestUserRepositoryGetByID(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	db := &fakeQuerier{row: fakeRow{values: []any{int64(42), "alice", "hash", created, created}}}
	repo := NewUserRepository(db)

	user, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Equal(t, []any{int64(42)}, db.lastArgs)
	assert.Contains(t, db.lastSQL, "WHERE id=$1")
}

func TestUserRepositoryNotFound(t *testing.T) {
	repo := NewUserRepository(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})

	_, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepositoryQueryError(t *testing.T) {
	cause := errors.New("connection reset")
	repo := NewUserRepository(&fakeQuerier{row: fakeRow{err: cause}})

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUserRepositoryCreate(t *testing.T) {
	now := time.Now().UTC()
	db := &fakeQuerier{row: fakeRow{values: []any{int64(7), now, now}}}
	repo := NewUserRepository(db)

	user := &domain.User{Username: "bob", PasswordHash: "h"}
	require.NoError(t, repo.Create(context.Background(), user))

	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, now, user.CreatedAt)
	assert.Equal(t, []any{"bob", "h"}, db.lastArgs)
}

func TestUserRepositoryCreateDuplicate(t *testing.T) {
	repo := NewUserRepository(&fakeQuerier{row: fakeRow{err: &pgconn.PgError{Code: "23505"}}})

	err := repo.Create(context.Background(), &domain.User{Username: "bob"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	alice := &domain.User{Username: "alice", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, alice))
	assert.Equal(t, int64(1), alice.ID)

	assert.ErrorIs(t, repo.Create(ctx, &domain.User{Username: "alice"}), ErrConflict)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
