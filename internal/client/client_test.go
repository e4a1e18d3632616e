package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Password != "correct horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + creds.Username})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-alice" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Authorization failed"}`))
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":1,"username":"alice"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginStoresAndReplaysToken(t *testing.T) {
	srv := newTestServer(t)
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "nested", "token"))
	c := New(srv.URL+"/", store, srv.Client())

	token, err := c.Login(context.Background(), "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", token)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", stored)

	body, err := c.Get(context.Background(), "/me")
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":{"id":1,"username":"alice"}}`, string(body))
}

func TestLoginFailureDoesNotStore(t *testing.T) {
	srv := newTestServer(t)
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	c := New(srv.URL, store, srv.Client())

	_, err := c.Login(context.Background(), "alice", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestGetWithoutStoredToken(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, NewFileTokenStore(filepath.Join(t.TempDir(), "token")), srv.Client())

	_, err := c.Get(context.Background(), "/me")
	assert.True(t, errors.Is(err, ErrNoToken))
}

func TestGetWithRejectedToken(t *testing.T) {
	srv := newTestServer(t)
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, store.Store("tok-mallory"))
	c := New(srv.URL, store, srv.Client())

	_, err := c.Get(context.Background(), "/me")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Authorization failed")
}

func TestAttachSetsBearerHeader(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, store.Store("abc\n"))
	c := New("http://example.invalid", store, nil)

	req, err := http.NewRequest(http.MethodGet, "http://example.invalid/me", nil)
	require.NoError(t, err)
	require.NoError(t, c.Attach(req))

	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
}

func TestFileTokenStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, NewFileTokenStore(path).Store("abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
