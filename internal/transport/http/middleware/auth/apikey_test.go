package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyptra/modelbench/internal/storage"
)

func setupAuth(t *testing.T) (storage.Storage, string, *storage.ClientAPIKey) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	plainKey, err := storage.GenerateAPIKey()
	require.NoError(t, err)
	hash, err := storage.HashPassword(plainKey, storage.DefaultArgon2Params())
	require.NoError(t, err)

	key := &storage.ClientAPIKey{
		Name:      "ci",
		KeyHash:   hash,
		KeyPrefix: storage.ExtractKeyPrefix(plainKey),
		Role:      "tester",
		Scopes:    []string{"test"},
		IsActive:  true,
	}
	require.NoError(t, store.CreateAPIKey(key))

	return store, plainKey, key
}

func authedHandler(t *testing.T, store storage.Storage) (http.Handler, *string, *string) {
	t.Helper()

	var gotUser, gotRole string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotRole = CallerIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return APIKeyAuth(store, nil)(inner), &gotUser, &gotRole
}

func TestAPIKeyAuthAccepts(t *testing.T) {
	store, plainKey, key := setupAuth(t)
	handler, gotUser, gotRole := authedHandler(t, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/test/history", nil)
	req.Header.Set("Authorization", "Bearer "+plainKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, key.ID, *gotUser)
	assert.Equal(t, "tester", *gotRole)
}

func TestAPIKeyAuthRejects(t *testing.T) {
	store, plainKey, key := setupAuth(t)
	handler, _, _ := authedHandler(t, store)

	testCases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"wrong prefix", "Bearer sk-or-v1-notours"},
		{"unknown key", "Bearer mb_" + "0000000000000000000000000000000000000000000000000000000000000000"},
		{"wrong secret same prefix", "Bearer " + plainKey[:len(plainKey)-4] + "XXXX"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/test/history", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	// Deactivated keys stop working
	key.IsActive = false
	require.NoError(t, store.UpdateAPIKey(key))

	req := httptest.NewRequest(http.MethodGet, "/v1/test/history", nil)
	req.Header.Set("Authorization", "Bearer "+plainKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyAuthExpired(t *testing.T) {
	store, plainKey, key := setupAuth(t)
	handler, _, _ := authedHandler(t, store)

	past := time.Now().Add(-time.Hour)
	key.ExpiresAt = &past
	require.NoError(t, store.UpdateAPIKey(key))

	req := httptest.NewRequest(http.MethodGet, "/v1/test/history", nil)
	req.Header.Set("Authorization", "Bearer "+plainKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireScope(t *testing.T) {
	store, plainKey, _ := setupAuth(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	withTest := APIKeyAuth(store, nil)(RequireScope("test")(inner))
	withAdmin := APIKeyAuth(store, nil)(RequireScope("admin")(inner))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+plainKey)

	rec := httptest.NewRecorder()
	withTest.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	withAdmin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSessionStore(t *testing.T) {
	sessions := NewSessionStore(time.Hour)

	s := sessions.Create()
	require.NotNil(t, s)
	assert.NotEmpty(t, s.ID)

	assert.Equal(t, s, sessions.Get(s.ID))
	assert.Nil(t, sessions.Get("nope"))

	sessions.Delete(s.ID)
	assert.Nil(t, sessions.Get(s.ID))
}

func TestSessionExpiry(t *testing.T) {
	sessions := NewSessionStore(-time.Minute) // already expired on creation
	s := sessions.Create()
	assert.Nil(t, sessions.Get(s.ID))
}
