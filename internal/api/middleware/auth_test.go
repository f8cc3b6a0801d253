package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quimera/domains/internal/apperror"
	"github.com/quimera/domains/internal/model"
)

type stubAuthenticator struct {
	key *model.APIKey
	err error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, _ string) (*model.APIKey, error) {
	return s.key, s.err
}

func TestAuth_MissingKey(t *testing.T) {
	// Auth checks the header before any lookup, so nil is safe here.
	handler := Auth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/domains", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	assert.NoError(t, err)
	assert.Equal(t, "missing API key", body["error"])
}

func TestAuth_InvalidKey(t *testing.T) {
	auth := &stubAuthenticator{err: apperror.PermissionDenied("invalid api key")}
	handler := Auth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/domains", nil)
	req.Header.Set("X-API-Key", "dom_bogus")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	assert.Equal(t, "invalid API key", body["error"])
}

func TestAuth_ValidKeySetsIdentity(t *testing.T) {
	auth := &stubAuthenticator{key: &model.APIKey{ID: "test-key-1", OwnerID: "owner-1"}}

	var seen *model.APIKey
	handler := Auth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/domains", nil)
	req.Header.Set("X-API-Key", "dom_valid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, seen)
	assert.Equal(t, "owner-1", seen.OwnerID)
}

func TestGetIdentity_Empty(t *testing.T) {
	assert.Nil(t, GetIdentity(context.Background()))
}
