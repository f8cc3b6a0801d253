package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/quimera/domains/internal/apperror"
	"github.com/quimera/domains/internal/model"
	"github.com/quimera/domains/internal/platform"
)

// APIKeyService manages API key operations against the core database.
type APIKeyService struct {
	db DB
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create generates a new API key for an owner, stores the hash, and returns
// the model along with the raw key string. The raw key must be shown to the
// user exactly once.
func (s *APIKeyService) Create(ctx context.Context, ownerID, name string) (*model.APIKey, string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	rawKey := "dom_" + hex.EncodeToString(rawBytes)

	id := platform.NewID()
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])
	keyPrefix := rawKey[:12] // "dom_" + first 8 hex chars

	_, err := s.db.Exec(ctx,
		`INSERT INTO api_keys (id, owner_id, name, key_hash, key_prefix, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		id, ownerID, name, keyHash, keyPrefix,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert api key: %w", err)
	}

	key := &model.APIKey{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		KeyPrefix: keyPrefix,
	}
	err = s.db.QueryRow(ctx, "SELECT created_at FROM api_keys WHERE id = $1", id).Scan(&key.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("get api key created_at: %w", err)
	}

	return key, rawKey, nil
}

// Authenticate resolves a raw API key to its owner. Revoked and unknown
// keys are both a permission error; the caller can't tell them apart.
func (s *APIKeyService) Authenticate(ctx context.Context, rawKey string) (*model.APIKey, error) {
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])

	var k model.APIKey
	err := s.db.QueryRow(ctx,
		`SELECT id, owner_id, name, key_prefix, created_at, revoked_at
		 FROM api_keys WHERE key_hash = $1`, keyHash,
	).Scan(&k.ID, &k.OwnerID, &k.Name, &k.KeyPrefix, &k.CreatedAt, &k.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.PermissionDenied("invalid api key")
	}
	if err != nil {
		return nil, fmt.Errorf("look up api key: %w", err)
	}
	if k.RevokedAt != nil {
		return nil, apperror.PermissionDenied("invalid api key")
	}
	return &k, nil
}

// Revoke disables an API key.
func (s *APIKeyService) Revoke(ctx context.Context, ownerID, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE api_keys SET revoked_at = now()
		 WHERE id = $1 AND owner_id = $2 AND revoked_at IS NULL`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("api key %s not found", id)
	}
	return nil
}
