package model

import "time"

// APIKey authenticates a tenant owner at the RPC surface. Only the SHA-256
// hash is stored; the raw key is shown once at creation.
type APIKey struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name"`
	KeyHash   string     `json:"-"`
	KeyPrefix string     `json:"key_prefix,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}
