package model

import "time"

// Domain is a custom domain connected to a tenant project. Keyed by the
// normalized domain name; a name maps to at most one owner at a time.
type Domain struct {
	ID                   string     `json:"id" db:"id"`
	Domain               string     `json:"domain" db:"domain"`
	OwnerID              string     `json:"owner_id" db:"owner_id"`
	ProjectID            *string    `json:"project_id,omitempty" db:"project_id"`
	Status               string     `json:"status" db:"status"`
	StatusMessage        *string    `json:"status_message,omitempty" db:"status_message"`
	SSLStatus            string     `json:"ssl_status" db:"ssl_status"`
	DNSVerified          bool       `json:"dns_verified" db:"dns_verified"`
	VerificationToken    string     `json:"verification_token" db:"verification_token"`
	ProviderZoneID       *string    `json:"provider_zone_id,omitempty" db:"provider_zone_id"`
	ProviderNameservers  []string   `json:"provider_nameservers,omitempty" db:"provider_nameservers"`
	VerificationAttempts int        `json:"verification_attempts" db:"verification_attempts"`
	External             bool       `json:"external" db:"external"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
	LastVerifiedAt       *time.Time `json:"last_verified_at,omitempty" db:"last_verified_at"`
}

// DomainDNSRecord is one row of the declarative desired-state mirror: the
// record the owner is expected to publish, and whether the live answer
// matched on the last check.
type DomainDNSRecord struct {
	ID            string     `json:"id" db:"id"`
	DomainID      string     `json:"domain_id" db:"domain_id"`
	Type          string     `json:"type" db:"type"`
	Host          string     `json:"host" db:"host"`
	ExpectedValue string     `json:"expected_value" db:"expected_value"`
	Verified      bool       `json:"verified" db:"verified"`
	LastChecked   *time.Time `json:"last_checked,omitempty" db:"last_checked"`
}
