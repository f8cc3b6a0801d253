package model

import "time"

// PortalDomain is a white-label portal hostname. Unlike root custom domains,
// portal domains verify ownership with a token TXT record AND a CNAME to the
// portal ingress; both must match before activation.
type PortalDomain struct {
	ID                   string     `json:"id" db:"id"`
	Domain               string     `json:"domain" db:"domain"`
	OwnerID              string     `json:"owner_id" db:"owner_id"`
	Status               string     `json:"status" db:"status"`
	StatusMessage        *string    `json:"status_message,omitempty" db:"status_message"`
	CNAMETarget          string     `json:"cname_target" db:"cname_target"`
	VerificationToken    string     `json:"verification_token" db:"verification_token"`
	VerificationAttempts int        `json:"verification_attempts" db:"verification_attempts"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
	LastVerifiedAt       *time.Time `json:"last_verified_at,omitempty" db:"last_verified_at"`
}
