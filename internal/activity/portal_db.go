package activity

import (
	"context"
	"fmt"

	"github.com/quimera/domains/internal/metrics"
	"github.com/quimera/domains/internal/model"
)

const portalDomainColumns = `id, domain, owner_id, status, status_message, cname_target,
	 verification_token, verification_attempts, created_at, updated_at, last_verified_at`

// GetPortalDomainByID retrieves a portal domain by its ID.
func (a *DomainDB) GetPortalDomainByID(ctx context.Context, id string) (*model.PortalDomain, error) {
	var p model.PortalDomain
	err := a.db.QueryRow(ctx,
		`SELECT `+portalDomainColumns+` FROM portal_domains WHERE id = $1`, id,
	).Scan(&p.ID, &p.Domain, &p.OwnerID, &p.Status, &p.StatusMessage, &p.CNAMETarget,
		&p.VerificationToken, &p.VerificationAttempts, &p.CreatedAt, &p.UpdatedAt, &p.LastVerifiedAt)
	if err != nil {
		return nil, fmt.Errorf("get portal domain by id: %w", err)
	}
	return &p, nil
}

// ListReconcilablePortalDomainsParams bounds one portal reconciliation pass.
type ListReconcilablePortalDomainsParams struct {
	BatchSize   int `json:"batch_size"`
	MaxAttempts int `json:"max_attempts"` // 0 means no cap
}

// ListReconcilablePortalDomains returns portal domains awaiting verification,
// oldest-checked first.
func (a *DomainDB) ListReconcilablePortalDomains(ctx context.Context, params ListReconcilablePortalDomainsParams) ([]model.PortalDomain, error) {
	rows, err := a.db.Query(ctx,
		`SELECT `+portalDomainColumns+` FROM portal_domains
		 WHERE status NOT IN ($1, $2)
		 AND ($3 = 0 OR verification_attempts < $3)
		 ORDER BY last_verified_at ASC NULLS FIRST
		 LIMIT $4`,
		model.StatusActive, model.StatusError, params.MaxAttempts, params.BatchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("list reconcilable portal domains: %w", err)
	}
	defer rows.Close()

	var domains []model.PortalDomain
	for rows.Next() {
		var p model.PortalDomain
		if err := rows.Scan(&p.ID, &p.Domain, &p.OwnerID, &p.Status, &p.StatusMessage, &p.CNAMETarget,
			&p.VerificationToken, &p.VerificationAttempts, &p.CreatedAt, &p.UpdatedAt, &p.LastVerifiedAt); err != nil {
			return nil, fmt.Errorf("scan portal domain row: %w", err)
		}
		domains = append(domains, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	metrics.ReconcilePassesTotal.WithLabelValues("portal").Inc()
	return domains, nil
}

// ActivatePortalDomainParams marks a portal domain verified and active.
type ActivatePortalDomainParams struct {
	PortalDomainID string `json:"portal_domain_id"`
}

func (a *DomainDB) ActivatePortalDomain(ctx context.Context, params ActivatePortalDomainParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE portal_domains SET status = $1, status_message = NULL,
		 last_verified_at = now(), updated_at = now()
		 WHERE id = $2 AND status <> $1`,
		model.StatusActive, params.PortalDomainID,
	)
	if err != nil {
		return fmt.Errorf("activate portal domain: %w", err)
	}
	return nil
}

// RecordPortalVerificationFailureParams stores the miss reason and bumps the
// attempt counter.
type RecordPortalVerificationFailureParams struct {
	PortalDomainID string `json:"portal_domain_id"`
	Message        string `json:"message"`
}

func (a *DomainDB) RecordPortalVerificationFailure(ctx context.Context, params RecordPortalVerificationFailureParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE portal_domains SET verification_attempts = verification_attempts + 1,
		 status_message = $1, last_verified_at = now(), updated_at = now()
		 WHERE id = $2`,
		params.Message, params.PortalDomainID,
	)
	if err != nil {
		return fmt.Errorf("record portal verification failure: %w", err)
	}
	return nil
}

// DeletePortalDomain removes a portal domain row.
func (a *DomainDB) DeletePortalDomain(ctx context.Context, id string) error {
	_, err := a.db.Exec(ctx, `DELETE FROM portal_domains WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete portal domain: %w", err)
	}
	return nil
}
