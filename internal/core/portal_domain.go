package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/quimera/domains/internal/apperror"
	"github.com/quimera/domains/internal/config"
	"github.com/quimera/domains/internal/dnscheck"
	"github.com/quimera/domains/internal/model"
	"github.com/quimera/domains/internal/platform"
)

// PortalDomainService manages white-label portal hostnames. Portal domains
// never get a provider zone; the customer publishes a CNAME plus a TXT
// token and both must match before activation.
type PortalDomainService struct {
	cfg      *config.Config
	db       DB
	resolver DNSResolver
}

func NewPortalDomainService(cfg *config.Config, db DB, resolver DNSResolver) *PortalDomainService {
	return &PortalDomainService{cfg: cfg, db: db, resolver: resolver}
}

// AddPortalDomainResult is the response to connecting a portal hostname.
type AddPortalDomainResult struct {
	PortalDomain *model.PortalDomain `json:"portal_domain"`
	Instructions []DNSInstruction    `json:"instructions"`
}

// AddPortalDomain claims a portal hostname for an owner. The insert is the
// uniqueness gate, same as for site domains.
func (s *PortalDomainService) AddPortalDomain(ctx context.Context, ownerID, rawDomain string) (*AddPortalDomainResult, error) {
	name := platform.NormalizeDomain(rawDomain)
	if name == "" || !platform.IsValidDomainName(name) {
		return nil, apperror.Validation("invalid domain name %q", rawDomain)
	}

	id := platform.NewID()
	token := platform.NewVerificationToken()

	tag, err := s.db.Exec(ctx,
		`INSERT INTO portal_domains (id, domain, owner_id, status, cname_target,
		 verification_token, verification_attempts, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, now(), now())
		 ON CONFLICT (domain) DO NOTHING`,
		id, name, ownerID, model.StatusPending, s.cfg.PortalCNAMETarget, token,
	)
	if err != nil {
		return nil, fmt.Errorf("insert portal domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.Conflict("portal domain %s is already connected", name)
	}

	portal, err := s.getByName(ctx, name)
	if err != nil {
		return nil, err
	}

	return &AddPortalDomainResult{
		PortalDomain: portal,
		Instructions: []DNSInstruction{
			{Type: "CNAME", Host: portal.Domain, Value: portal.CNAMETarget},
			{Type: "TXT", Host: "_verify." + portal.Domain, Value: portal.VerificationToken},
		},
	}, nil
}

func (s *PortalDomainService) getByName(ctx context.Context, name string) (*model.PortalDomain, error) {
	var p model.PortalDomain
	err := s.db.QueryRow(ctx,
		`SELECT id, domain, owner_id, status, status_message, cname_target,
		 verification_token, verification_attempts, created_at, updated_at, last_verified_at
		 FROM portal_domains WHERE domain = $1`, name,
	).Scan(&p.ID, &p.Domain, &p.OwnerID, &p.Status, &p.StatusMessage, &p.CNAMETarget,
		&p.VerificationToken, &p.VerificationAttempts, &p.CreatedAt, &p.UpdatedAt, &p.LastVerifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("portal domain %s not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get portal domain %s: %w", name, err)
	}
	return &p, nil
}

// GetPortalDomain retrieves a portal domain, enforcing owner scoping.
func (s *PortalDomainService) GetPortalDomain(ctx context.Context, ownerID, rawDomain string) (*model.PortalDomain, error) {
	portal, err := s.getByName(ctx, platform.NormalizeDomain(rawDomain))
	if err != nil {
		return nil, err
	}
	if portal.OwnerID != ownerID {
		return nil, apperror.PermissionDenied("portal domain %s belongs to another owner", portal.Domain)
	}
	return portal, nil
}

// VerifyPortalDomainResult is the response to an on-demand portal check.
type VerifyPortalDomainResult struct {
	Verified      bool   `json:"verified"`
	CNAMEVerified bool   `json:"cnameVerified"`
	TXTVerified   bool   `json:"txtVerified"`
	Message       string `json:"message,omitempty"`
	Status        string `json:"status"`
}

// VerifyPortalDomain runs a live check: both the CNAME and the TXT token
// must be present, and the response names whichever is missing.
func (s *PortalDomainService) VerifyPortalDomain(ctx context.Context, ownerID, rawDomain string) (*VerifyPortalDomainResult, error) {
	portal, err := s.GetPortalDomain(ctx, ownerID, rawDomain)
	if err != nil {
		return nil, err
	}

	state := s.resolver.Lookup(ctx, portal.Domain, portal.Domain, "_verify."+portal.Domain)
	verdict := dnscheck.EvaluatePortal(state, dnscheck.Expectation{
		CNAMETarget: portal.CNAMETarget,
		Token:       portal.VerificationToken,
	})

	result := &VerifyPortalDomainResult{
		Verified:      verdict.Verified,
		CNAMEVerified: verdict.CNAMEVerified,
		TXTVerified:   verdict.TXTVerified,
		Message:       verdict.Message,
		Status:        portal.Status,
	}

	if verdict.Verified {
		_, err = s.db.Exec(ctx,
			`UPDATE portal_domains SET status = $1, status_message = NULL,
			 last_verified_at = now(), updated_at = now()
			 WHERE id = $2 AND status <> $1`,
			model.StatusActive, portal.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("activate portal domain: %w", err)
		}
		result.Status = model.StatusActive
	} else {
		_, err = s.db.Exec(ctx,
			`UPDATE portal_domains SET verification_attempts = verification_attempts + 1,
			 status_message = $1, last_verified_at = now(), updated_at = now()
			 WHERE id = $2`,
			verdict.Message, portal.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("record portal verification attempt: %w", err)
		}
	}

	return result, nil
}

// RemovePortalDomain deletes a portal hostname.
func (s *PortalDomainService) RemovePortalDomain(ctx context.Context, ownerID, rawDomain string) error {
	portal, err := s.GetPortalDomain(ctx, ownerID, rawDomain)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `DELETE FROM portal_domains WHERE id = $1`, portal.ID)
	if err != nil {
		return fmt.Errorf("delete portal domain: %w", err)
	}
	return nil
}
