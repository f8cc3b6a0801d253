package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/quimera/domains/internal/apperror"
	"github.com/quimera/domains/internal/config"
	"github.com/quimera/domains/internal/dnscheck"
	"github.com/quimera/domains/internal/metrics"
	"github.com/quimera/domains/internal/model"
	"github.com/quimera/domains/internal/platform"
	"github.com/quimera/domains/internal/provider/dnsedge"
)

// DomainService manages the custom-domain registry and starts the
// per-domain provisioning workflows.
type DomainService struct {
	cfg      *config.Config
	db       DB
	tc       temporalclient.Client
	edge     dnsedge.API
	resolver DNSResolver
}

func NewDomainService(cfg *config.Config, db DB, tc temporalclient.Client,
	edge dnsedge.API, resolver DNSResolver) *DomainService {
	return &DomainService{cfg: cfg, db: db, tc: tc, edge: edge, resolver: resolver}
}

// DNSInstruction tells the owner one record to publish.
type DNSInstruction struct {
	Type  string `json:"type"`
	Host  string `json:"host"`
	Value string `json:"value"`
}

// AddDomainResult is the response to connecting a domain the customer
// points at our ingress themselves.
type AddDomainResult struct {
	Domain       *model.Domain    `json:"domain"`
	Instructions []DNSInstruction `json:"instructions"`
}

// AddDomain claims a domain name for an owner and returns the records to
// publish. The insert is the uniqueness gate: ON CONFLICT DO NOTHING plus a
// rows-affected check means two concurrent claims of the same name can
// never both succeed, regardless of what either caller read beforehand.
func (s *DomainService) AddDomain(ctx context.Context, ownerID string, projectID *string, rawDomain string) (*AddDomainResult, error) {
	name := platform.NormalizeDomain(rawDomain)
	if name == "" || !platform.IsValidDomainName(name) {
		return nil, apperror.Validation("invalid domain name %q", rawDomain)
	}

	id := platform.NewID()
	token := platform.NewVerificationToken()

	tag, err := s.db.Exec(ctx,
		`INSERT INTO domains (id, domain, owner_id, project_id, status, ssl_status, dns_verified,
		 verification_token, verification_attempts, external, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, false, $7, 0, false, now(), now())
		 ON CONFLICT (domain) DO NOTHING`,
		id, name, ownerID, projectID, model.StatusPending, model.SSLPending, token,
	)
	if err != nil {
		return nil, fmt.Errorf("insert domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.Conflict("domain %s is already connected", name)
	}

	domain, err := s.getByName(ctx, name)
	if err != nil {
		return nil, err
	}

	instructions := s.rootInstructions(domain)
	for _, in := range instructions {
		_, err := s.db.Exec(ctx,
			`INSERT INTO domain_dns_records (id, domain_id, type, host, expected_value, verified, created_at, updated_at)
			 VALUES (gen_random_uuid(), $1, $2, $3, $4, false, now(), now())
			 ON CONFLICT (domain_id, type, host) DO NOTHING`,
			domain.ID, in.Type, in.Host, in.Value,
		)
		if err != nil {
			return nil, fmt.Errorf("insert dns record: %w", err)
		}
	}

	return &AddDomainResult{Domain: domain, Instructions: instructions}, nil
}

func (s *DomainService) rootInstructions(domain *model.Domain) []DNSInstruction {
	return []DNSInstruction{
		{Type: "CNAME", Host: domain.Domain, Value: s.cfg.IngressHostname},
		{Type: "CNAME", Host: "www." + domain.Domain, Value: s.cfg.IngressHostname},
		{Type: "TXT", Host: "_verify." + domain.Domain, Value: domain.VerificationToken},
	}
}

// SetupExternalResult is the response to the managed-DNS path: the customer
// keeps their registrar and delegates the zone to us.
type SetupExternalResult struct {
	Domain      *model.Domain `json:"domain"`
	ZoneID      string        `json:"zone_id"`
	Nameservers []string      `json:"nameservers"`
	Message     string        `json:"message"`
}

// SetupExternalDomain claims a domain, creates its provider zone so the
// target nameservers can be returned immediately, and hands the record
// setup to the provisioning workflow.
func (s *DomainService) SetupExternalDomain(ctx context.Context, ownerID string, projectID *string, rawDomain string) (*SetupExternalResult, error) {
	name := platform.NormalizeDomain(rawDomain)
	if name == "" || !platform.IsValidDomainName(name) {
		return nil, apperror.Validation("invalid domain name %q", rawDomain)
	}

	id := platform.NewID()
	token := platform.NewVerificationToken()

	tag, err := s.db.Exec(ctx,
		`INSERT INTO domains (id, domain, owner_id, project_id, status, ssl_status, dns_verified,
		 verification_token, verification_attempts, external, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, false, $7, 0, true, now(), now())
		 ON CONFLICT (domain) DO NOTHING`,
		id, name, ownerID, projectID, model.StatusPending, model.SSLPending, token,
	)
	if err != nil {
		return nil, fmt.Errorf("insert domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.Conflict("domain %s is already connected", name)
	}

	// Zone creation is idempotent, so doing it here and again inside the
	// workflow always converges on the same zone.
	zone, err := s.edge.CreateZone(ctx, name)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(ctx,
		`UPDATE domains SET provider_zone_id = $1, provider_nameservers = $2, updated_at = now()
		 WHERE id = $3`,
		zone.ID, zone.NameServers, id,
	)
	if err != nil {
		return nil, fmt.Errorf("store zone binding: %w", err)
	}

	workflowID := fmt.Sprintf("domain-%s", name)
	_, err = s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: TaskQueue,
	}, "SetupExternalDomainWorkflow", id)
	if err != nil {
		return nil, fmt.Errorf("start SetupExternalDomainWorkflow: %w", err)
	}
	metrics.ProvisionWorkflowsStarted.WithLabelValues("external").Inc()

	domain, err := s.getByName(ctx, name)
	if err != nil {
		return nil, err
	}

	return &SetupExternalResult{
		Domain:      domain,
		ZoneID:      zone.ID,
		Nameservers: zone.NameServers,
		Message:     "update the nameservers at your registrar to the values above; the domain activates automatically once the delegation is visible",
	}, nil
}

func (s *DomainService) getByName(ctx context.Context, name string) (*model.Domain, error) {
	var d model.Domain
	err := s.db.QueryRow(ctx,
		`SELECT id, domain, owner_id, project_id, status, status_message, ssl_status,
		 dns_verified, verification_token, provider_zone_id, provider_nameservers,
		 verification_attempts, external, created_at, updated_at, last_verified_at
		 FROM domains WHERE domain = $1`, name,
	).Scan(&d.ID, &d.Domain, &d.OwnerID, &d.ProjectID, &d.Status, &d.StatusMessage,
		&d.SSLStatus, &d.DNSVerified, &d.VerificationToken, &d.ProviderZoneID,
		&d.ProviderNameservers, &d.VerificationAttempts, &d.External,
		&d.CreatedAt, &d.UpdatedAt, &d.LastVerifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("domain %s not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get domain %s: %w", name, err)
	}
	return &d, nil
}

// GetDomain retrieves a domain, enforcing owner scoping.
func (s *DomainService) GetDomain(ctx context.Context, ownerID, rawDomain string) (*model.Domain, error) {
	domain, err := s.getByName(ctx, platform.NormalizeDomain(rawDomain))
	if err != nil {
		return nil, err
	}
	if domain.OwnerID != ownerID {
		return nil, apperror.PermissionDenied("domain %s belongs to another owner", domain.Domain)
	}
	return domain, nil
}

// ListDomains returns all domains for an owner.
func (s *DomainService) ListDomains(ctx context.Context, ownerID string) ([]model.Domain, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, domain, owner_id, project_id, status, status_message, ssl_status,
		 dns_verified, verification_token, provider_zone_id, provider_nameservers,
		 verification_attempts, external, created_at, updated_at, last_verified_at
		 FROM domains WHERE owner_id = $1 ORDER BY domain`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	var domains []model.Domain
	for rows.Next() {
		var d model.Domain
		if err := rows.Scan(&d.ID, &d.Domain, &d.OwnerID, &d.ProjectID, &d.Status, &d.StatusMessage,
			&d.SSLStatus, &d.DNSVerified, &d.VerificationToken, &d.ProviderZoneID,
			&d.ProviderNameservers, &d.VerificationAttempts, &d.External,
			&d.CreatedAt, &d.UpdatedAt, &d.LastVerifiedAt); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate domains: %w", err)
	}
	return domains, nil
}

// RemoveDomain starts the teardown workflow for a domain.
func (s *DomainService) RemoveDomain(ctx context.Context, ownerID, rawDomain string) error {
	domain, err := s.GetDomain(ctx, ownerID, rawDomain)
	if err != nil {
		return err
	}

	workflowID := fmt.Sprintf("domain-%s", domain.Domain)
	_, err = s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: TaskQueue,
	}, "DisconnectDomainWorkflow", domain.ID)
	if err != nil {
		return fmt.Errorf("start DisconnectDomainWorkflow: %w", err)
	}
	metrics.ProvisionWorkflowsStarted.WithLabelValues("disconnect").Inc()
	return nil
}

// UpdateStatus moves a domain's status. Transitions only ever move forward
// through the pipeline (or jump to error); anything else is rejected.
func (s *DomainService) UpdateStatus(ctx context.Context, ownerID, rawDomain, newStatus string, message *string) (*model.Domain, error) {
	domain, err := s.GetDomain(ctx, ownerID, rawDomain)
	if err != nil {
		return nil, err
	}

	if !model.CanTransition(domain.Status, newStatus) {
		return nil, apperror.Validation("cannot move domain from %s to %s", domain.Status, newStatus)
	}

	// The WHERE clause re-checks the current status so a concurrent
	// transition cannot be overwritten backwards.
	tag, err := s.db.Exec(ctx,
		`UPDATE domains SET status = $1, status_message = $2, updated_at = now()
		 WHERE id = $3 AND status = $4`,
		newStatus, message, domain.ID, domain.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("update domain status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.Conflict("domain %s changed status concurrently", domain.Domain)
	}

	return s.getByName(ctx, domain.Domain)
}

// SyncMapping republishes the domain -> project route mapping.
func (s *DomainService) SyncMapping(ctx context.Context, ownerID, rawDomain string) error {
	domain, err := s.GetDomain(ctx, ownerID, rawDomain)
	if err != nil {
		return err
	}
	if domain.ProjectID == nil {
		return apperror.Validation("domain %s has no project to route to", domain.Domain)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO route_mappings (domain, project_id, owner_id, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (domain) DO UPDATE
		 SET project_id = EXCLUDED.project_id, owner_id = EXCLUDED.owner_id, updated_at = now()`,
		domain.Domain, *domain.ProjectID, domain.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("sync route mapping: %w", err)
	}
	return nil
}

// RecordVerdict is the per-record outcome of an on-demand verification.
type RecordVerdict struct {
	Type     string `json:"type"`
	Host     string `json:"host"`
	Expected string `json:"expected"`
	Verified bool   `json:"verified"`
}

// VerifyDomainResult is the response to an on-demand DNS check.
type VerifyDomainResult struct {
	Verified  bool             `json:"verified"`
	Records   []RecordVerdict  `json:"records"`
	Message   string           `json:"message,omitempty"`
	CheckedAt string           `json:"checkedAt"`
	Verdict   dnscheck.Verdict `json:"-"`
}

// VerifyDomain runs a live DNS check right now and records the outcome.
// A missing record makes the domain unverified, never an error.
func (s *DomainService) VerifyDomain(ctx context.Context, ownerID, rawDomain string) (*VerifyDomainResult, error) {
	domain, err := s.GetDomain(ctx, ownerID, rawDomain)
	if err != nil {
		return nil, err
	}

	state := s.resolver.Lookup(ctx, domain.Domain, "www."+domain.Domain, "_verify."+domain.Domain)
	verdict := dnscheck.EvaluateRoot(state, dnscheck.Expectation{
		IngressHostname: s.cfg.IngressHostname,
		IngressIPs:      s.cfg.IngressIPs,
		Token:           domain.VerificationToken,
	})

	result := &VerifyDomainResult{
		Verified: verdict.Verified,
		Message:  verdict.Message,
		Records: []RecordVerdict{
			// Apex CNAMEs are flattened by DNS hosts that allow them, so the
			// apex verdict comes from the resolved addresses.
			{Type: "CNAME", Host: domain.Domain, Expected: s.cfg.IngressHostname, Verified: verdict.AVerified},
			{Type: "CNAME", Host: "www." + domain.Domain, Expected: s.cfg.IngressHostname, Verified: verdict.CNAMEVerified},
			{Type: "TXT", Host: "_verify." + domain.Domain, Expected: domain.VerificationToken, Verified: verdict.TXTVerified},
		},
		CheckedAt: verdict.CheckedAt.Format("2006-01-02T15:04:05Z07:00"),
		Verdict:   verdict,
	}

	if verdict.Verified {
		_, err = s.db.Exec(ctx,
			`UPDATE domains SET dns_verified = true, last_verified_at = now(), updated_at = now()
			 WHERE id = $1`, domain.ID)
	} else {
		_, err = s.db.Exec(ctx,
			`UPDATE domains SET verification_attempts = verification_attempts + 1,
			 last_verified_at = now(), updated_at = now()
			 WHERE id = $1`, domain.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("record verification outcome: %w", err)
	}

	for _, rec := range result.Records {
		_, err := s.db.Exec(ctx,
			`UPDATE domain_dns_records SET verified = $1, last_checked = now(), updated_at = now()
			 WHERE domain_id = $2 AND type = $3 AND host = $4`,
			rec.Verified, domain.ID, rec.Type, rec.Host,
		)
		if err != nil {
			return nil, fmt.Errorf("record per-record verdict: %w", err)
		}
	}

	return result, nil
}

// VerifyNameserversResult reports whether the provider has seen the
// customer's nameserver change.
type VerifyNameserversResult struct {
	Verified    bool     `json:"verified"`
	Status      string   `json:"status"`
	Nameservers []string `json:"nameservers,omitempty"`
}

// VerifyNameservers checks the provider zone activation state and activates
// the domain once the delegation is visible.
func (s *DomainService) VerifyNameservers(ctx context.Context, ownerID, rawDomain string) (*VerifyNameserversResult, error) {
	domain, err := s.GetDomain(ctx, ownerID, rawDomain)
	if err != nil {
		return nil, err
	}
	if domain.ProviderZoneID == nil {
		return nil, apperror.Validation("domain %s has no provider zone to verify", domain.Domain)
	}

	zoneStatus, err := s.edge.ZoneStatus(ctx, *domain.ProviderZoneID)
	if err != nil {
		return nil, err
	}

	result := &VerifyNameserversResult{
		Status:      domain.Status,
		Nameservers: domain.ProviderNameservers,
	}

	if zoneStatus != "active" {
		_, err = s.db.Exec(ctx,
			`UPDATE domains SET verification_attempts = verification_attempts + 1,
			 last_verified_at = now(), updated_at = now()
			 WHERE id = $1`, domain.ID)
		if err != nil {
			return nil, fmt.Errorf("record verification attempt: %w", err)
		}
		return result, nil
	}

	if domain.Status == model.StatusPendingNameservers {
		_, err = s.db.Exec(ctx,
			`UPDATE domains SET status = $1, dns_verified = true,
			 last_verified_at = now(), updated_at = now()
			 WHERE id = $2 AND status = $3`,
			model.StatusActive, domain.ID, model.StatusPendingNameservers,
		)
		if err != nil {
			return nil, fmt.Errorf("activate domain: %w", err)
		}
		result.Status = model.StatusActive
	}
	result.Verified = true
	return result, nil
}

// SSLStatusResult reports certificate provisioning state for a domain.
type SSLStatusResult struct {
	Domain      string `json:"domain"`
	SSLStatus   string `json:"ssl_status"`
	DNSVerified bool   `json:"dns_verified"`
	Status      string `json:"status"`
}

// CheckSSL reports the certificate state tracked on the domain row.
func (s *DomainService) CheckSSL(ctx context.Context, ownerID, rawDomain string) (*SSLStatusResult, error) {
	domain, err := s.GetDomain(ctx, ownerID, rawDomain)
	if err != nil {
		return nil, err
	}
	return &SSLStatusResult{
		Domain:      domain.Domain,
		SSLStatus:   domain.SSLStatus,
		DNSVerified: domain.DNSVerified,
		Status:      domain.Status,
	}, nil
}
