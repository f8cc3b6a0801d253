package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quimera/domains/internal/metrics"
	"github.com/quimera/domains/internal/model"
	"github.com/quimera/domains/internal/platform"
)

// DB defines the database operations used by activity structs.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DomainDB contains activities that read from and update the domain registry.
type DomainDB struct {
	db DB
}

// NewDomainDB creates a new DomainDB activity struct.
func NewDomainDB(db DB) *DomainDB {
	return &DomainDB{db: db}
}

const domainColumns = `id, domain, owner_id, project_id, status, status_message, ssl_status,
	 dns_verified, verification_token, provider_zone_id, provider_nameservers,
	 verification_attempts, external, created_at, updated_at, last_verified_at`

func scanDomain(row pgx.Row) (*model.Domain, error) {
	var d model.Domain
	err := row.Scan(&d.ID, &d.Domain, &d.OwnerID, &d.ProjectID, &d.Status, &d.StatusMessage,
		&d.SSLStatus, &d.DNSVerified, &d.VerificationToken, &d.ProviderZoneID,
		&d.ProviderNameservers, &d.VerificationAttempts, &d.External,
		&d.CreatedAt, &d.UpdatedAt, &d.LastVerifiedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDomainByID retrieves a domain by its ID.
func (a *DomainDB) GetDomainByID(ctx context.Context, id string) (*model.Domain, error) {
	d, err := scanDomain(a.db.QueryRow(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get domain by id: %w", err)
	}
	return d, nil
}

// GetDomainByName retrieves a domain by its normalized name.
func (a *DomainDB) GetDomainByName(ctx context.Context, name string) (*model.Domain, error) {
	d, err := scanDomain(a.db.QueryRow(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE domain = $1`, name))
	if err != nil {
		return nil, fmt.Errorf("get domain by name: %w", err)
	}
	return d, nil
}

// ListReconcilableDomainsParams bounds one reconciliation pass.
type ListReconcilableDomainsParams struct {
	BatchSize   int `json:"batch_size"`
	MaxAttempts int `json:"max_attempts"` // 0 means no cap
}

// ListReconcilableDomains returns domains still moving through provisioning,
// oldest-checked first so no domain starves inside a bounded batch.
func (a *DomainDB) ListReconcilableDomains(ctx context.Context, params ListReconcilableDomainsParams) ([]model.Domain, error) {
	rows, err := a.db.Query(ctx,
		`SELECT `+domainColumns+` FROM domains
		 WHERE status NOT IN ($1, $2)
		 AND ($3 = 0 OR verification_attempts < $3)
		 ORDER BY last_verified_at ASC NULLS FIRST
		 LIMIT $4`,
		model.StatusActive, model.StatusError, params.MaxAttempts, params.BatchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("list reconcilable domains: %w", err)
	}
	defer rows.Close()

	var domains []model.Domain
	for rows.Next() {
		var d model.Domain
		if err := rows.Scan(&d.ID, &d.Domain, &d.OwnerID, &d.ProjectID, &d.Status, &d.StatusMessage,
			&d.SSLStatus, &d.DNSVerified, &d.VerificationToken, &d.ProviderZoneID,
			&d.ProviderNameservers, &d.VerificationAttempts, &d.External,
			&d.CreatedAt, &d.UpdatedAt, &d.LastVerifiedAt); err != nil {
			return nil, fmt.Errorf("scan domain row: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	metrics.ReconcilePassesTotal.WithLabelValues("site").Inc()
	return domains, nil
}

// AdvanceDomainStatusParams moves a domain exactly one step forward. The
// WHERE clause pins the expected current status so concurrent passes can
// never skip or repeat a step.
type AdvanceDomainStatusParams struct {
	DomainID string  `json:"domain_id"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Message  *string `json:"message,omitempty"`
}

func (a *DomainDB) AdvanceDomainStatus(ctx context.Context, params AdvanceDomainStatusParams) error {
	if !model.CanTransition(params.From, params.To) {
		return fmt.Errorf("invalid status transition %s -> %s", params.From, params.To)
	}

	_, err := a.db.Exec(ctx,
		`UPDATE domains SET status = $1, status_message = $2, updated_at = now()
		 WHERE id = $3 AND status = $4`,
		params.To, params.Message, params.DomainID, params.From,
	)
	if err != nil {
		return fmt.Errorf("advance domain status: %w", err)
	}
	return nil
}

// SetDomainErrorParams marks a domain failed with a human-readable reason.
type SetDomainErrorParams struct {
	DomainID string `json:"domain_id"`
	Message  string `json:"message"`
}

// SetDomainError moves a domain to the error status. Domains already active
// or already failed are left untouched.
func (a *DomainDB) SetDomainError(ctx context.Context, params SetDomainErrorParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE domains SET status = $1, status_message = $2, updated_at = now()
		 WHERE id = $3 AND status NOT IN ($4, $1)`,
		model.StatusError, params.Message, params.DomainID, model.StatusActive,
	)
	if err != nil {
		return fmt.Errorf("set domain error: %w", err)
	}
	return nil
}

// MarkDomainVerifiedParams records a successful live DNS verification.
type MarkDomainVerifiedParams struct {
	DomainID string `json:"domain_id"`
}

func (a *DomainDB) MarkDomainVerified(ctx context.Context, params MarkDomainVerifiedParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE domains SET dns_verified = true, last_verified_at = now(), updated_at = now()
		 WHERE id = $1`,
		params.DomainID,
	)
	if err != nil {
		return fmt.Errorf("mark domain verified: %w", err)
	}
	return nil
}

// IncrementVerificationAttemptsParams records a failed verification check.
type IncrementVerificationAttemptsParams struct {
	DomainID string `json:"domain_id"`
}

func (a *DomainDB) IncrementVerificationAttempts(ctx context.Context, params IncrementVerificationAttemptsParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE domains SET verification_attempts = verification_attempts + 1,
		 last_verified_at = now(), updated_at = now()
		 WHERE id = $1`,
		params.DomainID,
	)
	if err != nil {
		return fmt.Errorf("increment verification attempts: %w", err)
	}
	return nil
}

// SetDomainZoneParams stores the provider zone binding on the domain row.
type SetDomainZoneParams struct {
	DomainID    string   `json:"domain_id"`
	ZoneID      string   `json:"zone_id"`
	Nameservers []string `json:"nameservers"`
}

func (a *DomainDB) SetDomainZone(ctx context.Context, params SetDomainZoneParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE domains SET provider_zone_id = $1, provider_nameservers = $2, updated_at = now()
		 WHERE id = $3`,
		params.ZoneID, params.Nameservers, params.DomainID,
	)
	if err != nil {
		return fmt.Errorf("set domain zone: %w", err)
	}
	return nil
}

// SetDomainSSLStatusParams updates the certificate provisioning state.
type SetDomainSSLStatusParams struct {
	DomainID  string `json:"domain_id"`
	SSLStatus string `json:"ssl_status"`
}

func (a *DomainDB) SetDomainSSLStatus(ctx context.Context, params SetDomainSSLStatusParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE domains SET ssl_status = $1, updated_at = now() WHERE id = $2`,
		params.SSLStatus, params.DomainID,
	)
	if err != nil {
		return fmt.Errorf("set domain ssl status: %w", err)
	}
	return nil
}

// UpsertDNSRecordParams mirrors one desired DNS record for a domain.
type UpsertDNSRecordParams struct {
	DomainID      string `json:"domain_id"`
	Type          string `json:"type"`
	Host          string `json:"host"`
	ExpectedValue string `json:"expected_value"`
}

func (a *DomainDB) UpsertDNSRecord(ctx context.Context, params UpsertDNSRecordParams) error {
	_, err := a.db.Exec(ctx,
		`INSERT INTO domain_dns_records (id, domain_id, type, host, expected_value, verified, created_at, updated_at)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4, false, now(), now())
		 ON CONFLICT (domain_id, type, host) DO UPDATE
		 SET expected_value = EXCLUDED.expected_value, updated_at = now()`,
		params.DomainID, params.Type, params.Host, params.ExpectedValue,
	)
	if err != nil {
		return fmt.Errorf("upsert dns record: %w", err)
	}
	return nil
}

// SetDNSRecordVerifiedParams stores a per-record verification verdict.
type SetDNSRecordVerifiedParams struct {
	DomainID string    `json:"domain_id"`
	Type     string    `json:"type"`
	Host     string    `json:"host"`
	Verified bool      `json:"verified"`
	Checked  time.Time `json:"checked"`
}

func (a *DomainDB) SetDNSRecordVerified(ctx context.Context, params SetDNSRecordVerifiedParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE domain_dns_records SET verified = $1, last_checked = $2, updated_at = now()
		 WHERE domain_id = $3 AND type = $4 AND host = $5`,
		params.Verified, params.Checked, params.DomainID, params.Type, params.Host,
	)
	if err != nil {
		return fmt.Errorf("set dns record verified: %w", err)
	}
	return nil
}

// DeleteDNSRecords removes all mirrored records for a domain.
func (a *DomainDB) DeleteDNSRecords(ctx context.Context, domainID string) error {
	_, err := a.db.Exec(ctx, `DELETE FROM domain_dns_records WHERE domain_id = $1`, domainID)
	if err != nil {
		return fmt.Errorf("delete dns records: %w", err)
	}
	return nil
}

// UpsertRouteMappingParams publishes the domain -> project binding the edge
// request router reads.
type UpsertRouteMappingParams struct {
	Domain    string `json:"domain"`
	ProjectID string `json:"project_id"`
	OwnerID   string `json:"owner_id"`
}

func (a *DomainDB) UpsertRouteMapping(ctx context.Context, params UpsertRouteMappingParams) error {
	_, err := a.db.Exec(ctx,
		`INSERT INTO route_mappings (domain, project_id, owner_id, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (domain) DO UPDATE
		 SET project_id = EXCLUDED.project_id, owner_id = EXCLUDED.owner_id, updated_at = now()`,
		params.Domain, params.ProjectID, params.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("upsert route mapping: %w", err)
	}
	return nil
}

// DeleteRouteMapping removes the routing binding for a domain.
func (a *DomainDB) DeleteRouteMapping(ctx context.Context, domain string) error {
	_, err := a.db.Exec(ctx, `DELETE FROM route_mappings WHERE domain = $1`, domain)
	if err != nil {
		return fmt.Errorf("delete route mapping: %w", err)
	}
	return nil
}

// DeleteDomain removes a domain row.
func (a *DomainDB) DeleteDomain(ctx context.Context, domainID string) error {
	_, err := a.db.Exec(ctx, `DELETE FROM domains WHERE id = $1`, domainID)
	if err != nil {
		return fmt.Errorf("delete domain: %w", err)
	}
	return nil
}

// GetOrderByID retrieves a purchase order.
func (a *DomainDB) GetOrderByID(ctx context.Context, id string) (*model.DomainOrder, error) {
	var o model.DomainOrder
	err := a.db.QueryRow(ctx,
		`SELECT id, owner_id, domain_name, project_id, term_years, wholesale_price, retail_price,
		 status, step, error, registrar_ref, created_at, updated_at
		 FROM domain_orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.OwnerID, &o.DomainName, &o.ProjectID, &o.TermYears, &o.WholesalePrice,
		&o.RetailPrice, &o.Status, &o.Step, &o.Error, &o.RegistrarRef, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return &o, nil
}

// SetOrderStepParams records progress of a provisioning run on the order row.
type SetOrderStepParams struct {
	OrderID      string  `json:"order_id"`
	Step         string  `json:"step"`
	RegistrarRef *string `json:"registrar_ref,omitempty"`
}

func (a *DomainDB) SetOrderStep(ctx context.Context, params SetOrderStepParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE domain_orders SET step = $1,
		 registrar_ref = COALESCE($2, registrar_ref), updated_at = now()
		 WHERE id = $3`,
		params.Step, params.RegistrarRef, params.OrderID,
	)
	if err != nil {
		return fmt.Errorf("set order step: %w", err)
	}
	return nil
}

// CompleteOrder marks an order completed. Completing an already completed
// order is a no-op so replayed completion hooks stay harmless.
func (a *DomainDB) CompleteOrder(ctx context.Context, orderID string) error {
	_, err := a.db.Exec(ctx,
		`UPDATE domain_orders SET status = $1, error = NULL, updated_at = now()
		 WHERE id = $2 AND status <> $1`,
		model.OrderCompleted, orderID,
	)
	if err != nil {
		return fmt.Errorf("complete order: %w", err)
	}
	return nil
}

// FailOrderParams records a terminal purchase failure with its reason.
type FailOrderParams struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func (a *DomainDB) FailOrder(ctx context.Context, params FailOrderParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE domain_orders SET status = $1, error = $2, updated_at = now()
		 WHERE id = $3 AND status <> $4`,
		model.OrderFailed, params.Reason, params.OrderID, model.OrderCompleted,
	)
	if err != nil {
		return fmt.Errorf("fail order: %w", err)
	}
	return nil
}

// CreateDomainForOrderParams inserts the domain row once a purchased order
// starts provisioning. The unique domain key makes the insert idempotent
// across workflow retries.
type CreateDomainForOrderParams struct {
	OrderID string `json:"order_id"`
}

func (a *DomainDB) CreateDomainForOrder(ctx context.Context, params CreateDomainForOrderParams) (*model.Domain, error) {
	order, err := a.GetOrderByID(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}

	_, err = a.db.Exec(ctx,
		`INSERT INTO domains (id, domain, owner_id, project_id, status, ssl_status, dns_verified,
		 verification_token, verification_attempts, external, created_at, updated_at)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, false, $6, 0, false, now(), now())
		 ON CONFLICT (domain) DO NOTHING`,
		order.DomainName, order.OwnerID, order.ProjectID,
		model.StatusPending, model.SSLPending, platform.NewVerificationToken(),
	)
	if err != nil {
		return nil, fmt.Errorf("create domain for order: %w", err)
	}

	domain, err := a.GetDomainByName(ctx, order.DomainName)
	if err != nil {
		return nil, err
	}
	if domain.OwnerID != order.OwnerID {
		return nil, errors.New("domain name is held by another owner")
	}
	return domain, nil
}
