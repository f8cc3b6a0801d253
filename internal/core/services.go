package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/quimera/domains/internal/config"
	"github.com/quimera/domains/internal/dnscheck"
	"github.com/quimera/domains/internal/provider/dnsedge"
	"github.com/quimera/domains/internal/provider/registrar"
)

// DB defines the database operations used by services.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DNSResolver performs live DNS lookups.
// *dnscheck.Resolver satisfies this interface.
type DNSResolver interface {
	Lookup(ctx context.Context, domain, cnameName, txtName string) *dnscheck.RecordState
}

// TaskQueue is the Temporal task queue all domain workflows run on.
const TaskQueue = "domains-tasks"

type Services struct {
	Domain       *DomainService
	Order        *OrderService
	PortalDomain *PortalDomainService
	APIKey       *APIKeyService
}

func NewServices(cfg *config.Config, db DB, tc temporalclient.Client,
	reg registrar.API, edge dnsedge.API, resolver DNSResolver) *Services {
	return &Services{
		Domain:       NewDomainService(cfg, db, tc, edge, resolver),
		Order:        NewOrderService(cfg, db, tc, reg),
		PortalDomain: NewPortalDomainService(cfg, db, resolver),
		APIKey:       NewAPIKeyService(db),
	}
}
