package core

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"go.temporal.io/api/serviceerror"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/quimera/domains/internal/apperror"
	"github.com/quimera/domains/internal/config"
	"github.com/quimera/domains/internal/metrics"
	"github.com/quimera/domains/internal/model"
	"github.com/quimera/domains/internal/platform"
	"github.com/quimera/domains/internal/provider/registrar"
)

// OrderService manages domain purchase orders: availability and pricing,
// order creation, and the post-payment provisioning handoff.
type OrderService struct {
	cfg       *config.Config
	db        DB
	tc        temporalclient.Client
	registrar registrar.API
}

func NewOrderService(cfg *config.Config, db DB, tc temporalclient.Client, reg registrar.API) *OrderService {
	return &OrderService{cfg: cfg, db: db, tc: tc, registrar: reg}
}

// Availability is one purchasable name with its customer-facing price.
// The wholesale price never leaves the server.
type Availability struct {
	Domain    string  `json:"domain"`
	Available bool    `json:"available"`
	Price     float64 `json:"price,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Premium   bool    `json:"premium,omitempty"`
}

// CheckAvailability queries the registrar and applies the configured margin
// to every wholesale price.
func (s *OrderService) CheckAvailability(ctx context.Context, rawNames []string) ([]Availability, error) {
	if len(rawNames) == 0 {
		return nil, apperror.Validation("no domains to check")
	}

	names := make([]string, 0, len(rawNames))
	for _, raw := range rawNames {
		name := platform.NormalizeDomain(raw)
		if name == "" || !platform.IsValidDomainName(name) {
			return nil, apperror.Validation("invalid domain name %q", raw)
		}
		names = append(names, name)
	}

	wholesale, err := s.registrar.CheckAvailability(ctx, names)
	if err != nil {
		return nil, err
	}

	results := make([]Availability, 0, len(wholesale))
	for _, w := range wholesale {
		results = append(results, Availability{
			Domain:    w.Domain,
			Available: w.Available,
			Price:     s.retailPrice(w.WholesalePrice),
			Currency:  w.Currency,
			Premium:   w.Premium,
		})
	}
	return results, nil
}

// retailPrice applies the configured markup and rounds to cents.
func (s *OrderService) retailPrice(wholesale float64) float64 {
	if wholesale == 0 {
		return 0
	}
	retail := wholesale * (1 + s.cfg.PriceMarkupPercent/100)
	return math.Round(retail*100) / 100
}

// CreateOrderParams describes a purchase request.
type CreateOrderParams struct {
	Domain    string
	TermYears int
	ProjectID *string
}

// CreateOrder checks availability, prices the purchase, and records the
// order awaiting payment. Nothing is bought yet.
func (s *OrderService) CreateOrder(ctx context.Context, ownerID string, params CreateOrderParams) (*model.DomainOrder, error) {
	name := platform.NormalizeDomain(params.Domain)
	if name == "" || !platform.IsValidDomainName(name) {
		return nil, apperror.Validation("invalid domain name %q", params.Domain)
	}
	if params.TermYears < 1 || params.TermYears > 10 {
		return nil, apperror.Validation("term must be between 1 and 10 years")
	}

	availability, err := s.registrar.CheckAvailability(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	if len(availability) == 0 || !availability[0].Available {
		return nil, apperror.Conflict("domain %s is not available for registration", name)
	}

	wholesale := availability[0].WholesalePrice * float64(params.TermYears)
	retail := s.retailPrice(wholesale)
	id := platform.NewID()

	_, err = s.db.Exec(ctx,
		`INSERT INTO domain_orders (id, owner_id, domain_name, project_id, term_years,
		 wholesale_price, retail_price, status, step, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '', now(), now())`,
		id, ownerID, name, params.ProjectID, params.TermYears,
		wholesale, retail, model.OrderPendingPayment,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	return s.getOrder(ctx, id)
}

func (s *OrderService) getOrder(ctx context.Context, id string) (*model.DomainOrder, error) {
	var o model.DomainOrder
	err := s.db.QueryRow(ctx,
		`SELECT id, owner_id, domain_name, project_id, term_years, wholesale_price, retail_price,
		 status, step, error, registrar_ref, created_at, updated_at
		 FROM domain_orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.OwnerID, &o.DomainName, &o.ProjectID, &o.TermYears, &o.WholesalePrice,
		&o.RetailPrice, &o.Status, &o.Step, &o.Error, &o.RegistrarRef, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("order %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &o, nil
}

// GetOrder retrieves an order, enforcing owner scoping.
func (s *OrderService) GetOrder(ctx context.Context, ownerID, orderID string) (*model.DomainOrder, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.OwnerID != ownerID {
		return nil, apperror.PermissionDenied("order %s belongs to another owner", orderID)
	}
	return order, nil
}

// CompleteOrder is the post-payment hook: it starts the provisioning
// workflow that registers the domain and wires it up. Idempotent: a
// completed order returns success without doing anything, and a duplicate
// hook while provisioning runs is absorbed by the per-order workflow ID.
func (s *OrderService) CompleteOrder(ctx context.Context, ownerID, orderID string) (*model.DomainOrder, error) {
	order, err := s.GetOrder(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == model.OrderCompleted {
		return order, nil
	}
	if order.Status == model.OrderFailed {
		return nil, apperror.Conflict("order %s already failed: %s", orderID, derefOrEmpty(order.Error))
	}

	workflowID := fmt.Sprintf("order-%s", orderID)
	_, err = s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: TaskQueue,
	}, "ProvisionPurchasedDomainWorkflow", orderID)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return order, nil
		}
		return nil, fmt.Errorf("start ProvisionPurchasedDomainWorkflow: %w", err)
	}
	metrics.ProvisionWorkflowsStarted.WithLabelValues("purchase").Inc()

	return order, nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
