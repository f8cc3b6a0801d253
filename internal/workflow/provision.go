package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/quimera/domains/internal/activity"
	"github.com/quimera/domains/internal/model"
)

// ProvisionPurchasedDomainWorkflow runs the full post-payment pipeline for a
// purchased domain: registrar purchase, provider zone and records, TLS
// hardening, nameserver delegation, and activation. Registrar and zone
// setup are critical; TLS settings, nameserver push, and edge registration
// degrade gracefully because the reconciliation cron converges them later.
//
// Started with workflow ID "order-<orderID>", so only one provisioning run
// per order can ever be in flight. Re-running on a completed order is a
// no-op.
func ProvisionPurchasedDomainWorkflow(ctx workflow.Context, orderID string) error {
	logger := workflow.GetLogger(ctx)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var order model.DomainOrder
	if err := workflow.ExecuteActivity(ctx, "GetOrderByID", orderID).Get(ctx, &order); err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	if order.Status == model.OrderCompleted {
		logger.Info("order already completed, nothing to do", "order_id", orderID)
		return nil
	}

	// Step 1: register the domain at the wholesale registrar.
	if err := workflow.ExecuteActivity(ctx, "SetOrderStep", activity.SetOrderStepParams{
		OrderID: orderID,
		Step:    model.OrderRegistering,
	}).Get(ctx, nil); err != nil {
		return err
	}

	var purchase activity.PurchaseDomainResult
	err := workflow.ExecuteActivity(ctx, "PurchaseDomain", activity.PurchaseDomainParams{
		Domain:    order.DomainName,
		TermYears: order.TermYears,
	}).Get(ctx, &purchase)
	if err != nil {
		_ = failOrder(ctx, orderID, fmt.Sprintf("domain registration failed: %v", err))
		return fmt.Errorf("purchase domain: %w", err)
	}

	var registrarRef *string
	if purchase.RegistrarRef != "" {
		registrarRef = &purchase.RegistrarRef
	}

	// The purchase is the point of no return: from here on the domain row
	// exists and failures land on it, not on the order alone.
	var domain model.Domain
	err = workflow.ExecuteActivity(ctx, "CreateDomainForOrder", activity.CreateDomainForOrderParams{
		OrderID: orderID,
	}).Get(ctx, &domain)
	if err != nil {
		_ = failOrder(ctx, orderID, fmt.Sprintf("create domain record: %v", err))
		return fmt.Errorf("create domain for order: %w", err)
	}

	// Step 2: provider zone plus the records pointing at our ingress.
	if err := workflow.ExecuteActivity(ctx, "SetOrderStep", activity.SetOrderStepParams{
		OrderID:      orderID,
		Step:         model.OrderConfiguringDNS,
		RegistrarRef: registrarRef,
	}).Get(ctx, nil); err != nil {
		return err
	}

	var ingress activity.IngressConfig
	if err := workflow.ExecuteActivity(ctx, "GetIngressConfig").Get(ctx, &ingress); err != nil {
		_ = setDomainFailed(ctx, domain.ID, err)
		_ = failOrder(ctx, orderID, fmt.Sprintf("read ingress config: %v", err))
		return err
	}

	zone, err := configureZoneRecords(ctx, domain, ingress)
	if err != nil {
		_ = setDomainFailed(ctx, domain.ID, err)
		_ = failOrder(ctx, orderID, fmt.Sprintf("configure dns: %v", err))
		return err
	}

	// Step 3: TLS hardening. Non-critical; the zone serves traffic without it.
	var tlsResult activity.EnableStrictTLSResult
	err = workflow.ExecuteActivity(ctx, "EnableStrictTLS", activity.EnableStrictTLSParams{
		ZoneID: zone.ZoneID,
	}).Get(ctx, &tlsResult)
	if err != nil {
		logger.Warn("strict TLS setup failed", "domain", domain.Domain, "error", err)
	}
	for _, failure := range tlsResult.Failures {
		logger.Warn("strict TLS setting not applied", "domain", domain.Domain, "detail", failure)
	}

	// Step 4: point the registrar at the provider nameservers. Non-critical;
	// delegation can be fixed by hand and verification will catch up.
	if len(zone.Nameservers) > 0 {
		if err := workflow.ExecuteActivity(ctx, "SetOrderStep", activity.SetOrderStepParams{
			OrderID: orderID,
			Step:    model.OrderUpdatingNameservers,
		}).Get(ctx, nil); err != nil {
			return err
		}

		err = workflow.ExecuteActivity(ctx, "SetNameservers", activity.SetNameserversParams{
			Domain:      order.DomainName,
			Nameservers: zone.Nameservers,
		}).Get(ctx, nil)
		if err != nil {
			logger.Warn("nameserver update failed", "domain", domain.Domain, "error", err)
		}
	}

	// Step 5: completion. We run the DNS for purchased domains, so the
	// domain activates immediately.
	if err := workflow.ExecuteActivity(ctx, "CompleteOrder", orderID).Get(ctx, nil); err != nil {
		return fmt.Errorf("complete order: %w", err)
	}

	err = workflow.ExecuteActivity(ctx, "AdvanceDomainStatus", activity.AdvanceDomainStatusParams{
		DomainID: domain.ID,
		From:     domain.Status,
		To:       model.StatusActive,
	}).Get(ctx, nil)
	if err != nil {
		return fmt.Errorf("activate domain: %w", err)
	}

	if err := workflow.ExecuteActivity(ctx, "MarkDomainVerified", activity.MarkDomainVerifiedParams{
		DomainID: domain.ID,
	}).Get(ctx, nil); err != nil {
		logger.Warn("mark verified failed", "domain", domain.Domain, "error", err)
	}

	if domain.ProjectID != nil {
		err = workflow.ExecuteActivity(ctx, "UpsertRouteMapping", activity.UpsertRouteMappingParams{
			Domain:    domain.Domain,
			ProjectID: *domain.ProjectID,
			OwnerID:   domain.OwnerID,
		}).Get(ctx, nil)
		if err != nil {
			logger.Warn("route mapping sync failed", "domain", domain.Domain, "error", err)
		}
	}

	err = workflow.ExecuteActivity(ctx, "RegisterHostname", activity.RegisterHostnameParams{
		Hostname: domain.Domain,
	}).Get(ctx, nil)
	if err != nil {
		logger.Warn("edge router registration failed", "domain", domain.Domain, "error", err)
	}

	return nil
}

// configureZoneRecords ensures the provider zone exists and carries the
// root/www CNAMEs and the verification TXT record. Each record write
// tolerates already-existing records, so retries converge.
func configureZoneRecords(ctx workflow.Context, domain model.Domain, ingress activity.IngressConfig) (*activity.EnsureZoneResult, error) {
	var zone activity.EnsureZoneResult
	err := workflow.ExecuteActivity(ctx, "EnsureZone", activity.EnsureZoneParams{
		Domain: domain.Domain,
	}).Get(ctx, &zone)
	if err != nil {
		return nil, fmt.Errorf("ensure zone: %w", err)
	}

	err = workflow.ExecuteActivity(ctx, "SetDomainZone", activity.SetDomainZoneParams{
		DomainID:    domain.ID,
		ZoneID:      zone.ZoneID,
		Nameservers: zone.Nameservers,
	}).Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store zone binding: %w", err)
	}

	err = workflow.ExecuteActivity(ctx, "RemoveConflictingRootRecords", activity.RemoveConflictingRootRecordsParams{
		ZoneID: zone.ZoneID,
		Domain: domain.Domain,
	}).Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("remove conflicting records: %w", err)
	}

	records := []activity.CreateRecordParams{
		{ZoneID: zone.ZoneID, Type: "CNAME", Name: domain.Domain, Content: ingress.Hostname, Proxied: true},
		{ZoneID: zone.ZoneID, Type: "CNAME", Name: "www." + domain.Domain, Content: ingress.Hostname, Proxied: true},
		{ZoneID: zone.ZoneID, Type: "TXT", Name: "_verify." + domain.Domain, Content: domain.VerificationToken},
	}
	for _, rec := range records {
		if err := workflow.ExecuteActivity(ctx, "CreateRecord", rec).Get(ctx, nil); err != nil {
			return nil, fmt.Errorf("create %s record %s: %w", rec.Type, rec.Name, err)
		}
	}

	return &zone, nil
}

func failOrder(ctx workflow.Context, orderID, reason string) error {
	return workflow.ExecuteActivity(ctx, "FailOrder", activity.FailOrderParams{
		OrderID: orderID,
		Reason:  reason,
	}).Get(ctx, nil)
}
