package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/quimera/domains/internal/activity"
	"github.com/quimera/domains/internal/model"
)

// DisconnectDomainWorkflow tears a domain down: provider records, edge
// router registration, route mapping, and finally the registry rows.
// Provider-side cleanup is best-effort; the registry rows always go so the
// name is immediately reclaimable.
func DisconnectDomainWorkflow(ctx workflow.Context, domainID string) error {
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

	var domain model.Domain
	if err := workflow.ExecuteActivity(ctx, "GetDomainByID", domainID).Get(ctx, &domain); err != nil {
		return fmt.Errorf("get domain: %w", err)
	}

	if domain.ProviderZoneID != nil {
		err := workflow.ExecuteActivity(ctx, "DeleteZoneRecords", activity.DeleteZoneRecordsParams{
			ZoneID: *domain.ProviderZoneID,
			Names: []string{
				domain.Domain,
				"www." + domain.Domain,
				"_verify." + domain.Domain,
			},
		}).Get(ctx, nil)
		if err != nil {
			logger.Warn("provider record cleanup failed", "domain", domain.Domain, "error", err)
		}
	}

	err := workflow.ExecuteActivity(ctx, "DeregisterHostname", activity.DeregisterHostnameParams{
		Hostname: domain.Domain,
	}).Get(ctx, nil)
	if err != nil {
		logger.Warn("edge router deregistration failed", "domain", domain.Domain, "error", err)
	}

	if err := workflow.ExecuteActivity(ctx, "DeleteRouteMapping", domain.Domain).Get(ctx, nil); err != nil {
		return fmt.Errorf("delete route mapping: %w", err)
	}

	if err := workflow.ExecuteActivity(ctx, "DeleteDNSRecords", domainID).Get(ctx, nil); err != nil {
		return fmt.Errorf("delete dns records: %w", err)
	}

	if err := workflow.ExecuteActivity(ctx, "DeleteDomain", domainID).Get(ctx, nil); err != nil {
		return fmt.Errorf("delete domain: %w", err)
	}

	return nil
}
