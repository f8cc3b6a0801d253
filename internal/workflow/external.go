package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/quimera/domains/internal/activity"
	"github.com/quimera/domains/internal/model"
)

// SetupExternalDomainWorkflow provisions the managed-DNS path for a domain
// the customer already owns at a third-party registrar: create the provider
// zone, install the ingress records, harden TLS, then wait. The domain
// stays in pending_nameservers until the reconciliation cron observes the
// delegation; we cannot change nameservers at a registrar we don't control.
//
// Started with workflow ID "domain-<name>", so concurrent setups of the
// same name are rejected by Temporal.
func SetupExternalDomainWorkflow(ctx workflow.Context, domainID string) error {
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

	var ingress activity.IngressConfig
	if err := workflow.ExecuteActivity(ctx, "GetIngressConfig").Get(ctx, &ingress); err != nil {
		_ = setDomainFailed(ctx, domainID, err)
		return err
	}

	zone, err := configureZoneRecords(ctx, domain, ingress)
	if err != nil {
		_ = setDomainFailed(ctx, domainID, err)
		return err
	}

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

	if domain.Status == model.StatusPending {
		err = workflow.ExecuteActivity(ctx, "AdvanceDomainStatus", activity.AdvanceDomainStatusParams{
			DomainID: domainID,
			From:     model.StatusPending,
			To:       model.StatusPendingNameservers,
		}).Get(ctx, nil)
		if err != nil {
			return fmt.Errorf("advance to pending_nameservers: %w", err)
		}
	}

	return nil
}
