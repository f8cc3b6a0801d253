package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/quimera/domains/internal/activity"
	"github.com/quimera/domains/internal/model"
)

// ReconcileParams bounds one reconciliation pass.
type ReconcileParams struct {
	BatchSize   int `json:"batch_size"`
	MaxAttempts int `json:"max_attempts"` // 0 means no cap
}

// ReconcileDomainsWorkflow runs on a cron schedule and converges every
// non-terminal domain: it checks live DNS and advances the status by at
// most one step per pass. One domain's failure never aborts the batch; the
// next pass retries it.
func ReconcileDomainsWorkflow(ctx workflow.Context, params ReconcileParams) error {
	logger := workflow.GetLogger(ctx)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var domains []model.Domain
	err := workflow.ExecuteActivity(ctx, "ListReconcilableDomains", activity.ListReconcilableDomainsParams{
		BatchSize:   params.BatchSize,
		MaxAttempts: params.MaxAttempts,
	}).Get(ctx, &domains)
	if err != nil {
		return fmt.Errorf("list reconcilable domains: %w", err)
	}

	for _, domain := range domains {
		if err := reconcileDomain(ctx, domain); err != nil {
			logger.Warn("domain reconciliation failed",
				"domain", domain.Domain, "status", domain.Status, "error", err)
		}
	}

	return nil
}

// reconcileDomain advances one domain by at most one step.
func reconcileDomain(ctx workflow.Context, domain model.Domain) error {
	// Delegated-zone domains wait for the provider to see the nameserver
	// change; once the zone is active the provider serves our records and
	// the domain goes straight to active.
	if domain.Status == model.StatusPendingNameservers {
		return reconcileNameserverDelegation(ctx, domain)
	}

	var result activity.VerifyDomainResult
	err := workflow.ExecuteActivity(ctx, "VerifyDomain", activity.VerifyDomainParams{
		Domain: domain.Domain,
		Token:  domain.VerificationToken,
	}).Get(ctx, &result)
	if err != nil {
		return fmt.Errorf("verify domain: %w", err)
	}

	if !result.Verdict.Verified {
		return workflow.ExecuteActivity(ctx, "IncrementVerificationAttempts",
			activity.IncrementVerificationAttemptsParams{DomainID: domain.ID}).Get(ctx, nil)
	}

	if err := workflow.ExecuteActivity(ctx, "MarkDomainVerified",
		activity.MarkDomainVerifiedParams{DomainID: domain.ID}).Get(ctx, nil); err != nil {
		return err
	}

	next, ok := model.NextStatus(domain.Status)
	if !ok {
		return nil
	}
	if err := workflow.ExecuteActivity(ctx, "AdvanceDomainStatus", activity.AdvanceDomainStatusParams{
		DomainID: domain.ID,
		From:     domain.Status,
		To:       next,
	}).Get(ctx, nil); err != nil {
		return err
	}

	if next == model.StatusActive {
		return activateRouting(ctx, domain)
	}
	return nil
}

func reconcileNameserverDelegation(ctx workflow.Context, domain model.Domain) error {
	if domain.ProviderZoneID == nil {
		return fmt.Errorf("domain %s is pending nameservers without a provider zone", domain.Domain)
	}

	var zoneStatus activity.GetZoneStatusResult
	err := workflow.ExecuteActivity(ctx, "GetZoneStatus", activity.GetZoneStatusParams{
		ZoneID: *domain.ProviderZoneID,
	}).Get(ctx, &zoneStatus)
	if err != nil {
		return fmt.Errorf("get zone status: %w", err)
	}

	if zoneStatus.Status != "active" {
		return workflow.ExecuteActivity(ctx, "IncrementVerificationAttempts",
			activity.IncrementVerificationAttemptsParams{DomainID: domain.ID}).Get(ctx, nil)
	}

	if err := workflow.ExecuteActivity(ctx, "MarkDomainVerified",
		activity.MarkDomainVerifiedParams{DomainID: domain.ID}).Get(ctx, nil); err != nil {
		return err
	}

	if err := workflow.ExecuteActivity(ctx, "AdvanceDomainStatus", activity.AdvanceDomainStatusParams{
		DomainID: domain.ID,
		From:     model.StatusPendingNameservers,
		To:       model.StatusActive,
	}).Get(ctx, nil); err != nil {
		return err
	}

	return activateRouting(ctx, domain)
}

// activateRouting wires a freshly activated domain into the serving path.
// Failures here are non-critical: the domain is active and the next pass,
// or a manual sync, converges routing.
func activateRouting(ctx workflow.Context, domain model.Domain) error {
	logger := workflow.GetLogger(ctx)

	err := workflow.ExecuteActivity(ctx, "SetDomainSSLStatus", activity.SetDomainSSLStatusParams{
		DomainID:  domain.ID,
		SSLStatus: model.SSLActive,
	}).Get(ctx, nil)
	if err != nil {
		logger.Warn("ssl status update failed", "domain", domain.Domain, "error", err)
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

// ReconcilePortalDomainsWorkflow runs on a slower cron and converges portal
// domains. Portal activation needs both the CNAME and the TXT token.
func ReconcilePortalDomainsWorkflow(ctx workflow.Context, params ReconcileParams) error {
	logger := workflow.GetLogger(ctx)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var domains []model.PortalDomain
	err := workflow.ExecuteActivity(ctx, "ListReconcilablePortalDomains", activity.ListReconcilablePortalDomainsParams{
		BatchSize:   params.BatchSize,
		MaxAttempts: params.MaxAttempts,
	}).Get(ctx, &domains)
	if err != nil {
		return fmt.Errorf("list reconcilable portal domains: %w", err)
	}

	for _, portal := range domains {
		if err := reconcilePortalDomain(ctx, portal); err != nil {
			logger.Warn("portal domain reconciliation failed",
				"domain", portal.Domain, "error", err)
		}
	}

	return nil
}

func reconcilePortalDomain(ctx workflow.Context, portal model.PortalDomain) error {
	var result activity.VerifyDomainResult
	err := workflow.ExecuteActivity(ctx, "VerifyPortalDomain", activity.VerifyPortalDomainParams{
		Domain:      portal.Domain,
		CNAMETarget: portal.CNAMETarget,
		Token:       portal.VerificationToken,
	}).Get(ctx, &result)
	if err != nil {
		return fmt.Errorf("verify portal domain: %w", err)
	}

	if result.Verdict.Verified {
		return workflow.ExecuteActivity(ctx, "ActivatePortalDomain",
			activity.ActivatePortalDomainParams{PortalDomainID: portal.ID}).Get(ctx, nil)
	}

	return workflow.ExecuteActivity(ctx, "RecordPortalVerificationFailure",
		activity.RecordPortalVerificationFailureParams{
			PortalDomainID: portal.ID,
			Message:        result.Verdict.Message,
		}).Get(ctx, nil)
}
