package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcilePassesTotal counts completed reconciliation passes per kind
	// (site or portal).
	ReconcilePassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domains_reconcile_passes_total",
			Help: "Total number of completed reconciliation passes",
		},
		[]string{"kind"},
	)

	// VerificationChecksTotal counts live DNS verification checks by outcome
	// (verified or unverified).
	VerificationChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domains_verification_checks_total",
			Help: "Total number of DNS verification checks by outcome",
		},
		[]string{"outcome"},
	)

	// ProvisionWorkflowsStarted counts provisioning workflow launches by flow
	// (purchase, external, disconnect).
	ProvisionWorkflowsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domains_provision_workflows_started_total",
			Help: "Total number of domain provisioning workflows started",
		},
		[]string{"flow"},
	)
)
