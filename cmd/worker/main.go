package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/quimera/domains/internal/activity"
	"github.com/quimera/domains/internal/config"
	"github.com/quimera/domains/internal/core"
	"github.com/quimera/domains/internal/db"
	"github.com/quimera/domains/internal/dnscheck"
	"github.com/quimera/domains/internal/logging"
	"github.com/quimera/domains/internal/metrics"
	"github.com/quimera/domains/internal/model"
	"github.com/quimera/domains/internal/provider/dnsedge"
	"github.com/quimera/domains/internal/provider/edgerouter"
	"github.com/quimera/domains/internal/provider/registrar"
	"github.com/quimera/domains/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corePool, err := db.NewCorePool(ctx, cfg.CoreDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to core database")
	}
	defer corePool.Close()
	metrics.RegisterPgxPoolMetrics(corePool)

	tlsConfig, err := cfg.TemporalTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure temporal TLS")
	}
	dialOpts := temporalclient.Options{HostPort: cfg.TemporalAddress}
	if tlsConfig != nil {
		dialOpts.ConnectionOptions = temporalclient.ConnectionOptions{TLS: tlsConfig}
		logger.Info().Msg("temporal mTLS enabled")
	}
	tc, err := temporalclient.Dial(dialOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	contact := model.RegistrantContact{}
	if cfg.RegistrarContactFile != "" {
		loaded, err := config.LoadRegistrantContact(cfg.RegistrarContactFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load registrant contact")
		}
		contact = *loaded
	}

	registrarClient := registrar.NewClient(cfg.RegistrarAPIURL, cfg.RegistrarAPIUser, cfg.RegistrarAPIKey)
	edgeClient := dnsedge.NewClient(cfg.DNSProviderAPIURL, cfg.DNSProviderAPIToken, cfg.DNSProviderAccountEmail, cfg.DNSProviderGlobalKey)
	routerClient := edgerouter.NewClient(cfg.EdgeRouterAPIURL, cfg.EdgeRouterAPIToken, cfg.EdgeRouterAccountID)
	resolver := dnscheck.NewResolver(0)

	w := worker.New(tc, core.TaskQueue, worker.Options{})

	// Register activities
	w.RegisterActivity(activity.NewDomainDB(corePool))
	w.RegisterActivity(activity.NewRegistrar(registrarClient, contact))
	w.RegisterActivity(activity.NewDNSEdge(edgeClient))
	w.RegisterActivity(activity.NewEdgeRouter(routerClient))
	w.RegisterActivity(activity.NewVerify(resolver, cfg.IngressHostname, cfg.IngressIPs))
	w.RegisterActivity(activity.NewPlatform(cfg.IngressHostname, cfg.IngressIPs, cfg.PortalCNAMETarget))

	// Register workflows
	w.RegisterWorkflow(workflow.ProvisionPurchasedDomainWorkflow)
	w.RegisterWorkflow(workflow.SetupExternalDomainWorkflow)
	w.RegisterWorkflow(workflow.DisconnectDomainWorkflow)
	w.RegisterWorkflow(workflow.ReconcileDomainsWorkflow)
	w.RegisterWorkflow(workflow.ReconcilePortalDomainsWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", core.TaskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	// Register cron schedules. Errors for already-existing schedules are
	// ignored so that re-deploys do not fail.
	registerCronSchedules(ctx, tc, cfg, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}

type cronSchedule struct {
	id       string
	cron     string
	workflow interface{}
	args     []interface{}
}

func registerCronSchedules(ctx context.Context, tc temporalclient.Client, cfg *config.Config, logger zerolog.Logger) {
	reconcileParams := workflow.ReconcileParams{
		BatchSize:   cfg.ReconcileBatchSize,
		MaxAttempts: cfg.ReconcileMaxAttempts,
	}

	schedules := []cronSchedule{
		{
			id:       "domain-reconcile-cron",
			cron:     cfg.ReconcileCron,
			workflow: workflow.ReconcileDomainsWorkflow,
			args:     []interface{}{reconcileParams},
		},
		{
			id:       "portal-domain-reconcile-cron",
			cron:     cfg.PortalReconcileCron,
			workflow: workflow.ReconcilePortalDomainsWorkflow,
			args:     []interface{}{reconcileParams},
		},
	}

	scheduleClient := tc.ScheduleClient()

	for _, s := range schedules {
		_, err := scheduleClient.Create(ctx, temporalclient.ScheduleOptions{
			ID: s.id,
			Spec: temporalclient.ScheduleSpec{
				CronExpressions: []string{s.cron},
			},
			Action: &temporalclient.ScheduleWorkflowAction{
				ID:        s.id,
				Workflow:  s.workflow,
				Args:      s.args,
				TaskQueue: core.TaskQueue,
			},
		})
		if err != nil {
			if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "AlreadyExists") || strings.Contains(err.Error(), "already registered") {
				logger.Info().Str("id", s.id).Msg("cron schedule already exists, skipping")
			} else {
				logger.Fatal().Err(err).Str("id", s.id).Msg("failed to create cron schedule")
			}
		} else {
			logger.Info().Str("id", s.id).Str("cron", s.cron).Msg("created cron schedule")
		}
	}
}
