package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/quimera/domains/internal/api/handler"
	mw "github.com/quimera/domains/internal/api/middleware"
	"github.com/quimera/domains/internal/config"
	"github.com/quimera/domains/internal/core"
	"github.com/quimera/domains/internal/dnscheck"
	"github.com/quimera/domains/internal/provider/dnsedge"
	"github.com/quimera/domains/internal/provider/registrar"
)

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	corePool       *pgxpool.Pool
	temporalClient temporalclient.Client
	cfg            *config.Config
}

func NewServer(logger zerolog.Logger, coreDB *pgxpool.Pool, temporalClient temporalclient.Client, cfg *config.Config) *Server {
	reg := registrar.NewClient(cfg.RegistrarAPIURL, cfg.RegistrarAPIUser, cfg.RegistrarAPIKey)
	edge := dnsedge.NewClient(cfg.DNSProviderAPIURL, cfg.DNSProviderAPIToken, cfg.DNSProviderAccountEmail, cfg.DNSProviderGlobalKey)
	resolver := dnscheck.NewResolver(0)
	services := core.NewServices(cfg, coreDB, temporalClient, reg, edge, resolver)

	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       services,
		corePool:       coreDB,
		temporalClient: temporalClient,
		cfg:            cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.services.APIKey))

		// Custom domains
		domain := handler.NewDomain(s.services.Domain)
		r.Get("/domains", domain.List)
		r.Post("/domains", domain.Add)
		r.Post("/domains/external", domain.SetupExternal)
		r.Get("/domains/{domain}", domain.Get)
		r.Delete("/domains/{domain}", domain.Delete)
		r.Patch("/domains/{domain}/status", domain.UpdateStatus)
		r.Post("/domains/{domain}/sync-mapping", domain.SyncMapping)
		r.Post("/domains/{domain}/verify", domain.Verify)
		r.Post("/domains/{domain}/verify-nameservers", domain.VerifyNameservers)
		r.Get("/domains/{domain}/ssl", domain.CheckSSL)

		// Purchases
		order := handler.NewOrder(s.services.Order)
		r.Post("/domains/availability", order.CheckAvailability)
		r.Post("/orders", order.Create)
		r.Get("/orders/{id}", order.Get)
		r.Post("/orders/{id}/complete", order.Complete)

		// Portal domains
		portal := handler.NewPortalDomain(s.services.PortalDomain)
		r.Post("/portal-domains", portal.Add)
		r.Get("/portal-domains/{domain}", portal.Get)
		r.Post("/portal-domains/{domain}/verify", portal.Verify)
		r.Delete("/portal-domains/{domain}", portal.Delete)

		// API keys
		apiKey := handler.NewAPIKey(s.services.APIKey)
		r.Post("/api-keys", apiKey.Create)
		r.Delete("/api-keys/{id}", apiKey.Revoke)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.corePool.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
