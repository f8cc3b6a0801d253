package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ServiceName     string
	CoreDatabaseURL string
	TemporalAddress string
	HTTPListenAddr  string
	MetricsAddr     string
	LogLevel        string

	// Registrar API (basic auth).
	RegistrarAPIURL      string
	RegistrarAPIUser     string
	RegistrarAPIKey      string
	RegistrarContactFile string
	// PriceMarkupPercent is applied to wholesale registrar prices before they
	// are shown to buyers. The wholesale price is kept for accounting.
	PriceMarkupPercent float64

	// DNS/edge provider API. Either a bearer token or account email + global
	// key; the token wins when both are set.
	DNSProviderAPIURL       string
	DNSProviderAPIToken     string
	DNSProviderAccountEmail string
	DNSProviderGlobalKey    string

	// Edge router registration API (bearer token, account-scoped).
	EdgeRouterAPIURL    string
	EdgeRouterAPIToken  string
	EdgeRouterAccountID string

	// IngressHostname is the fixed application ingress that root and www
	// CNAMEs point at. IngressIPs are its published A-record addresses.
	IngressHostname   string
	IngressIPs        []string
	PortalCNAMETarget string

	// Reconciliation cadences and batch bound.
	ReconcileCron       string
	PortalReconcileCron string
	ReconcileBatchSize  int
	// ReconcileMaxAttempts excludes a domain from reconcile batches once it
	// has accumulated this many failed verification passes. The domain keeps
	// its status and still verifies on demand. 0 disables the cap;
	// verification then retries indefinitely, which is the historical
	// behavior.
	ReconcileMaxAttempts int

	TemporalTLSCert       string
	TemporalTLSKey        string
	TemporalTLSCACert     string
	TemporalTLSServerName string
}

func Load() (*Config, error) {
	markup, err := getEnvFloat("PRICE_MARKUP_PERCENT", 30)
	if err != nil {
		return nil, err
	}
	batchSize, err := getEnvInt("RECONCILE_BATCH_SIZE", 100)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := getEnvInt("RECONCILE_MAX_ATTEMPTS", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServiceName:     getEnv("SERVICE_NAME", "domains"),
		CoreDatabaseURL: getEnv("CORE_DATABASE_URL", ""),
		TemporalAddress: getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		HTTPListenAddr:  getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		RegistrarAPIURL:      getEnv("REGISTRAR_API_URL", ""),
		RegistrarAPIUser:     getEnv("REGISTRAR_API_USER", ""),
		RegistrarAPIKey:      getEnv("REGISTRAR_API_KEY", ""),
		RegistrarContactFile: getEnv("REGISTRAR_CONTACT_FILE", ""),
		PriceMarkupPercent:   markup,

		DNSProviderAPIURL:       getEnv("DNS_PROVIDER_API_URL", "https://api.cloudflare.com/client/v4"),
		DNSProviderAPIToken:     getEnv("DNS_PROVIDER_API_TOKEN", ""),
		DNSProviderAccountEmail: getEnv("DNS_PROVIDER_ACCOUNT_EMAIL", ""),
		DNSProviderGlobalKey:    getEnv("DNS_PROVIDER_GLOBAL_KEY", ""),

		EdgeRouterAPIURL:    getEnv("EDGE_ROUTER_API_URL", ""),
		EdgeRouterAPIToken:  getEnv("EDGE_ROUTER_API_TOKEN", ""),
		EdgeRouterAccountID: getEnv("EDGE_ROUTER_ACCOUNT_ID", ""),

		IngressHostname:   getEnv("INGRESS_HOSTNAME", ""),
		IngressIPs:        getEnvList("INGRESS_IPS"),
		PortalCNAMETarget: getEnv("PORTAL_CNAME_TARGET", ""),

		ReconcileCron:        getEnv("RECONCILE_CRON", "*/5 * * * *"),
		PortalReconcileCron:  getEnv("PORTAL_RECONCILE_CRON", "0 * * * *"),
		ReconcileBatchSize:   batchSize,
		ReconcileMaxAttempts: maxAttempts,

		TemporalTLSCert:       getEnv("TEMPORAL_TLS_CERT", ""),
		TemporalTLSKey:        getEnv("TEMPORAL_TLS_KEY", ""),
		TemporalTLSCACert:     getEnv("TEMPORAL_TLS_CA_CERT", ""),
		TemporalTLSServerName: getEnv("TEMPORAL_TLS_SERVER_NAME", ""),
	}

	return cfg, nil
}

// Validate fail-fasts on missing required keys for the given role ("api" or
// "worker"). Both processes talk to the registrar and the DNS provider and
// generate ingress-targeted instructions; only the worker registers
// hostnames with the edge router.
func (c *Config) Validate(role string) error {
	var missing []string

	if c.CoreDatabaseURL == "" {
		missing = append(missing, "CORE_DATABASE_URL")
	}
	if c.IngressHostname == "" {
		missing = append(missing, "INGRESS_HOSTNAME")
	}
	if len(c.IngressIPs) == 0 {
		missing = append(missing, "INGRESS_IPS")
	}
	if c.RegistrarAPIURL == "" {
		missing = append(missing, "REGISTRAR_API_URL")
	}
	if c.RegistrarAPIUser == "" {
		missing = append(missing, "REGISTRAR_API_USER")
	}
	if c.RegistrarAPIKey == "" {
		missing = append(missing, "REGISTRAR_API_KEY")
	}
	if c.DNSProviderAPIToken == "" && (c.DNSProviderAccountEmail == "" || c.DNSProviderGlobalKey == "") {
		missing = append(missing, "DNS_PROVIDER_API_TOKEN (or DNS_PROVIDER_ACCOUNT_EMAIL + DNS_PROVIDER_GLOBAL_KEY)")
	}

	if role == "worker" {
		if c.EdgeRouterAPIURL == "" {
			missing = append(missing, "EDGE_ROUTER_API_URL")
		}
		if c.EdgeRouterAPIToken == "" {
			missing = append(missing, "EDGE_ROUTER_API_TOKEN")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
