package activity

import (
	"context"

	"github.com/quimera/domains/internal/dnscheck"
	"github.com/quimera/domains/internal/metrics"
)

// DNSResolver performs live DNS lookups.
// *dnscheck.Resolver satisfies this interface.
type DNSResolver interface {
	Lookup(ctx context.Context, domain, cnameName, txtName string) *dnscheck.RecordState
}

// Verify contains activities that run live DNS verification checks.
type Verify struct {
	resolver        DNSResolver
	ingressHostname string
	ingressIPs      []string
}

// NewVerify creates a new Verify activity struct bound to the fixed
// application ingress.
func NewVerify(resolver DNSResolver, ingressHostname string, ingressIPs []string) *Verify {
	return &Verify{
		resolver:        resolver,
		ingressHostname: ingressHostname,
		ingressIPs:      ingressIPs,
	}
}

// VerifyDomainParams holds parameters for VerifyDomain.
type VerifyDomainParams struct {
	Domain string `json:"domain"`
	Token  string `json:"token"`
}

// VerifyDomainResult is the observed DNS state and the verdict for a site
// domain.
type VerifyDomainResult struct {
	Verdict dnscheck.Verdict     `json:"verdict"`
	State   dnscheck.RecordState `json:"state"`
}

// VerifyDomain resolves the live DNS records for a site domain and
// evaluates them: an A record at the ingress or a CNAME at the ingress
// hostname verifies the domain. Missing records are an unverified result,
// never an error.
func (a *Verify) VerifyDomain(ctx context.Context, params VerifyDomainParams) (*VerifyDomainResult, error) {
	state := a.resolver.Lookup(ctx, params.Domain, "www."+params.Domain, "_verify."+params.Domain)

	verdict := dnscheck.EvaluateRoot(state, dnscheck.Expectation{
		IngressHostname: a.ingressHostname,
		IngressIPs:      a.ingressIPs,
		Token:           params.Token,
	})

	metrics.VerificationChecksTotal.WithLabelValues(outcomeLabel(verdict.Verified)).Inc()

	return &VerifyDomainResult{Verdict: verdict, State: *state}, nil
}

// VerifyPortalDomainParams holds parameters for VerifyPortalDomain.
type VerifyPortalDomainParams struct {
	Domain      string `json:"domain"`
	CNAMETarget string `json:"cname_target"`
	Token       string `json:"token"`
}

// VerifyPortalDomain resolves and evaluates a portal domain. Both the CNAME
// to the portal target and the TXT token must match.
func (a *Verify) VerifyPortalDomain(ctx context.Context, params VerifyPortalDomainParams) (*VerifyDomainResult, error) {
	state := a.resolver.Lookup(ctx, params.Domain, params.Domain, "_verify."+params.Domain)

	verdict := dnscheck.EvaluatePortal(state, dnscheck.Expectation{
		CNAMETarget: params.CNAMETarget,
		Token:       params.Token,
	})

	metrics.VerificationChecksTotal.WithLabelValues(outcomeLabel(verdict.Verified)).Inc()

	return &VerifyDomainResult{Verdict: verdict, State: *state}, nil
}

func outcomeLabel(verified bool) string {
	if verified {
		return "verified"
	}
	return "unverified"
}
