package activity

import "context"

// Platform serves worker-side configuration to workflows, keeping ingress
// addresses out of workflow inputs so a config change never invalidates
// running histories.
type Platform struct {
	ingressHostname   string
	ingressIPs        []string
	portalCNAMETarget string
}

// NewPlatform creates a new Platform activity struct.
func NewPlatform(ingressHostname string, ingressIPs []string, portalCNAMETarget string) *Platform {
	return &Platform{
		ingressHostname:   ingressHostname,
		ingressIPs:        ingressIPs,
		portalCNAMETarget: portalCNAMETarget,
	}
}

// IngressConfig is the fixed application ingress customers point DNS at.
type IngressConfig struct {
	Hostname          string   `json:"hostname"`
	IPs               []string `json:"ips"`
	PortalCNAMETarget string   `json:"portal_cname_target"`
}

// GetIngressConfig returns the ingress endpoints for record creation.
func (a *Platform) GetIngressConfig(ctx context.Context) (*IngressConfig, error) {
	return &IngressConfig{
		Hostname:          a.ingressHostname,
		IPs:               a.ingressIPs,
		PortalCNAMETarget: a.portalCNAMETarget,
	}, nil
}
