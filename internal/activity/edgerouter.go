package activity

import (
	"context"
	"fmt"

	"github.com/quimera/domains/internal/provider/edgerouter"
)

// EdgeRouter contains activities that attach and detach hostnames at the
// edge request router.
type EdgeRouter struct {
	api edgerouter.API
}

// NewEdgeRouter creates a new EdgeRouter activity struct.
func NewEdgeRouter(api edgerouter.API) *EdgeRouter {
	return &EdgeRouter{api: api}
}

// RegisterHostnameParams holds parameters for RegisterHostname.
type RegisterHostnameParams struct {
	Hostname string `json:"hostname"`
}

// RegisterHostname attaches a hostname to the edge router. Already-attached
// hostnames count as success.
func (a *EdgeRouter) RegisterHostname(ctx context.Context, params RegisterHostnameParams) error {
	if err := a.api.Register(ctx, params.Hostname); err != nil {
		return fmt.Errorf("register hostname %s: %w", params.Hostname, err)
	}
	return nil
}

// DeregisterHostnameParams holds parameters for DeregisterHostname.
type DeregisterHostnameParams struct {
	Hostname string `json:"hostname"`
}

// DeregisterHostname detaches a hostname from the edge router.
func (a *EdgeRouter) DeregisterHostname(ctx context.Context, params DeregisterHostnameParams) error {
	if err := a.api.Deregister(ctx, params.Hostname); err != nil {
		return fmt.Errorf("deregister hostname %s: %w", params.Hostname, err)
	}
	return nil
}
