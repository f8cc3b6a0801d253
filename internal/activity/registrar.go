package activity

import (
	"context"
	"fmt"

	"github.com/quimera/domains/internal/model"
	"github.com/quimera/domains/internal/provider/registrar"
)

// Registrar contains activities that call the wholesale registrar.
type Registrar struct {
	api     registrar.API
	contact model.RegistrantContact
}

// NewRegistrar creates a new Registrar activity struct. The registrant
// contact is the reseller contact submitted with every purchase.
func NewRegistrar(api registrar.API, contact model.RegistrantContact) *Registrar {
	return &Registrar{api: api, contact: contact}
}

// PurchaseDomainParams holds parameters for PurchaseDomain.
type PurchaseDomainParams struct {
	Domain    string `json:"domain"`
	TermYears int    `json:"term_years"`
}

// PurchaseDomainResult carries the registrar's order reference, empty when
// the domain was already registered to this account.
type PurchaseDomainResult struct {
	RegistrarRef string `json:"registrar_ref"`
}

// PurchaseDomain registers the domain at the wholesale registrar. Safe to
// retry: a domain already in the account counts as purchased.
func (a *Registrar) PurchaseDomain(ctx context.Context, params PurchaseDomainParams) (*PurchaseDomainResult, error) {
	ref, err := a.api.Purchase(ctx, params.Domain, params.TermYears, a.contact)
	if err != nil {
		return nil, fmt.Errorf("purchase %s: %w", params.Domain, err)
	}
	return &PurchaseDomainResult{RegistrarRef: ref}, nil
}

// SetNameserversParams holds parameters for SetNameservers.
type SetNameserversParams struct {
	Domain      string   `json:"domain"`
	Nameservers []string `json:"nameservers"`
}

// SetNameservers points the purchased domain at the DNS edge provider's
// nameservers.
func (a *Registrar) SetNameservers(ctx context.Context, params SetNameserversParams) error {
	if err := a.api.SetNameservers(ctx, params.Domain, params.Nameservers); err != nil {
		return fmt.Errorf("set nameservers for %s: %w", params.Domain, err)
	}
	return nil
}
