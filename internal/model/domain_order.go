package model

import "time"

// DomainOrder tracks a registrar purchase from payment through provisioning.
// WholesalePrice is what the registrar charged us; RetailPrice is what the
// buyer saw after markup.
type DomainOrder struct {
	ID             string    `json:"id" db:"id"`
	OwnerID        string    `json:"owner_id" db:"owner_id"`
	DomainName     string    `json:"domain_name" db:"domain_name"`
	ProjectID      *string   `json:"project_id,omitempty" db:"project_id"`
	TermYears      int       `json:"term_years" db:"term_years"`
	WholesalePrice float64   `json:"wholesale_price" db:"wholesale_price"`
	RetailPrice    float64   `json:"retail_price" db:"retail_price"`
	Status         string    `json:"status" db:"status"`
	Step           string    `json:"step" db:"step"`
	Error          *string   `json:"error,omitempty" db:"error"`
	RegistrarRef   *string   `json:"registrar_ref,omitempty" db:"registrar_ref"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// RegistrantContact is the contact information submitted to the registrar
// when purchasing a domain.
type RegistrantContact struct {
	FirstName    string `json:"first_name" yaml:"first_name"`
	LastName     string `json:"last_name" yaml:"last_name"`
	Organization string `json:"organization,omitempty" yaml:"organization"`
	Email        string `json:"email" yaml:"email"`
	Phone        string `json:"phone" yaml:"phone"`
	Address      string `json:"address" yaml:"address"`
	City         string `json:"city" yaml:"city"`
	PostalCode   string `json:"postal_code" yaml:"postal_code"`
	Country      string `json:"country" yaml:"country"`
}
